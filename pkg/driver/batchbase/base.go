package batchbase

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/layout"
	"github.com/kong-job/kong/pkg/log"
	"github.com/kong-job/kong/pkg/metrics"
	"github.com/kong-job/kong/pkg/model"
	"github.com/kong-job/kong/pkg/storage"
)

// Base composes Backend's three primitives into the full
// driver.Driver surface shared by every batch driver. It is embedded
// by value; Base has no CreateJob, so the embedding driver supplies
// CreateJob itself, and may override the default Stdout/Stderr in
// streams.go where its scheduler captures streams differently.
type Base struct {
	Tag_    string
	Store   storage.Store
	Backend Backend
	JobDir  string
	OutDir  string

	limiter *rate.Limiter
}

// New constructs a Base. The rate limiter allows one back-end query
// per poll interval, burst 1, so concurrent Wait calls against the
// same scheduler cannot exceed one outbound call per interval.
func New(tag string, store storage.Store, backend Backend, jobDir, outDir string) Base {
	interval := backend.DefaultPollInterval()
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return Base{
		Tag_:    tag,
		Store:   store,
		Backend: backend,
		JobDir:  jobDir,
		OutDir:  outDir,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (b Base) Tag() string { return b.Tag_ }

// BulkCreateJobs persists n CREATED jobs in spec order, materialising
// each job's layout directories and submission files via the
// embedding driver's own CreateJob (Base does not implement CreateJob
// itself — scheduler submission-file shape is driver-specific).
func (b Base) BulkCreateJobs(ctx context.Context, folder *model.Folder, specs []driver.JobSpec, createOne func(context.Context, *model.Folder, driver.JobSpec) (*model.Job, error)) ([]*model.Job, error) {
	jobs := make([]*model.Job, 0, len(specs))
	for _, spec := range specs {
		job, err := createOne(ctx, folder, spec)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// SyncStatus reconciles one job against the back-end.
func (b Base) SyncStatus(ctx context.Context, job *model.Job) (*model.Job, error) {
	if err := driver.CheckDriver(job, b.Tag_); err != nil {
		return nil, err
	}
	synced, err := b.BulkSyncStatus(ctx, []*model.Job{job})
	if err != nil {
		return nil, err
	}
	if len(synced) == 0 {
		return job, nil
	}
	return synced[0], nil
}

// BulkSyncStatus queries the back-end once for the whole set, applies
// the status mapping table, and writes every change in one
// transaction. Jobs the back-end doesn't recognise are left untouched.
func (b Base) BulkSyncStatus(ctx context.Context, jobs []*model.Job) ([]*model.Job, error) {
	if err := driver.CheckDriverAll(jobs, b.Tag_); err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(jobs))
	byBatchID := make(map[string]*model.Job, len(jobs))
	for _, j := range jobs {
		if j.BatchJobID == nil {
			continue
		}
		ids = append(ids, *j.BatchJobID)
		byBatchID[*j.BatchJobID] = j
	}

	timer := metrics.NewTimer()
	statuses, err := b.Backend.QueryMany(ctx, ids)
	metrics.DriverBackendCallsTotal.WithLabelValues(b.Tag_, "query_many").Inc()
	if err != nil {
		metrics.DriverBackendErrorsTotal.WithLabelValues(b.Tag_, "query_many").Inc()
		return nil, fmt.Errorf("batchbase: query_many: %w", err)
	}
	timer.ObserveDurationVec(metrics.BulkOperationDuration, b.Tag_, "sync_status")

	changed := make([]*model.Job, 0, len(statuses))
	now := time.Now()
	for _, s := range statuses {
		job, ok := byBatchID[s.BatchJobID]
		if !ok {
			continue
		}
		status, exitCode := b.Backend.MapStatus(s)
		job.Status = status
		if exitCode != nil {
			if job.Data == nil {
				job.Data = model.JobData{}
			}
			job.Data["exit_code"] = *exitCode
		}
		job.Touch(now)
		changed = append(changed, job)
	}

	if len(changed) == 0 {
		return jobs, nil
	}

	err = b.Store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.BulkUpdateJobs(ctx, changed)
	})
	if err != nil {
		return nil, fmt.Errorf("batchbase: persisting synced status: %w", err)
	}
	return jobs, nil
}

// Submit transitions one CREATED job to SUBMITTED.
func (b Base) Submit(ctx context.Context, job *model.Job) error {
	if err := driver.CheckDriver(job, b.Tag_); err != nil {
		return err
	}
	return b.BulkSubmit(ctx, []*model.Job{job})
}

// BulkSubmit submits every job, one back-end call each (the back-end
// only offers submit_one), then writes batch_job_id/status/updated_at
// for the whole set in a single transaction. The first submission
// error aborts; jobs already submitted before the failure stay
// durably SUBMITTED.
func (b Base) BulkSubmit(ctx context.Context, jobs []*model.Job) error {
	if err := driver.CheckDriverAll(jobs, b.Tag_); err != nil {
		return err
	}
	for _, j := range jobs {
		if j.Status != model.StatusCreated {
			return &driver.InvalidStatusError{JobID: j.ID, Current: j.Status, Op: "submit"}
		}
	}

	timer := metrics.NewTimer()
	now := time.Now()
	for i, j := range jobs {
		paths := layout.ForJob(b.JobDir, b.OutDir, j.ID)
		batchID, err := b.Backend.SubmitOne(ctx, j.ID, paths.BatchFile)
		metrics.DriverBackendCallsTotal.WithLabelValues(b.Tag_, "submit_one").Inc()
		if err != nil {
			metrics.DriverBackendErrorsTotal.WithLabelValues(b.Tag_, "submit_one").Inc()
			submitErr := fmt.Errorf("batchbase: submit_one(job=%d): %w", j.ID, err)
			if i > 0 {
				if perr := b.Store.WithTx(ctx, func(tx storage.Tx) error {
					return tx.BulkUpdateJobs(ctx, jobs[:i])
				}); perr != nil {
					return fmt.Errorf("%w (persisting submitted jobs: %v)", submitErr, perr)
				}
			}
			return submitErr
		}
		j.BatchJobID = &batchID
		j.Status = model.StatusSubmitted
		j.Touch(now)
	}
	timer.ObserveDurationVec(metrics.BulkOperationDuration, b.Tag_, "bulk_submit")

	return b.Store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.BulkUpdateJobs(ctx, jobs)
	})
}

// Kill cancels one job.
func (b Base) Kill(ctx context.Context, job *model.Job) error {
	if err := driver.CheckDriver(job, b.Tag_); err != nil {
		return err
	}
	return b.BulkKill(ctx, []*model.Job{job})
}

// BulkKill syncs status first (so a job that already finished isn't
// cancelled), then cancels every non-terminal job without saving, then
// writes the whole set in one transaction.
func (b Base) BulkKill(ctx context.Context, jobs []*model.Job) error {
	if err := driver.CheckDriverAll(jobs, b.Tag_); err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}
	if _, err := b.BulkSyncStatus(ctx, jobs); err != nil {
		return err
	}

	now := time.Now()
	for _, j := range jobs {
		if j.Status.Terminal() {
			continue
		}
		if j.Status == model.StatusSubmitted || j.Status == model.StatusRunning {
			if j.BatchJobID != nil {
				err := b.Backend.CancelOne(ctx, *j.BatchJobID)
				metrics.DriverBackendCallsTotal.WithLabelValues(b.Tag_, "cancel_one").Inc()
				if err != nil {
					metrics.DriverBackendErrorsTotal.WithLabelValues(b.Tag_, "cancel_one").Inc()
					log.WithDriver(b.Tag_).Warn().Err(err).Int64("job_id", j.ID).Msg("cancel_one failed")
				}
			}
		}
		j.Status = model.StatusFailed
		j.Touch(now)
	}

	return b.Store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.BulkUpdateJobs(ctx, jobs)
	})
}
