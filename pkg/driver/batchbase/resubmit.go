package batchbase

import (
	"context"
	"time"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/layout"
	"github.com/kong-job/kong/pkg/log"
	"github.com/kong-job/kong/pkg/model"
	"github.com/kong-job/kong/pkg/storage"
	"github.com/kong-job/kong/pkg/workerpool"
)

// workerPool is the shared bounded executor used for bulk
// cleanup/resubmit across every batch driver instance; spec.md §4.2
// specifies a single pool sized around 40 workers, not one per driver.
var workerPool = workerpool.New(workerpool.DefaultWorkers)

var eligibleForResubmit = map[model.Status]bool{
	model.StatusCompleted: true,
	model.StatusFailed:    true,
	model.StatusUnknown:   true,
}

// Resubmit resets one terminal job back to CREATED and submits it.
func (b Base) Resubmit(ctx context.Context, job *model.Job) error {
	if err := driver.CheckDriver(job, b.Tag_); err != nil {
		return err
	}
	return b.BulkResubmit(ctx, []*model.Job{job}, true)
}

// BulkResubmit implements spec.md §4.2's composed sequence: sync →
// validate status (all-or-nothing, before any side effect) →
// best-effort bulk-kill (covers jobs that raced the scheduler into a
// live state) → parallel cleanup via a bounded worker pool →
// transactional reset to CREATED, scoped to exactly this set → reload
// by id → optional bulk_submit.
func (b Base) BulkResubmit(ctx context.Context, jobs []*model.Job, doSubmit bool) error {
	if err := driver.CheckDriverAll(jobs, b.Tag_); err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}

	synced, err := b.BulkSyncStatus(ctx, jobs)
	if err != nil {
		return err
	}
	jobs = synced

	for _, j := range jobs {
		if !eligibleForResubmit[j.Status] {
			return &driver.InvalidStatusError{JobID: j.ID, Current: j.Status, Op: "resubmit"}
		}
	}

	if err := b.BulkKill(ctx, jobs); err != nil {
		log.WithDriver(b.Tag_).Warn().Err(err).Msg("best-effort bulk_kill before resubmit reported an error")
	}

	pool := b.executorFor(len(jobs))
	if err := b.cleanupOutputMany(ctx, jobs, pool); err != nil {
		log.WithDriver(b.Tag_).Warn().Err(err).Msg("resubmit cleanup reported errors")
	}

	now := time.Now()
	ids := make([]int64, len(jobs))
	for i, j := range jobs {
		j.BatchJobID = nil
		j.Status = model.StatusCreated
		if j.Data != nil {
			delete(j.Data, "exit_code")
			delete(j.Data, "pid")
		}
		j.Touch(now)
		ids[i] = j.ID
	}

	err = b.Store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.BulkUpdateJobs(ctx, jobs)
	})
	if err != nil {
		return err
	}

	reloaded, err := b.Store.BulkGetJobs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[int64]*model.Job, len(reloaded))
	for _, r := range reloaded {
		byID[r.ID] = r
	}
	// The reload reads back the committed row, but callers hold the
	// original *model.Job pointers passed into BulkResubmit — copy the
	// reloaded state onto them so it's the caller's own jobs (not a
	// throwaway reload) that end up SUBMITTED.
	for _, j := range jobs {
		if r, ok := byID[j.ID]; ok {
			*j = *r
		}
	}

	if !doSubmit {
		return nil
	}
	return b.BulkSubmit(ctx, jobs)
}

// executorFor picks a serial executor below a small threshold so tests
// stay deterministic, and the bounded pool above it, per spec's
// "serial executor is the default for predictable testing" note.
func (b Base) executorFor(n int) driver.Executor {
	if n <= 1 {
		return driver.SerialExecutor{}
	}
	return workerPool
}

// cleanupMany runs a full Cleanup (log dir and output dir, plus
// everything under them) across jobs via ex, collecting but not
// aborting on individual directory-removal failures (spec.md §4.2).
// Used by BulkCleanup and BulkRemove, where the job dir is not reused;
// Cleanup removes its single job's directories directly.
func (b Base) cleanupMany(ctx context.Context, jobs []*model.Job, ex driver.Executor) error {
	return ex.Run(ctx, len(jobs), func(ctx context.Context, i int) error {
		j := jobs[i]
		paths := layout.ForJob(b.JobDir, b.OutDir, j.ID)
		if err := paths.Remove(); err != nil {
			log.WithDriver(b.Tag_).Warn().Err(err).Int64("job_id", j.ID).Msg("cleanup: directory removal failed")
			return err
		}
		return nil
	})
}

// cleanupOutputMany is cleanupMany scoped to output artifacts only
// (output dir + stdout), leaving LogDir's submission scripts in place.
// BulkResubmit uses this instead of cleanupMany since it reuses the
// same job dir rather than regenerating batchfile.sh/jobscript.sh.
func (b Base) cleanupOutputMany(ctx context.Context, jobs []*model.Job, ex driver.Executor) error {
	return ex.Run(ctx, len(jobs), func(ctx context.Context, i int) error {
		j := jobs[i]
		paths := layout.ForJob(b.JobDir, b.OutDir, j.ID)
		if err := paths.RemoveOutput(); err != nil {
			log.WithDriver(b.Tag_).Warn().Err(err).Int64("job_id", j.ID).Msg("resubmit cleanup: output removal failed")
			return err
		}
		return nil
	})
}
