package batchbase

import (
	"context"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/layout"
	"github.com/kong-job/kong/pkg/model"
	"github.com/kong-job/kong/pkg/storage"
)

// Cleanup deletes a non-live job's log/output/scratch directories. It
// is idempotent: a second call against an already-cleaned job is a
// no-op, not an error.
func (b Base) Cleanup(ctx context.Context, job *model.Job) error {
	if err := driver.CheckDriver(job, b.Tag_); err != nil {
		return err
	}
	if job.Status == model.StatusSubmitted || job.Status == model.StatusRunning {
		return &driver.InvalidStatusError{JobID: job.ID, Current: job.Status, Op: "cleanup"}
	}
	paths := layout.ForJob(b.JobDir, b.OutDir, job.ID)
	return paths.Remove()
}

// BulkCleanup validates every job is non-live (all-or-nothing, before
// any side effect) then runs the actual removals through ex, which
// may run them serially or concurrently.
func (b Base) BulkCleanup(ctx context.Context, jobs []*model.Job, ex driver.Executor) error {
	if err := driver.CheckDriverAll(jobs, b.Tag_); err != nil {
		return err
	}
	for _, j := range jobs {
		if j.Status == model.StatusSubmitted || j.Status == model.StatusRunning {
			return &driver.InvalidStatusError{JobID: j.ID, Current: j.Status, Op: "cleanup"}
		}
	}
	return b.cleanupMany(ctx, jobs, ex)
}

// Remove deletes a job's external artifacts then its row.
func (b Base) Remove(ctx context.Context, job *model.Job) error {
	if err := driver.CheckDriver(job, b.Tag_); err != nil {
		return err
	}
	return b.BulkRemove(ctx, []*model.Job{job}, true)
}

// BulkRemove optionally cleans up every job's artifacts, then deletes
// every row inside one transaction, chunked by the store.
func (b Base) BulkRemove(ctx context.Context, jobs []*model.Job, doCleanup bool) error {
	if err := driver.CheckDriverAll(jobs, b.Tag_); err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}

	if doCleanup {
		pool := b.executorFor(len(jobs))
		_ = b.cleanupMany(ctx, jobs, pool)
	}

	ids := make([]int64, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}

	return b.Store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.BulkDeleteJobs(ctx, ids)
	})
}
