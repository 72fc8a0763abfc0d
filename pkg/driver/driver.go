package driver

import (
	"context"
	"io"
	"time"

	"github.com/kong-job/kong/pkg/model"
)

// JobSpec describes one job to create. Driver-specific knobs (e.g.
// Slurm account override, HTCondor universe) travel in Extra, which a
// driver is free to interpret and fold into the resulting Job.Data.
type JobSpec struct {
	Command string
	Cores   int
	Memory  int64
	Extra   map[string]any
}

// Driver is the capability surface a batch back-end must implement.
// See pkg/driver/batchbase for the shared implementation used by
// every back-end built on "submit one / query many / cancel one".
type Driver interface {
	// Tag is this driver's fully-qualified identifier, stored on
	// every Job row it creates and used to route per-job operations.
	Tag() string

	CreateJob(ctx context.Context, folder *model.Folder, spec JobSpec) (*model.Job, error)
	BulkCreateJobs(ctx context.Context, folder *model.Folder, specs []JobSpec) ([]*model.Job, error)

	SyncStatus(ctx context.Context, job *model.Job) (*model.Job, error)
	BulkSyncStatus(ctx context.Context, jobs []*model.Job) ([]*model.Job, error)

	Submit(ctx context.Context, job *model.Job) error
	BulkSubmit(ctx context.Context, jobs []*model.Job) error

	Kill(ctx context.Context, job *model.Job) error
	BulkKill(ctx context.Context, jobs []*model.Job) error

	// Wait returns an iterator that yields the full job list, freshly
	// synced, once per poll round, until every job is terminal or the
	// iterator is cancelled. jobs must not contain a CREATED job.
	Wait(ctx context.Context, jobs []*model.Job, pollInterval, timeout time.Duration) (*WaitIterator, error)

	Resubmit(ctx context.Context, job *model.Job) error
	BulkResubmit(ctx context.Context, jobs []*model.Job, doSubmit bool) error

	Cleanup(ctx context.Context, job *model.Job) error
	BulkCleanup(ctx context.Context, jobs []*model.Job, ex Executor) error

	Remove(ctx context.Context, job *model.Job) error
	BulkRemove(ctx context.Context, jobs []*model.Job, doCleanup bool) error

	Stdout(job *model.Job) (io.ReadCloser, error)
	Stderr(job *model.Job) (io.ReadCloser, error)
}

// CheckDriver is the single guard every per-job driver method must
// call first: it asserts job.Driver matches tag, returning
// ErrDriverMismatch otherwise.
func CheckDriver(job *model.Job, tag string) error {
	if job.Driver != tag {
		return &DriverMismatchError{Expected: tag, Got: job.Driver, JobID: job.ID}
	}
	return nil
}

// CheckDriverAll is CheckDriver applied to a homogeneous job set, as
// required before any bulk primitive proceeds.
func CheckDriverAll(jobs []*model.Job, tag string) error {
	for _, j := range jobs {
		if err := CheckDriver(j, tag); err != nil {
			return err
		}
	}
	return nil
}
