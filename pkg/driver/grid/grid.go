package grid

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/driver/batchbase"
	"github.com/kong-job/kong/pkg/layout"
	"github.com/kong-job/kong/pkg/model"
	"github.com/kong-job/kong/pkg/storage"
)

// Tag is the fixed driver identifier stored on every job this driver
// creates.
const Tag = "kong.driver.grid"

// Driver is the Grid/Panda batch driver. It embeds batchbase.Base for
// SyncStatus/BulkSyncStatus/Wait/Tag, which only need Backend.QueryMany,
// but overrides every operation the original prun_driver.py does not
// actually support. Submission is externally driven, so Submit only
// flips CREATED to SUBMITTED without a scheduler call; kill, resubmit,
// cleanup, remove, and stream retrieval are unimplemented there (see
// doc.go), so this driver returns model.ErrNotImplemented for each
// rather than inheriting Base's scheduler-call-based behavior.
type Driver struct {
	batchbase.Base
}

// New constructs a Grid Driver against Panda's monitoring API at
// baseURL.
func New(store storage.Store, backend *Backend, jobDir, outDir string) *Driver {
	return &Driver{Base: batchbase.New(Tag, store, backend, jobDir, outDir)}
}

func (d *Driver) CreateJob(ctx context.Context, folder *model.Folder, spec driver.JobSpec) (*model.Job, error) {
	jobs, err := d.BulkCreateJobs(ctx, folder, []driver.JobSpec{spec})
	if err != nil {
		return nil, err
	}
	return jobs[0], nil
}

func (d *Driver) BulkCreateJobs(ctx context.Context, folder *model.Folder, specs []driver.JobSpec) ([]*model.Job, error) {
	return d.Base.BulkCreateJobs(ctx, folder, specs, d.createOne)
}

func (d *Driver) createOne(ctx context.Context, folder *model.Folder, spec driver.JobSpec) (*model.Job, error) {
	taskID, _ := spec.Extra["task_id"].(string)
	if taskID == "" {
		return nil, fmt.Errorf("grid: job spec must carry an externally-assigned task_id")
	}

	job := &model.Job{
		Driver:     Tag,
		FolderID:   folder.ID,
		Command:    spec.Command,
		Cores:      spec.Cores,
		Memory:     spec.Memory,
		Status:     model.StatusCreated,
		BatchJobID: &taskID,
		Data:       model.JobData{},
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	if err := d.Store.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	paths := layout.ForJob(d.JobDir, d.OutDir, job.ID)
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}
	if err := WriteDescriptor(paths, job.ID, taskID, job.Command, job.Cores); err != nil {
		return nil, err
	}
	return job, nil
}

// Submit only flips CREATED to SUBMITTED: the task was already
// submitted externally by the time Kong learned its task id.
func (d *Driver) Submit(ctx context.Context, job *model.Job) error {
	return d.BulkSubmit(ctx, []*model.Job{job})
}

func (d *Driver) BulkSubmit(ctx context.Context, jobs []*model.Job) error {
	if err := driver.CheckDriverAll(jobs, Tag); err != nil {
		return err
	}
	now := time.Now()
	for _, j := range jobs {
		if j.Status != model.StatusCreated {
			return &driver.InvalidStatusError{JobID: j.ID, Current: j.Status, Op: "submit"}
		}
		j.Status = model.StatusSubmitted
		j.Touch(now)
	}
	return d.Store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.BulkUpdateJobs(ctx, jobs)
	})
}

func (d *Driver) Kill(ctx context.Context, job *model.Job) error {
	return model.ErrNotImplemented
}

func (d *Driver) BulkKill(ctx context.Context, jobs []*model.Job) error {
	return model.ErrNotImplemented
}

func (d *Driver) Resubmit(ctx context.Context, job *model.Job) error {
	return model.ErrNotImplemented
}

func (d *Driver) BulkResubmit(ctx context.Context, jobs []*model.Job, doSubmit bool) error {
	return model.ErrNotImplemented
}

func (d *Driver) Cleanup(ctx context.Context, job *model.Job) error {
	return model.ErrNotImplemented
}

func (d *Driver) BulkCleanup(ctx context.Context, jobs []*model.Job, ex driver.Executor) error {
	return model.ErrNotImplemented
}

func (d *Driver) Remove(ctx context.Context, job *model.Job) error {
	return model.ErrNotImplemented
}

func (d *Driver) BulkRemove(ctx context.Context, jobs []*model.Job, doCleanup bool) error {
	return model.ErrNotImplemented
}

// Stdout/Stderr retrieval in the original downloads rucio datasets and
// extracts per-payload logs — external storage orchestration out of
// scope for this capability surface.
func (d *Driver) Stdout(job *model.Job) (io.ReadCloser, error) {
	return nil, model.ErrNotImplemented
}

func (d *Driver) Stderr(job *model.Job) (io.ReadCloser, error) {
	return nil, model.ErrNotImplemented
}

var _ driver.Driver = (*Driver)(nil)
