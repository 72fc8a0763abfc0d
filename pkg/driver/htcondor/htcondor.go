package htcondor

import (
	"context"
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
const Tag = "kong.driver.htcondor"

// defaultWalltime matches the original driver's 30-minute default.
const defaultWalltime = 30 * time.Minute

// Driver is the HTCondor batch driver. It embeds batchbase.Base for
// every lifecycle operation except CreateJob and Stderr:
// CreateJob needs HTCondor's submission-file shape, and the vanilla
// universe's unified stdout/stderr stream means there is no
// independent stderr file to open.
type Driver struct {
	batchbase.Base
	Backend *Backend
	Default Options
}

// New constructs an HTCondor Driver. backend.LogFile is the shared
// user log every submission's batchfile points "log =" at.
func New(store storage.Store, backend *Backend, jobDir, outDir string, defaults Options) *Driver {
	if defaults.Walltime == 0 {
		defaults.Walltime = int64(defaultWalltime.Seconds())
	}
	return &Driver{
		Base:    batchbase.New(Tag, store, backend, jobDir, outDir),
		Backend: backend,
		Default: defaults,
	}
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
	opts := d.optionsFor(spec)

	job := &model.Job{
		Driver:   Tag,
		FolderID: folder.ID,
		Command:  spec.Command,
		Cores:    spec.Cores,
		Memory:   spec.Memory,
		Status:   model.StatusCreated,
		Data:     model.JobData{},
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
	if err := WriteSubmission(paths, d.Backend.LogFile, job.ID, job.Command, job.Cores, job.Memory, opts); err != nil {
		return nil, err
	}
	return job, nil
}

func (d *Driver) optionsFor(spec driver.JobSpec) Options {
	opts := d.Default
	if spec.Extra == nil {
		return opts
	}
	if v, ok := spec.Extra["universe"].(string); ok && v != "" {
		opts.Universe = v
	}
	if v, ok := spec.Extra["submitfile_extra"].(string); ok && v != "" {
		opts.SubmitFileExtra = v
	}
	if v, ok := spec.Extra["walltime_seconds"].(int64); ok && v > 0 {
		opts.Walltime = v
	}
	return opts
}

// Stderr is not implemented: the vanilla universe this driver targets
// redirects stderr into the same file as stdout, so there is nothing
// separate to open.
func (d *Driver) Stderr(job *model.Job) (io.ReadCloser, error) {
	if err := driver.CheckDriver(job, Tag); err != nil {
		return nil, err
	}
	return nil, model.ErrNotImplemented
}

var _ driver.Driver = (*Driver)(nil)
