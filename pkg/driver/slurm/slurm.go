package slurm

import (
	"context"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/driver/batchbase"
	"github.com/kong-job/kong/pkg/layout"
	"github.com/kong-job/kong/pkg/model"
	"github.com/kong-job/kong/pkg/storage"
)

// Tag is the fixed driver identifier stored on every job this driver
// creates.
const Tag = "kong.driver.slurm"

// Driver is the Slurm batch driver. It embeds batchbase.Base for
// every lifecycle operation except CreateJob, which is
// scheduler-specific (it must render the sbatch submission pair).
type Driver struct {
	batchbase.Base
	Default Options
}

// New constructs a Slurm Driver. defaults supplies the account/queue
// applied to jobs that don't override them via JobSpec.Extra.
func New(store storage.Store, backend *Backend, jobDir, outDir string, defaults Options) *Driver {
	return &Driver{
		Base:    batchbase.New(Tag, store, backend, jobDir, outDir),
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
	if opts.Walltime != "" {
		wt, err := ParseWalltime(opts.Walltime)
		if err != nil {
			return nil, err
		}
		opts.Walltime = FormatWalltime(wt)
	}

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
	if err := WriteSubmission(paths, job.ID, job.Command, job.Cores, job.Memory, opts); err != nil {
		return nil, err
	}
	return job, nil
}

func (d *Driver) optionsFor(spec driver.JobSpec) Options {
	opts := d.Default
	if spec.Extra == nil {
		return opts
	}
	if v, ok := spec.Extra["account"].(string); ok && v != "" {
		opts.Account = v
	}
	if v, ok := spec.Extra["queue"].(string); ok && v != "" {
		opts.Queue = v
	}
	if v, ok := spec.Extra["walltime"].(string); ok && v != "" {
		opts.Walltime = v
	}
	if v, ok := spec.Extra["scratch_dir"].(string); ok && v != "" {
		opts.ScratchDir = v
	}
	return opts
}

var _ driver.Driver = (*Driver)(nil)
