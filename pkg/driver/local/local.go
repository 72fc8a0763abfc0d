package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/layout"
	"github.com/kong-job/kong/pkg/log"
	"github.com/kong-job/kong/pkg/metrics"
	"github.com/kong-job/kong/pkg/model"
	"github.com/kong-job/kong/pkg/storage"
	"github.com/kong-job/kong/pkg/workerpool"
)

// Tag is the fixed driver identifier stored on every job this driver
// creates.
const Tag = "kong.driver.local"

// defaultPollInterval is the default local Wait poll cadence — there is no
// back-end to rate-limit against, so this is shorter than the batch
// drivers' scheduler-accounting poll intervals.
const defaultPollInterval = 500 * time.Millisecond

// Driver runs jobs as child processes of the current host. It
// satisfies driver.Driver directly rather than through batchbase,
// since there is no external scheduler to submit one / query many /
// cancel one against — the process table itself is the back-end.
type Driver struct {
	Store  storage.Store
	JobDir string
	OutDir string

	pool *workerpool.Pool
}

// New constructs a local Driver rooted at jobDir/outDir for jobscript
// and output placement respectively.
func New(store storage.Store, jobDir, outDir string) *Driver {
	return &Driver{
		Store:  store,
		JobDir: jobDir,
		OutDir: outDir,
		pool:   workerpool.New(workerpool.DefaultWorkers),
	}
}

func (d *Driver) Tag() string { return Tag }

func (d *Driver) CreateJob(ctx context.Context, folder *model.Folder, spec driver.JobSpec) (*model.Job, error) {
	jobs, err := d.BulkCreateJobs(ctx, folder, []driver.JobSpec{spec})
	if err != nil {
		return nil, err
	}
	return jobs[0], nil
}

func (d *Driver) BulkCreateJobs(ctx context.Context, folder *model.Folder, specs []driver.JobSpec) ([]*model.Job, error) {
	jobs := make([]*model.Job, len(specs))
	for i, s := range specs {
		j := &model.Job{
			Driver:   Tag,
			FolderID: folder.ID,
			Command:  s.Command,
			Cores:    s.Cores,
			Memory:   s.Memory,
			Status:   model.StatusCreated,
			Data:     model.JobData{},
		}
		if err := j.Validate(); err != nil {
			return nil, err
		}
		jobs[i] = j
	}
	for _, j := range jobs {
		if err := d.Store.CreateJob(ctx, j); err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

// Submit renders jobscript.sh, forks it detached into its own session
// so it outlives this process, and records the child PID on the job
// row. Per spec.md §4.3 the local driver has no separate queued state:
// the process is already running by the time Submit returns.
func (d *Driver) Submit(ctx context.Context, job *model.Job) error {
	return d.BulkSubmit(ctx, []*model.Job{job})
}

func (d *Driver) BulkSubmit(ctx context.Context, jobs []*model.Job) error {
	if err := driver.CheckDriverAll(jobs, Tag); err != nil {
		return err
	}
	for _, j := range jobs {
		if j.Status != model.StatusCreated {
			return &driver.InvalidStatusError{JobID: j.ID, Current: j.Status, Op: "submit"}
		}
	}

	now := time.Now()
	for _, j := range jobs {
		timer := metrics.NewTimer()
		if err := d.launch(j); err != nil {
			return fmt.Errorf("local: submitting job %d: %w", j.ID, err)
		}
		j.Status = model.StatusRunning
		j.Touch(now)
		timer.ObserveDurationVec(metrics.BulkOperationDuration, Tag, "submit")
		metrics.DriverBackendCallsTotal.WithLabelValues(Tag, "submit").Inc()
	}

	return d.Store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.BulkUpdateJobs(ctx, jobs)
	})
}

func (d *Driver) launch(job *model.Job) error {
	paths := layout.ForJob(d.JobDir, d.OutDir, job.ID)
	if err := paths.EnsureDirs(); err != nil {
		return err
	}

	scratchDir := paths.OutputDir + "/scratch"
	if err := WriteScript(paths, job.ID, job.Command, job.Cores, scratchDir); err != nil {
		return err
	}

	cmd := exec.Command("/bin/sh", paths.JobScript)
	cmd.Env = append(os.Environ(), layout.Env(job.ID, paths.OutputDir, paths.LogDir, job.Cores, scratchDir)...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting jobscript: %w", err)
	}
	pid := cmd.Process.Pid
	// Release rather than Wait: the child is detached into its own
	// session and outlives this process; its exit is later observed
	// via PID liveness plus exit_status.txt, never via cmd.Wait.
	if err := cmd.Process.Release(); err != nil {
		log.WithDriver(Tag).Warn().Err(err).Int64("job_id", job.ID).Msg("releasing child process handle")
	}

	if job.Data == nil {
		job.Data = model.JobData{}
	}
	job.Data["pid"] = pid
	return nil
}

func (d *Driver) SyncStatus(ctx context.Context, job *model.Job) (*model.Job, error) {
	jobs, err := d.BulkSyncStatus(ctx, []*model.Job{job})
	if err != nil {
		return nil, err
	}
	return jobs[0], nil
}

func (d *Driver) BulkSyncStatus(ctx context.Context, jobs []*model.Job) ([]*model.Job, error) {
	if err := driver.CheckDriverAll(jobs, Tag); err != nil {
		return nil, err
	}

	now := time.Now()
	changed := make([]*model.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.Status.Terminal() {
			continue
		}
		pid, ok := pidOf(j)
		if !ok {
			j.Status = model.StatusUnknown
			j.Touch(now)
			changed = append(changed, j)
			continue
		}

		paths := layout.ForJob(d.JobDir, d.OutDir, j.ID)
		status, exitCode := reconcilePID(pid, paths.ExitStatus)
		if status == j.Status {
			continue
		}
		j.Status = status
		if exitCode != nil {
			j.Data["exit_code"] = *exitCode
		}
		j.Touch(now)
		changed = append(changed, j)
	}

	if len(changed) > 0 {
		if err := d.Store.WithTx(ctx, func(tx storage.Tx) error {
			return tx.BulkUpdateJobs(ctx, changed)
		}); err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

func (d *Driver) Kill(ctx context.Context, job *model.Job) error {
	return d.BulkKill(ctx, []*model.Job{job})
}

func (d *Driver) BulkKill(ctx context.Context, jobs []*model.Job) error {
	if err := driver.CheckDriverAll(jobs, Tag); err != nil {
		return err
	}
	if _, err := d.BulkSyncStatus(ctx, jobs); err != nil {
		return err
	}

	now := time.Now()
	for _, j := range jobs {
		if j.Status.Live() {
			if pid, ok := pidOf(j); ok {
				if err := syscall.Kill(pid, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
					log.WithDriver(Tag).Warn().Err(err).Int64("job_id", j.ID).Msg("kill: signalling process failed")
				}
			}
		}
		if !j.Status.Terminal() {
			j.Status = model.StatusFailed
			j.Touch(now)
		}
	}

	return d.Store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.BulkUpdateJobs(ctx, jobs)
	})
}

func (d *Driver) Wait(ctx context.Context, jobs []*model.Job, pollInterval, timeout time.Duration) (*driver.WaitIterator, error) {
	if err := driver.CheckDriverAll(jobs, Tag); err != nil {
		return nil, err
	}
	for _, j := range jobs {
		if j.Status == model.StatusCreated {
			return nil, &driver.InvalidStatusError{JobID: j.ID, Current: j.Status, Op: "wait"}
		}
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	it := driver.NewWaitIterator()
	go d.pollLoop(ctx, it, jobs, pollInterval, timeout)
	return it, nil
}

func (d *Driver) pollLoop(ctx context.Context, it *driver.WaitIterator, jobs []*model.Job, pollInterval, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	round := func() bool {
		if time.Now().After(deadline) {
			it.Fail(model.ErrTimeout)
			return true
		}
		if _, err := d.BulkSyncStatus(ctx, jobs); err != nil {
			it.Fail(err)
			return true
		}
		metrics.WaitRoundsTotal.WithLabelValues(Tag).Inc()
		if !it.Emit(jobs) {
			return true
		}
		for _, j := range jobs {
			if !j.Status.Terminal() {
				return false
			}
		}
		it.Finish()
		return true
	}

	if round() {
		return
	}
	for {
		select {
		case <-ticker.C:
			if round() {
				return
			}
		case <-ctx.Done():
			it.Fail(ctx.Err())
			return
		case <-it.Done():
			return
		}
	}
}

func (d *Driver) Resubmit(ctx context.Context, job *model.Job) error {
	return d.BulkResubmit(ctx, []*model.Job{job}, true)
}

func (d *Driver) BulkResubmit(ctx context.Context, jobs []*model.Job, doSubmit bool) error {
	if err := driver.CheckDriverAll(jobs, Tag); err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}

	if _, err := d.BulkSyncStatus(ctx, jobs); err != nil {
		return err
	}
	for _, j := range jobs {
		if !eligibleForResubmit[j.Status] {
			return &driver.InvalidStatusError{JobID: j.ID, Current: j.Status, Op: "resubmit"}
		}
	}

	if err := d.BulkKill(ctx, jobs); err != nil {
		log.WithDriver(Tag).Warn().Err(err).Msg("best-effort bulk_kill before resubmit reported an error")
	}

	ex := d.executorFor(len(jobs))
	if err := d.cleanupMany(ctx, jobs, ex); err != nil {
		log.WithDriver(Tag).Warn().Err(err).Msg("resubmit cleanup reported errors")
	}

	now := time.Now()
	for _, j := range jobs {
		j.Status = model.StatusCreated
		if j.Data != nil {
			delete(j.Data, "exit_code")
			delete(j.Data, "pid")
		}
		j.Touch(now)
	}
	if err := d.Store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.BulkUpdateJobs(ctx, jobs)
	}); err != nil {
		return err
	}

	if !doSubmit {
		return nil
	}
	return d.BulkSubmit(ctx, jobs)
}

var eligibleForResubmit = map[model.Status]bool{
	model.StatusCompleted: true,
	model.StatusFailed:    true,
	model.StatusUnknown:   true,
}

func (d *Driver) Cleanup(ctx context.Context, job *model.Job) error {
	return d.BulkCleanup(ctx, []*model.Job{job}, driver.SerialExecutor{})
}

func (d *Driver) BulkCleanup(ctx context.Context, jobs []*model.Job, ex driver.Executor) error {
	if err := driver.CheckDriverAll(jobs, Tag); err != nil {
		return err
	}
	for _, j := range jobs {
		if j.Status.Live() {
			return &driver.InvalidStatusError{JobID: j.ID, Current: j.Status, Op: "cleanup"}
		}
	}
	return d.cleanupMany(ctx, jobs, ex)
}

func (d *Driver) cleanupMany(ctx context.Context, jobs []*model.Job, ex driver.Executor) error {
	return ex.Run(ctx, len(jobs), func(ctx context.Context, i int) error {
		j := jobs[i]
		paths := layout.ForJob(d.JobDir, d.OutDir, j.ID)
		if err := paths.Remove(); err != nil {
			log.WithDriver(Tag).Warn().Err(err).Int64("job_id", j.ID).Msg("cleanup: directory removal failed")
			return err
		}
		return nil
	})
}

func (d *Driver) executorFor(n int) driver.Executor {
	if n <= 1 {
		return driver.SerialExecutor{}
	}
	return d.pool
}

func (d *Driver) Remove(ctx context.Context, job *model.Job) error {
	return d.BulkRemove(ctx, []*model.Job{job}, true)
}

func (d *Driver) BulkRemove(ctx context.Context, jobs []*model.Job, doCleanup bool) error {
	if err := driver.CheckDriverAll(jobs, Tag); err != nil {
		return err
	}
	if doCleanup {
		if err := d.cleanupMany(ctx, jobs, d.executorFor(len(jobs))); err != nil {
			log.WithDriver(Tag).Warn().Err(err).Msg("remove cleanup reported errors")
		}
	}
	ids := make([]int64, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	return d.Store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.BulkDeleteJobs(ctx, ids)
	})
}

func (d *Driver) Stdout(job *model.Job) (io.ReadCloser, error) {
	if err := driver.CheckDriver(job, Tag); err != nil {
		return nil, err
	}
	paths := layout.ForJob(d.JobDir, d.OutDir, job.ID)
	return os.Open(paths.Stdout)
}

func (d *Driver) Stderr(job *model.Job) (io.ReadCloser, error) {
	if err := driver.CheckDriver(job, Tag); err != nil {
		return nil, err
	}
	paths := layout.ForJob(d.JobDir, d.OutDir, job.ID)
	return os.Open(paths.Stderr)
}

// pidOf reads job.Data["pid"], handling both the freshly-set int (just
// after launch) and the float64 a round trip through JSON storage
// produces.
func pidOf(job *model.Job) (int, bool) {
	if job.Data == nil {
		return 0, false
	}
	switch v := job.Data["pid"].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

var _ driver.Driver = (*Driver)(nil)
