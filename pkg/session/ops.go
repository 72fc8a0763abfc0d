package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/model"
	"github.com/kong-job/kong/pkg/notify"
)

// CreateJob creates a single job in folder, routed to driverTag (the
// session's Default when empty).
func (s *Session) CreateJob(ctx context.Context, folder *model.Folder, spec driver.JobSpec, driverTag string) (*model.Job, error) {
	if folder == nil {
		folder = s.cwd
	}
	d, err := s.driverFor(driverTag)
	if err != nil {
		return nil, err
	}
	return d.CreateJob(ctx, folder, spec)
}

// BulkCreateJobs creates every spec in folder, routed to driverTag.
func (s *Session) BulkCreateJobs(ctx context.Context, folder *model.Folder, specs []driver.JobSpec, driverTag string) ([]*model.Job, error) {
	if folder == nil {
		folder = s.cwd
	}
	d, err := s.driverFor(driverTag)
	if err != nil {
		return nil, err
	}
	return d.BulkCreateJobs(ctx, folder, specs)
}

// groupByDriver partitions jobs by their routed driver tag, preserving
// each group's relative order.
func groupByDriver(jobs []*model.Job) map[string][]*model.Job {
	byDriver := make(map[string][]*model.Job)
	for _, j := range jobs {
		byDriver[j.Driver] = append(byDriver[j.Driver], j)
	}
	return byDriver
}

// resolveTarget turns a *model.Job, []*model.Job, or string selector
// into a concrete job slice. This is the common entry point for
// submit/kill/resubmit, all of which accept the same range of shapes.
func (s *Session) resolveTarget(ctx context.Context, target any, recursive bool) ([]*model.Job, error) {
	switch v := target.(type) {
	case *model.Job:
		return []*model.Job{v}, nil
	case []*model.Job:
		return v, nil
	case string:
		return s.ResolveJobs(ctx, v, recursive)
	default:
		return nil, fmt.Errorf("%w: unsupported job target %T", model.ErrInvalidSelector, target)
	}
}

func confirmOrAbort(confirm func(summary string) bool, summary string) bool {
	if confirm == nil {
		return true
	}
	return confirm(summary)
}

// Submit resolves target to jobs, confirms, groups by driver and
// invokes each driver's bulk_submit.
func (s *Session) Submit(ctx context.Context, target any, recursive bool, confirm func(summary string) bool) error {
	jobs, err := s.resolveTarget(ctx, target, recursive)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}
	if !confirmOrAbort(confirm, fmt.Sprintf("submit %d job(s)", len(jobs))) {
		return nil
	}
	for tag, group := range groupByDriver(jobs) {
		d, err := s.Drivers.Get(tag)
		if err != nil {
			return err
		}
		if err := d.BulkSubmit(ctx, group); err != nil {
			return err
		}
	}
	return nil
}

// Kill resolves target to jobs, confirms, groups by driver and invokes
// each driver's bulk_kill.
func (s *Session) Kill(ctx context.Context, target any, recursive bool, confirm func(summary string) bool) error {
	jobs, err := s.resolveTarget(ctx, target, recursive)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}
	if !confirmOrAbort(confirm, fmt.Sprintf("kill %d job(s)", len(jobs))) {
		return nil
	}
	for tag, group := range groupByDriver(jobs) {
		d, err := s.Drivers.Get(tag)
		if err != nil {
			return err
		}
		if err := d.BulkKill(ctx, group); err != nil {
			return err
		}
	}
	return nil
}

// Resubmit resolves target to jobs, optionally filters to FAILED only
// (the `resubmit --failed-only` shape), confirms, groups by driver and
// invokes each driver's bulk_resubmit.
func (s *Session) Resubmit(ctx context.Context, target any, recursive, failedOnly, doSubmit bool, confirm func(summary string) bool) error {
	jobs, err := s.resolveTarget(ctx, target, recursive)
	if err != nil {
		return err
	}
	if failedOnly {
		var filtered []*model.Job
		for _, j := range jobs {
			if j.Status == model.StatusFailed {
				filtered = append(filtered, j)
			}
		}
		jobs = filtered
	}
	if len(jobs) == 0 {
		return nil
	}
	if !confirmOrAbort(confirm, fmt.Sprintf("resubmit %d job(s)", len(jobs))) {
		return nil
	}
	for tag, group := range groupByDriver(jobs) {
		d, err := s.Drivers.Get(tag)
		if err != nil {
			return err
		}
		if err := d.BulkResubmit(ctx, group, doSubmit); err != nil {
			return err
		}
	}
	return nil
}

// Wait resolves target to jobs, then drives each driver group's Wait
// loop to completion (or timeout), notifying the session's Notifier
// once with the aggregate outcome.
func (s *Session) Wait(ctx context.Context, target any, recursive bool, pollInterval, timeout time.Duration) ([]*model.Job, error) {
	jobs, err := s.resolveTarget(ctx, target, recursive)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	var final []*model.Job
	var timedOut bool
	var waitErr error

	for tag, group := range groupByDriver(jobs) {
		d, err := s.Drivers.Get(tag)
		if err != nil {
			return nil, err
		}
		it, err := d.Wait(ctx, group, pollInterval, timeout)
		if err != nil {
			return nil, err
		}
		result, err := driver.Drain(it)
		final = append(final, result...)
		if err != nil {
			if errors.Is(err, model.ErrTimeout) {
				timedOut = true
			}
			if waitErr == nil {
				waitErr = err
			}
		}
	}

	event := notify.Event{Jobs: final, TimedOut: timedOut, Err: waitErr}
	if s.Notifier != nil {
		_ = s.Notifier.Notify(ctx, event)
	}
	return final, waitErr
}

// Refresh re-syncs jobs against their back-end, attempting one bulk
// call against the first job's driver and falling back to per-job
// sync on a DriverMismatch (a mixed-driver set).
func (s *Session) Refresh(ctx context.Context, jobs []*model.Job) ([]*model.Job, error) {
	if len(jobs) == 0 {
		return nil, nil
	}
	d, err := s.Drivers.Get(jobs[0].Driver)
	if err != nil {
		return nil, err
	}
	synced, err := d.BulkSyncStatus(ctx, jobs)
	if err == nil {
		return synced, nil
	}
	var mismatch *driver.DriverMismatchError
	if !errors.As(err, &mismatch) {
		return nil, err
	}

	out := make([]*model.Job, 0, len(jobs))
	for _, j := range jobs {
		jd, derr := s.Drivers.Get(j.Driver)
		if derr != nil {
			return nil, derr
		}
		sj, serr := jd.SyncStatus(ctx, j)
		if serr != nil {
			return nil, serr
		}
		out = append(out, sj)
	}
	return out, nil
}
