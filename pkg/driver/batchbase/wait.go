package batchbase

import (
	"context"
	"time"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/metrics"
	"github.com/kong-job/kong/pkg/model"
)

// Wait implements the monotone poll loop spec.md §4.2 requires: each
// round computes elapsed time, enforces timeout, calls
// BulkSyncStatus, yields the full (refreshed) job list, and sleeps
// until the next round — stopping once every job is terminal. A
// poll of zero uses the Backend's default interval.
func (b Base) Wait(ctx context.Context, jobs []*model.Job, pollInterval, timeout time.Duration) (*driver.WaitIterator, error) {
	if err := driver.CheckDriverAll(jobs, b.Tag_); err != nil {
		return nil, err
	}
	for _, j := range jobs {
		if j.Status == model.StatusCreated {
			return nil, &driver.InvalidStatusError{JobID: j.ID, Current: j.Status, Op: "wait"}
		}
	}
	if pollInterval <= 0 {
		pollInterval = b.Backend.DefaultPollInterval()
		if pollInterval <= 0 {
			pollInterval = 30 * time.Second
		}
	}

	it := driver.NewWaitIterator()
	go b.pollLoop(ctx, it, jobs, pollInterval, timeout)
	return it, nil
}

func (b Base) pollLoop(ctx context.Context, it *driver.WaitIterator, jobs []*model.Job, pollInterval, timeout time.Duration) {
	start := time.Now()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	round := func() (done bool) {
		if timeout > 0 && time.Since(start) > timeout {
			it.Fail(model.ErrTimeout)
			return true
		}

		synced, err := b.BulkSyncStatus(ctx, jobs)
		metrics.WaitRoundsTotal.WithLabelValues(b.Tag_).Inc()
		if err != nil {
			it.Fail(err)
			return true
		}
		jobs = synced

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
