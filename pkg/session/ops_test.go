package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/model"
)

func TestSubmitAndWaitReachesCompleted(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	j, err := s.CreateJob(ctx, nil, driver.JobSpec{Command: "echo HELLO"}, "")
	require.NoError(t, err)

	require.NoError(t, s.Submit(ctx, j, false, nil))

	final, err := s.Wait(ctx, j, false, 20*time.Millisecond, 5*time.Second)
	require.NoError(t, err)
	require.Len(t, final, 1)
	require.Equal(t, model.StatusCompleted, final[0].Status)
}

func TestResubmitFailedOnlyFiltersToFailedJobs(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	ok, err := s.CreateJob(ctx, nil, driver.JobSpec{Command: "echo ok"}, "")
	require.NoError(t, err)
	bad, err := s.CreateJob(ctx, nil, driver.JobSpec{Command: "sh -c 'exit 1'"}, "")
	require.NoError(t, err)

	require.NoError(t, s.Submit(ctx, []*model.Job{ok, bad}, false, nil))
	_, err = s.Wait(ctx, []*model.Job{ok, bad}, false, 20*time.Millisecond, 5*time.Second)
	require.NoError(t, err)

	okPidBefore := ok.Data["pid"]
	badPidBefore := bad.Data["pid"]

	require.NoError(t, s.Resubmit(ctx, []*model.Job{ok, bad}, false, true, true, nil))
	// The relaunched job is RUNNING until its process exits.
	_, err = s.Wait(ctx, []*model.Job{ok, bad}, false, 20*time.Millisecond, 5*time.Second)
	require.NoError(t, err)

	refreshed, err := s.Refresh(ctx, []*model.Job{ok, bad})
	require.NoError(t, err)
	byID := map[int64]*model.Job{}
	for _, j := range refreshed {
		byID[j.ID] = j
	}
	require.Equal(t, model.StatusCompleted, byID[ok.ID].Status)
	require.Equal(t, okPidBefore, byID[ok.ID].Data["pid"]) // untouched, was never FAILED

	require.Equal(t, model.StatusFailed, byID[bad.ID].Status)
	require.NotEqual(t, badPidBefore, byID[bad.ID].Data["pid"]) // relaunched under a new pid
}

func TestKillMarksLiveJobFailed(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	j, err := s.CreateJob(ctx, nil, driver.JobSpec{Command: "sleep 5"}, "")
	require.NoError(t, err)
	require.NoError(t, s.Submit(ctx, j, false, nil))

	require.NoError(t, s.Kill(ctx, j, false, nil))

	refreshed, err := s.Refresh(ctx, []*model.Job{j})
	require.NoError(t, err)
	require.Equal(t, model.StatusFailed, refreshed[0].Status)
}
