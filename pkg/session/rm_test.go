package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/model"
)

func TestRemoveRootAlwaysErrors(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	err := s.Remove(ctx, s.Cwd(), true, nil)
	require.ErrorIs(t, err, model.ErrCannotRemoveRoot)
}

func TestRemoveFolderWithChildrenRequiresRecursive(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	a, err := s.Mkdir(ctx, nil, "a")
	require.NoError(t, err)
	_, err = s.Mkdir(ctx, a, "b")
	require.NoError(t, err)

	err = s.Remove(ctx, a, false, nil)
	require.ErrorIs(t, err, model.ErrCannotRemoveIsFolder)
}

func TestRemoveRecursiveDeletesTreeAndJobs(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	a, err := s.Mkdir(ctx, nil, "a")
	require.NoError(t, err)
	b, err := s.Mkdir(ctx, a, "b")
	require.NoError(t, err)
	_, err = s.CreateJob(ctx, b, driver.JobSpec{Command: "echo hi"}, "")
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, a, true, nil))

	_, err = s.ResolveFolders(ctx, "/a")
	require.ErrorIs(t, err, model.ErrDoesNotExist)
}

func TestRemoveAbortsWhenConfirmDeclines(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	j, err := s.CreateJob(ctx, nil, driver.JobSpec{Command: "echo hi"}, "")
	require.NoError(t, err)

	confirmed := false
	require.NoError(t, s.Remove(ctx, j, false, func(string) bool {
		confirmed = true
		return false
	}))
	require.True(t, confirmed)

	_, err = s.ResolveJobs(ctx, "1", false)
	require.NoError(t, err) // job still present, rm was declined
}
