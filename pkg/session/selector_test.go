package session_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/model"
)

func TestResolveFoldersGlobMatchesDirectChildren(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	_, err := s.Mkdir(ctx, nil, "alpha")
	require.NoError(t, err)
	_, err = s.Mkdir(ctx, nil, "alsoa")
	require.NoError(t, err)
	_, err = s.Mkdir(ctx, nil, "beta")
	require.NoError(t, err)

	matched, err := s.ResolveFolders(ctx, "/al*")
	require.NoError(t, err)
	require.Len(t, matched, 2)
}

func TestResolveFoldersMissingHeadErrors(t *testing.T) {
	s := newTestSession(t)
	_, err := s.ResolveFolders(context.Background(), "/nope/child")
	require.ErrorIs(t, err, model.ErrDoesNotExist)
}

func TestResolveJobsByIntegerID(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	j, err := s.CreateJob(ctx, nil, driver.JobSpec{Command: "echo hi"}, "")
	require.NoError(t, err)

	jobs, err := s.ResolveJobs(ctx, "1", false)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, j.ID, jobs[0].ID)
}

func TestResolveJobsHeadStarMatchesFolderDirectJobs(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	f, err := s.Mkdir(ctx, nil, "work")
	require.NoError(t, err)
	_, err = s.CreateJob(ctx, f, driver.JobSpec{Command: "echo a"}, "")
	require.NoError(t, err)
	_, err = s.CreateJob(ctx, f, driver.JobSpec{Command: "echo b"}, "")
	require.NoError(t, err)

	jobs, err := s.ResolveJobs(ctx, "/work/*", false)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
}

func TestResolveJobsRangeSelector(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	f, err := s.Mkdir(ctx, nil, "work")
	require.NoError(t, err)
	var ids []int64
	for i := 0; i < 5; i++ {
		j, err := s.CreateJob(ctx, f, driver.JobSpec{Command: "echo a"}, "")
		require.NoError(t, err)
		ids = append(ids, j.ID)
	}

	lo, hi := strconv.FormatInt(ids[1], 10), strconv.FormatInt(ids[3], 10)
	jobs, err := s.ResolveJobs(ctx, "/work/"+lo+".."+hi, false)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
}

func TestResolveJobsRangeLoGreaterThanHiErrors(t *testing.T) {
	s := newTestSession(t)
	_, err := s.ResolveJobs(context.Background(), "/work/9..1", false)
	require.ErrorIs(t, err, model.ErrInvalidSelector)
}

func TestResolveJobsPlainPathRequiresRecursive(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	_, err := s.Mkdir(ctx, nil, "work")
	require.NoError(t, err)

	_, err = s.ResolveJobs(ctx, "/work", false)
	require.ErrorIs(t, err, model.ErrInvalidSelector)
}

func TestResolveJobsPlainPathRecursiveReturnsDescendantJobs(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	a, err := s.Mkdir(ctx, nil, "a")
	require.NoError(t, err)
	b, err := s.Mkdir(ctx, a, "b")
	require.NoError(t, err)
	_, err = s.CreateJob(ctx, b, driver.JobSpec{Command: "echo a"}, "")
	require.NoError(t, err)

	jobs, err := s.ResolveJobs(ctx, "/a", true)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
}
