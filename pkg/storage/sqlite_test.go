package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kong-job/kong/pkg/model"
	"github.com/kong-job/kong/pkg/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	s, err := storage.NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRootFolderExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root, err := s.GetFolderByParentName(ctx, nil, model.RootFolderName)
	require.NoError(t, err)
	require.True(t, root.IsRoot())
	require.Equal(t, model.RootFolderName, root.Name)
}

func TestCreateFolderUniqueSibling(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	root, err := s.GetFolderByParentName(ctx, nil, model.RootFolderName)
	require.NoError(t, err)

	a := &model.Folder{Name: "a", ParentID: &root.ID}
	require.NoError(t, s.CreateFolder(ctx, a))

	dup := &model.Folder{Name: "a", ParentID: &root.ID}
	err = s.CreateFolder(ctx, dup)
	require.Error(t, err)
}

func TestRecursiveDescent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	root, err := s.GetFolderByParentName(ctx, nil, model.RootFolderName)
	require.NoError(t, err)

	a := &model.Folder{Name: "a", ParentID: &root.ID}
	require.NoError(t, s.CreateFolder(ctx, a))
	b := &model.Folder{Name: "b", ParentID: &a.ID}
	require.NoError(t, s.CreateFolder(ctx, b))
	c := &model.Folder{Name: "c", ParentID: &b.ID}
	require.NoError(t, s.CreateFolder(ctx, c))

	for _, f := range []*model.Folder{a, b, c} {
		job := &model.Job{Driver: "local", FolderID: f.ID, Command: "echo hi"}
		require.NoError(t, s.CreateJob(ctx, job))
	}

	folders, err := s.ListDescendantFolders(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, folders, 2)

	jobs, err := s.ListJobsUnderFolder(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
}

func TestJobDataRoundtrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	root, err := s.GetFolderByParentName(ctx, nil, model.RootFolderName)
	require.NoError(t, err)

	job := &model.Job{
		Driver:   "local",
		FolderID: root.ID,
		Command:  "echo hi",
		Data:     model.JobData{"pid": float64(1234), "log_dir": "/tmp/x"},
	}
	require.NoError(t, s.CreateJob(ctx, job))

	loaded, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, job.Data["log_dir"], loaded.Data["log_dir"])
	ec, ok := loaded.Data["pid"].(float64)
	require.True(t, ok)
	require.Equal(t, float64(1234), ec)
}

func TestWithTxAtomicBulkUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	root, err := s.GetFolderByParentName(ctx, nil, model.RootFolderName)
	require.NoError(t, err)

	var jobs []*model.Job
	for i := 0; i < 5; i++ {
		j := &model.Job{Driver: "local", FolderID: root.ID, Command: "echo hi"}
		require.NoError(t, s.CreateJob(ctx, j))
		jobs = append(jobs, j)
	}

	err = s.WithTx(ctx, func(tx storage.Tx) error {
		for _, j := range jobs {
			j.Status = model.StatusSubmitted
		}
		return tx.BulkUpdateJobs(ctx, jobs)
	})
	require.NoError(t, err)

	ids := make([]int64, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	reloaded, err := s.BulkGetJobs(ctx, ids)
	require.NoError(t, err)
	require.Len(t, reloaded, 5)
	for _, j := range reloaded {
		require.Equal(t, model.StatusSubmitted, j.Status)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	root, err := s.GetFolderByParentName(ctx, nil, model.RootFolderName)
	require.NoError(t, err)

	j := &model.Job{Driver: "local", FolderID: root.ID, Command: "echo hi"}
	require.NoError(t, s.CreateJob(ctx, j))

	errBoom := context.Canceled
	err = s.WithTx(ctx, func(tx storage.Tx) error {
		j.Status = model.StatusSubmitted
		if err := tx.UpdateJob(ctx, j); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	reloaded, err := s.GetJob(ctx, j.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusCreated, reloaded.Status)
}

func TestDeleteFolderCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	root, err := s.GetFolderByParentName(ctx, nil, model.RootFolderName)
	require.NoError(t, err)

	a := &model.Folder{Name: "a", ParentID: &root.ID}
	require.NoError(t, s.CreateFolder(ctx, a))
	job := &model.Job{Driver: "local", FolderID: a.ID, Command: "echo hi"}
	require.NoError(t, s.CreateJob(ctx, job))

	require.NoError(t, s.DeleteFolder(ctx, a.ID))

	_, err = s.GetFolder(ctx, a.ID)
	require.ErrorIs(t, err, model.ErrDoesNotExist)
	_, err = s.GetJob(ctx, job.ID)
	require.ErrorIs(t, err, model.ErrDoesNotExist)
}
