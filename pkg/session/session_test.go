package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/driver/local"
	"github.com/kong-job/kong/pkg/session"
	"github.com/kong-job/kong/pkg/storage"
)

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	store, err := storage.NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ld := local.New(store, t.TempDir(), t.TempDir())
	reg := driver.NewRegistry()
	reg.Register(ld)

	s, err := session.New(context.Background(), session.Options{
		Store:      store,
		Drivers:    reg,
		DefaultTag: local.Tag,
	})
	require.NoError(t, err)
	return s
}

func TestMkdirAndLsListsChild(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	a, err := s.Mkdir(ctx, nil, "a")
	require.NoError(t, err)

	folders, jobs, err := s.Ls(ctx, nil)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	require.Empty(t, jobs)
	require.Equal(t, a.ID, folders[0].ID)
}

func TestCdChangesCwd(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	_, err := s.Mkdir(ctx, nil, "a")
	require.NoError(t, err)
	require.NoError(t, s.Cd(ctx, "/a"))
	require.Equal(t, "a", s.Cwd().Name)
}

func TestCreateJobRoutesToDefaultDriver(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	j, err := s.CreateJob(ctx, nil, driver.JobSpec{Command: "echo hi"}, "")
	require.NoError(t, err)
	require.Equal(t, local.Tag, j.Driver)
}
