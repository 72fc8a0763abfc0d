package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/model"
)

func TestMoveFolderIntoExistingFolder(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	a, err := s.Mkdir(ctx, nil, "a")
	require.NoError(t, err)
	b, err := s.Mkdir(ctx, nil, "b")
	require.NoError(t, err)
	c, err := s.Mkdir(ctx, a, "c")
	require.NoError(t, err)

	require.NoError(t, s.Move(ctx, c, "/b"))

	children, _, err := s.Ls(ctx, b)
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, "c", children[0].Name)
}

func TestMoveFolderRenameToNonExistentPath(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	a, err := s.Mkdir(ctx, nil, "a")
	require.NoError(t, err)

	require.NoError(t, s.Move(ctx, a, "/renamed"))

	folders, err := s.ResolveFolders(ctx, "/renamed")
	require.NoError(t, err)
	require.Len(t, folders, 1)

	_, err = s.ResolveFolders(ctx, "/a")
	require.ErrorIs(t, err, model.ErrDoesNotExist)
}

func TestMoveJobToMissingParentErrors(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	j, err := s.CreateJob(ctx, nil, driver.JobSpec{Command: "echo hi"}, "")
	require.NoError(t, err)

	err = s.Move(ctx, j, "/nonexistent-parent/newname")
	require.ErrorIs(t, err, model.ErrDoesNotExist)
}

func TestMoveGlobBulkMovesAllMatches(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	_, err := s.Mkdir(ctx, nil, "dest")
	require.NoError(t, err)
	a, err := s.Mkdir(ctx, nil, "a")
	require.NoError(t, err)
	_, err = s.Mkdir(ctx, a, "x1")
	require.NoError(t, err)
	_, err = s.Mkdir(ctx, a, "x2")
	require.NoError(t, err)

	require.NoError(t, s.Move(ctx, "/a/x*", "/dest"))

	remaining, _, err := s.Ls(ctx, a)
	require.NoError(t, err)
	require.Empty(t, remaining)
}
