package batchbase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/driver/batchbase"
	"github.com/kong-job/kong/pkg/model"
	"github.com/kong-job/kong/pkg/storage"
)

const testTag = "kong.driver.testbatch"

// fakeBackend is a Backend stub whose three primitives operate purely
// in memory, letting tests drive wait/resubmit/cleanup without a real
// scheduler.
type fakeBackend struct {
	mu          sync.Mutex
	nextID      int
	rawStatus   map[string]string
	exitCode    map[string]*int
	cancelled   map[string]bool
	submitCalls int
	queryCalls  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		rawStatus: make(map[string]string),
		exitCode:  make(map[string]*int),
		cancelled: make(map[string]bool),
	}
}

func (f *fakeBackend) SubmitOne(ctx context.Context, jobID int64, batchFile string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.submitCalls++
	id := "batch-" + time.Now().Format("150405") + "-" + string(rune('a'+f.nextID))
	f.rawStatus[id] = "RUNNING"
	return id, nil
}

func (f *fakeBackend) QueryMany(ctx context.Context, batchJobIDs []string) ([]batchbase.BackendStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	out := make([]batchbase.BackendStatus, 0, len(batchJobIDs))
	for _, id := range batchJobIDs {
		status, ok := f.rawStatus[id]
		if !ok {
			continue
		}
		out = append(out, batchbase.BackendStatus{BatchJobID: id, RawStatus: status, ExitCode: f.exitCode[id]})
	}
	return out, nil
}

func (f *fakeBackend) CancelOne(ctx context.Context, batchJobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled[batchJobID] = true
	f.rawStatus[batchJobID] = "CANCELLED"
	return nil
}

func (f *fakeBackend) MapStatus(s batchbase.BackendStatus) (model.Status, *int) {
	switch s.RawStatus {
	case "RUNNING":
		return model.StatusRunning, nil
	case "CANCELLED":
		return model.StatusFailed, nil
	case "COMPLETED":
		if s.ExitCode != nil && *s.ExitCode == 0 {
			return model.StatusCompleted, s.ExitCode
		}
		return model.StatusFailed, s.ExitCode
	default:
		return model.StatusUnknown, nil
	}
}

func (f *fakeBackend) DefaultPollInterval() time.Duration { return 10 * time.Millisecond }

// finish marks a batch job id completed with the given exit code, as
// if the scheduler accounting system had caught up.
func (f *fakeBackend) finish(batchJobID string, exitCode int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rawStatus[batchJobID] = "COMPLETED"
	ec := exitCode
	f.exitCode[batchJobID] = &ec
}

func newTestBase(t *testing.T, backend batchbase.Backend) (batchbase.Base, storage.Store) {
	t.Helper()
	store, err := storage.NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	base := batchbase.New(testTag, store, backend, t.TempDir(), t.TempDir())
	return base, store
}

func newCreatedJob(t *testing.T, store storage.Store) *model.Job {
	t.Helper()
	ctx := context.Background()
	root, err := store.GetFolderByParentName(ctx, nil, model.RootFolderName)
	require.NoError(t, err)
	job := &model.Job{Driver: testTag, FolderID: root.ID, Command: "echo hi"}
	require.NoError(t, store.CreateJob(ctx, job))
	return job
}

func TestBulkSubmitTransitionsToSubmitted(t *testing.T) {
	backend := newFakeBackend()
	base, store := newTestBase(t, backend)
	ctx := context.Background()

	j1 := newCreatedJob(t, store)
	j2 := newCreatedJob(t, store)

	require.NoError(t, base.BulkSubmit(ctx, []*model.Job{j1, j2}))

	for _, j := range []*model.Job{j1, j2} {
		require.Equal(t, model.StatusSubmitted, j.Status)
		require.NotNil(t, j.BatchJobID)
	}
	require.Equal(t, 2, backend.submitCalls)
}

func TestBulkSubmitRejectsNonCreated(t *testing.T) {
	backend := newFakeBackend()
	base, store := newTestBase(t, backend)
	ctx := context.Background()

	j := newCreatedJob(t, store)
	require.NoError(t, base.BulkSubmit(ctx, []*model.Job{j}))

	err := base.BulkSubmit(ctx, []*model.Job{j})
	require.Error(t, err)
	var invalid *driver.InvalidStatusError
	require.ErrorAs(t, err, &invalid)
}

func TestBulkKillMarksFailedAndCancels(t *testing.T) {
	backend := newFakeBackend()
	base, store := newTestBase(t, backend)
	ctx := context.Background()

	j := newCreatedJob(t, store)
	require.NoError(t, base.BulkSubmit(ctx, []*model.Job{j}))

	require.NoError(t, base.BulkKill(ctx, []*model.Job{j}))
	require.Equal(t, model.StatusFailed, j.Status)
	require.True(t, backend.cancelled[*j.BatchJobID])
}

func TestWaitDrainsUntilTerminal(t *testing.T) {
	backend := newFakeBackend()
	base, store := newTestBase(t, backend)
	ctx := context.Background()

	j := newCreatedJob(t, store)
	require.NoError(t, base.BulkSubmit(ctx, []*model.Job{j}))

	go func() {
		time.Sleep(30 * time.Millisecond)
		backend.finish(*j.BatchJobID, 0)
	}()

	it, err := base.Wait(ctx, []*model.Job{j}, 10*time.Millisecond, time.Second)
	require.NoError(t, err)

	final, err := driver.Drain(it)
	require.NoError(t, err)
	require.Len(t, final, 1)
	require.Equal(t, model.StatusCompleted, final[0].Status)
}

func TestWaitRejectsCreatedJob(t *testing.T) {
	backend := newFakeBackend()
	base, store := newTestBase(t, backend)
	ctx := context.Background()

	j := newCreatedJob(t, store)
	_, err := base.Wait(ctx, []*model.Job{j}, time.Millisecond, time.Second)
	require.Error(t, err)
}

func TestBulkResubmitResetsToCreatedAndResubmits(t *testing.T) {
	backend := newFakeBackend()
	base, store := newTestBase(t, backend)
	ctx := context.Background()

	j := newCreatedJob(t, store)
	require.NoError(t, base.BulkSubmit(ctx, []*model.Job{j}))
	backend.finish(*j.BatchJobID, 1)
	_, err := base.SyncStatus(ctx, j)
	require.NoError(t, err)
	require.Equal(t, model.StatusFailed, j.Status)

	require.NoError(t, base.BulkResubmit(ctx, []*model.Job{j}, true))
	require.Equal(t, model.StatusSubmitted, j.Status)
	require.NotNil(t, j.BatchJobID)
}

func TestBulkResubmitRejectsLiveJob(t *testing.T) {
	backend := newFakeBackend()
	base, store := newTestBase(t, backend)
	ctx := context.Background()

	j := newCreatedJob(t, store)
	require.NoError(t, base.BulkSubmit(ctx, []*model.Job{j}))

	err := base.BulkResubmit(ctx, []*model.Job{j}, true)
	require.Error(t, err)
}

func TestBulkCleanupRejectsLiveJob(t *testing.T) {
	backend := newFakeBackend()
	base, store := newTestBase(t, backend)
	ctx := context.Background()

	j := newCreatedJob(t, store)
	require.NoError(t, base.BulkSubmit(ctx, []*model.Job{j}))

	err := base.BulkCleanup(ctx, []*model.Job{j}, driver.SerialExecutor{})
	require.Error(t, err)
}

func TestBulkRemoveDeletesRows(t *testing.T) {
	backend := newFakeBackend()
	base, store := newTestBase(t, backend)
	ctx := context.Background()

	j := newCreatedJob(t, store)
	require.NoError(t, base.BulkRemove(ctx, []*model.Job{j}, true))

	_, err := store.GetJob(ctx, j.ID)
	require.ErrorIs(t, err, model.ErrDoesNotExist)
}
