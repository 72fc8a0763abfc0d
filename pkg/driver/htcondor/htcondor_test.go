package htcondor_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/driver/htcondor"
	"github.com/kong-job/kong/pkg/model"
	"github.com/kong-job/kong/pkg/storage"
)

// fakeExec stubs condor_submit/condor_q/condor_history/condor_rm. It
// tracks a JobStatus and optional exit code per cluster id and
// reports condor_history results only for ids explicitly "finished".
type fakeExec struct {
	nextID   int
	status   map[string]int
	exitCode map[string]int
	finished map[string]bool
	removed  map[string]bool
}

func newFakeExec() *fakeExec {
	return &fakeExec{status: map[string]int{}, exitCode: map[string]int{}, finished: map[string]bool{}, removed: map[string]bool{}}
}

func (f *fakeExec) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	switch name {
	case "condor_submit":
		f.nextID++
		id := fmt.Sprintf("%d", 2000+f.nextID)
		f.status[id] = 2 // running
		return []byte(fmt.Sprintf("Submitted job(s).\n1 job(s) submitted to cluster %s.\n", id)), nil
	case "condor_q":
		var ads []map[string]any
		for id, st := range f.status {
			if f.finished[id] {
				continue
			}
			var clusterID int
			fmt.Sscanf(id, "%d", &clusterID)
			ads = append(ads, map[string]any{"ClusterId": clusterID, "ProcId": 0, "JobStatus": st})
		}
		return jsonOf(ads), nil
	case "condor_history":
		var ads []map[string]any
		for id, st := range f.status {
			if !f.finished[id] {
				continue
			}
			var clusterID int
			fmt.Sscanf(id, "%d", &clusterID)
			ad := map[string]any{"ClusterId": clusterID, "ProcId": 0, "JobStatus": st}
			if ec, ok := f.exitCode[id]; ok {
				ad["ExitCode"] = ec
			}
			ads = append(ads, ad)
		}
		return jsonOf(ads), nil
	case "condor_rm":
		f.removed[args[0]] = true
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected command %s", name)
	}
}

func jsonOf(v any) []byte {
	if v == nil {
		return []byte("[]")
	}
	b, _ := json.Marshal(v)
	return b
}

func (f *fakeExec) finish(id string, exitCode int) {
	f.finished[id] = true
	f.status[id] = 4 // completed
	f.exitCode[id] = exitCode
}

func newTestDriver(t *testing.T) (*htcondor.Driver, *fakeExec, storage.Store) {
	t.Helper()
	store, err := storage.NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	fe := newFakeExec()
	// condor_submit creates the shared user log on first submission;
	// the fake does not, so create it here or condor_history is skipped.
	logFile := filepath.Join(t.TempDir(), "htcondor.log")
	require.NoError(t, os.WriteFile(logFile, nil, 0o644))
	backend := htcondor.NewBackend(logFile)
	backend.Exec = fe.run

	d := htcondor.New(store, backend, t.TempDir(), t.TempDir(), htcondor.Options{Universe: "vanilla"})
	return d, fe, store
}

func rootFolder(t *testing.T, store storage.Store) *model.Folder {
	t.Helper()
	f, err := store.GetFolderByParentName(context.Background(), nil, model.RootFolderName)
	require.NoError(t, err)
	return f
}

func TestSubmitAndSyncRunning(t *testing.T) {
	d, _, store := newTestDriver(t)
	ctx := context.Background()
	folder := rootFolder(t, store)

	j, err := d.CreateJob(ctx, folder, driver.JobSpec{Command: "echo hi"})
	require.NoError(t, err)
	require.NoError(t, d.BulkSubmit(ctx, []*model.Job{j}))

	synced, err := d.BulkSyncStatus(ctx, []*model.Job{j})
	require.NoError(t, err)
	require.Equal(t, model.StatusRunning, synced[0].Status)
}

func TestHistoryCompletedWithNonZeroExitIsFailed(t *testing.T) {
	d, fe, store := newTestDriver(t)
	ctx := context.Background()
	folder := rootFolder(t, store)

	j, err := d.CreateJob(ctx, folder, driver.JobSpec{Command: "echo hi"})
	require.NoError(t, err)
	require.NoError(t, d.BulkSubmit(ctx, []*model.Job{j}))

	fe.finish(*j.BatchJobID, 1)

	synced, err := d.BulkSyncStatus(ctx, []*model.Job{j})
	require.NoError(t, err)
	require.Equal(t, model.StatusFailed, synced[0].Status)
}

func TestHistoryCompletedWithZeroExitIsCompleted(t *testing.T) {
	d, fe, store := newTestDriver(t)
	ctx := context.Background()
	folder := rootFolder(t, store)

	j, err := d.CreateJob(ctx, folder, driver.JobSpec{Command: "echo hi"})
	require.NoError(t, err)
	require.NoError(t, d.BulkSubmit(ctx, []*model.Job{j}))

	fe.finish(*j.BatchJobID, 0)

	synced, err := d.BulkSyncStatus(ctx, []*model.Job{j})
	require.NoError(t, err)
	require.Equal(t, model.StatusCompleted, synced[0].Status)
}

func TestKillCancelsLiveJob(t *testing.T) {
	d, fe, store := newTestDriver(t)
	ctx := context.Background()
	folder := rootFolder(t, store)

	j, err := d.CreateJob(ctx, folder, driver.JobSpec{Command: "echo hi"})
	require.NoError(t, err)
	require.NoError(t, d.BulkSubmit(ctx, []*model.Job{j}))

	require.NoError(t, d.Kill(ctx, j))
	require.Equal(t, model.StatusFailed, j.Status)
	require.True(t, fe.removed[*j.BatchJobID])
}

func TestStderrNotImplemented(t *testing.T) {
	d, _, store := newTestDriver(t)
	ctx := context.Background()
	folder := rootFolder(t, store)

	j, err := d.CreateJob(ctx, folder, driver.JobSpec{Command: "echo hi"})
	require.NoError(t, err)

	_, err = d.Stderr(j)
	require.ErrorIs(t, err, model.ErrNotImplemented)
}
