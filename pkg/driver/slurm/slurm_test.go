package slurm_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/driver/slurm"
	"github.com/kong-job/kong/pkg/model"
	"github.com/kong-job/kong/pkg/storage"
)

// fakeExec stubs sbatch/sacct/scancel so the driver can be exercised
// without a real cluster, same seam strategy as batchbase's
// fakeBackend.
type fakeExec struct {
	nextID    int
	state     map[string]string
	exitCode  map[string]int
	cancelled map[string]bool
}

func newFakeExec() *fakeExec {
	return &fakeExec{state: map[string]string{}, exitCode: map[string]int{}, cancelled: map[string]bool{}}
}

func (f *fakeExec) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	switch name {
	case "sbatch":
		f.nextID++
		id := fmt.Sprintf("%d", 1000+f.nextID)
		f.state[id] = "RUNNING"
		return []byte(fmt.Sprintf("Submitted batch job %s\n", id)), nil
	case "sacct":
		var out string
		for id, st := range f.state {
			ec := f.exitCode[id]
			out += fmt.Sprintf("%s|%s|%d:0|\n", id, st, ec)
		}
		return []byte(out), nil
	case "scancel":
		id := args[0]
		f.cancelled[id] = true
		f.state[id] = "CANCELLED by 1000"
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected command %s", name)
	}
}

func (f *fakeExec) finish(id string, exitCode int) {
	f.state[id] = "COMPLETED"
	f.exitCode[id] = exitCode
}

func newTestDriver(t *testing.T) (*slurm.Driver, *fakeExec, storage.Store) {
	t.Helper()
	store, err := storage.NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	fe := newFakeExec()
	backend := slurm.NewBackend()
	backend.Exec = fe.run

	d := slurm.New(store, backend, t.TempDir(), t.TempDir(), slurm.Options{Account: "acct1", Queue: "batch"})
	return d, fe, store
}

func rootFolder(t *testing.T, store storage.Store) *model.Folder {
	t.Helper()
	f, err := store.GetFolderByParentName(context.Background(), nil, model.RootFolderName)
	require.NoError(t, err)
	return f
}

func TestBulkSubmitFifteenJobsAllRunning(t *testing.T) {
	d, _, store := newTestDriver(t)
	ctx := context.Background()
	folder := rootFolder(t, store)

	var jobs []*model.Job
	for i := 0; i < 15; i++ {
		j, err := d.CreateJob(ctx, folder, driver.JobSpec{Command: "echo hi", Cores: 1})
		require.NoError(t, err)
		jobs = append(jobs, j)
	}

	require.NoError(t, d.BulkSubmit(ctx, jobs))
	for _, j := range jobs {
		require.Equal(t, model.StatusSubmitted, j.Status)
	}

	synced, err := d.BulkSyncStatus(ctx, jobs)
	require.NoError(t, err)
	for _, j := range synced {
		require.Equal(t, model.StatusRunning, j.Status)
	}
}

func TestBulkSyncStatusSplitsCompletedAndFailed(t *testing.T) {
	d, fe, store := newTestDriver(t)
	ctx := context.Background()
	folder := rootFolder(t, store)

	var jobs []*model.Job
	for i := 0; i < 15; i++ {
		j, err := d.CreateJob(ctx, folder, driver.JobSpec{Command: "echo hi", Cores: 1})
		require.NoError(t, err)
		jobs = append(jobs, j)
	}
	require.NoError(t, d.BulkSubmit(ctx, jobs))

	for i, j := range jobs {
		if i < 6 {
			fe.finish(*j.BatchJobID, 0)
		} else {
			fe.finish(*j.BatchJobID, 1)
		}
	}

	synced, err := d.BulkSyncStatus(ctx, jobs)
	require.NoError(t, err)
	for i, j := range synced {
		if i < 6 {
			require.Equal(t, model.StatusCompleted, j.Status)
		} else {
			require.Equal(t, model.StatusFailed, j.Status)
		}
	}
}

func TestBulkSyncStatusIgnoresUnknownBatchID(t *testing.T) {
	d, _, store := newTestDriver(t)
	ctx := context.Background()
	folder := rootFolder(t, store)

	j, err := d.CreateJob(ctx, folder, driver.JobSpec{Command: "echo hi"})
	require.NoError(t, err)
	require.NoError(t, d.BulkSubmit(ctx, []*model.Job{j}))

	// Point the batch id at something sacct has never heard of.
	bogus := "999999"
	j.BatchJobID = &bogus

	synced, err := d.BulkSyncStatus(ctx, []*model.Job{j})
	require.NoError(t, err)
	require.Equal(t, model.StatusSubmitted, synced[0].Status)
}

func TestKillCancelsAndMarksFailed(t *testing.T) {
	d, fe, store := newTestDriver(t)
	ctx := context.Background()
	folder := rootFolder(t, store)

	j, err := d.CreateJob(ctx, folder, driver.JobSpec{Command: "echo hi"})
	require.NoError(t, err)
	require.NoError(t, d.BulkSubmit(ctx, []*model.Job{j}))

	require.NoError(t, d.Kill(ctx, j))
	require.Equal(t, model.StatusFailed, j.Status)
	require.True(t, fe.cancelled[*j.BatchJobID])
}

func TestWalltimeRejectsAtThreshold(t *testing.T) {
	_, err := slurm.ParseWalltime("100:00:00")
	require.Error(t, err)

	d, err2 := slurm.ParseWalltime("99:59:59")
	require.NoError(t, err2)
	require.Less(t, d, 100*time.Hour)
}

func TestWalltimeAcceptsGoDuration(t *testing.T) {
	d, err := slurm.ParseWalltime("2h30m")
	require.NoError(t, err)
	require.Equal(t, 2*time.Hour+30*time.Minute, d)
}

func TestBulkResubmitScopesUpdateToGivenJobs(t *testing.T) {
	// Guards against the REDESIGN FLAG bug: an unscoped bulk_resubmit
	// reset every row in the store, not just the resubmitted set.
	d, _, store := newTestDriver(t)
	ctx := context.Background()
	folder := rootFolder(t, store)

	victim, err := d.CreateJob(ctx, folder, driver.JobSpec{Command: "echo victim"})
	require.NoError(t, err)
	require.NoError(t, d.BulkSubmit(ctx, []*model.Job{victim}))

	target, err := d.CreateJob(ctx, folder, driver.JobSpec{Command: "echo target"})
	require.NoError(t, err)
	require.NoError(t, d.BulkSubmit(ctx, []*model.Job{target}))
	require.NoError(t, d.BulkKill(ctx, []*model.Job{target}))
	require.Equal(t, model.StatusFailed, target.Status)

	require.NoError(t, d.BulkResubmit(ctx, []*model.Job{target}, false))
	require.Equal(t, model.StatusCreated, target.Status)

	reloadedVictim, err := store.GetJob(ctx, victim.ID)
	require.NoError(t, err)
	require.NotEqual(t, model.StatusCreated, reloadedVictim.Status)
}
