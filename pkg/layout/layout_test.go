package layout_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kong-job/kong/pkg/layout"
)

func TestForJobShards(t *testing.T) {
	p := layout.ForJob("/data/jobs", "/data/output", 123456)
	require.Equal(t, filepath.Join("/data/jobs", "12", "34", "123456"), p.LogDir)
	require.Equal(t, filepath.Join("/data/output", "12", "34", "123456"), p.OutputDir)
	require.Equal(t, filepath.Join(p.LogDir, "jobscript.sh"), p.JobScript)
}

func TestForJobSmallID(t *testing.T) {
	p := layout.ForJob("/data/jobs", "/data/output", 7)
	require.Equal(t, filepath.Join("/data/jobs", "00", "00", "000007"), p.LogDir)
}

func TestEnsureAndRemoveDirs(t *testing.T) {
	root := t.TempDir()
	p := layout.ForJob(filepath.Join(root, "jobs"), filepath.Join(root, "out"), 1)
	require.NoError(t, p.EnsureDirs())

	_, err := os.Stat(p.LogDir)
	require.NoError(t, err)
	_, err = os.Stat(p.OutputDir)
	require.NoError(t, err)

	require.NoError(t, p.Remove())
	_, err = os.Stat(p.LogDir)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, p.Remove())
}

func TestEnv(t *testing.T) {
	env := layout.Env(42, "/out", "/log", 4, "/scratch")
	require.Contains(t, env, "KONG_JOB_ID=42")
	require.Contains(t, env, "KONG_JOB_NPROC=4")
	require.Contains(t, env, "KONG_JOB_SCRATCHDIR=/scratch")
}
