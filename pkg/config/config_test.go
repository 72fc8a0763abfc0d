package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kong-job/kong/pkg/config"
)

func TestLoadValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kong.yaml")
	require.NoError(t, config.Save(path, &config.Config{
		DefaultDriver: "kong.driver.local",
		JobDir:        "/data/jobs",
		JobOutputDir:  "/data/output",
		Slurm: config.SlurmConfig{
			Account:      "myacct",
			NodeSize:     16,
			DefaultQueue: "batch",
		},
	}))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "kong.driver.local", cfg.DefaultDriver)
	require.Equal(t, 1000, cfg.HistoryLength)
}

func TestLoadRejectsMissingDefaultDriver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kong.yaml")
	require.NoError(t, config.Save(path, &config.Config{
		DefaultDriver: "placeholder",
		JobDir:        "/data/jobs",
		JobOutputDir:  "/data/output",
	}))

	// Overwrite with an invalid document directly, bypassing Save's own check.
	invalid := []byte("jobdir: /data/jobs\njoboutputdir: /data/output\n")
	require.NoError(t, writeFile(path, invalid))

	_, err := config.Load(path)
	require.Error(t, err)
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
