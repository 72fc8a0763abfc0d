package layout

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the resolved set of filesystem locations for one job. All
// fields are absolute paths; directories are created by EnsureDirs,
// never implicitly by a getter.
type Paths struct {
	LogDir     string
	OutputDir  string
	JobScript  string
	BatchFile  string
	Stdout     string
	Stderr     string
	ExitStatus string
	SlurmOut   string
}

// shard renders the two two-digit shard components spec.md §6
// specifies: <id/10000 % 100>/<id/100 % 100>.
func shard(id int64) (string, string) {
	return fmt.Sprintf("%02d", (id/10000)%100), fmt.Sprintf("%02d", (id/100)%100)
}

// ForJob computes Paths for a job id given the configured jobdir and
// joboutputdir roots. It performs no I/O.
func ForJob(jobdir, joboutputdir string, id int64) Paths {
	s1, s2 := shard(id)
	leaf := fmt.Sprintf("%06d", id)

	logDir := filepath.Join(jobdir, s1, s2, leaf)
	outDir := filepath.Join(joboutputdir, s1, s2, leaf)

	return Paths{
		LogDir:     logDir,
		OutputDir:  outDir,
		JobScript:  filepath.Join(logDir, "jobscript.sh"),
		BatchFile:  filepath.Join(logDir, "batchfile.sh"),
		Stdout:     filepath.Join(logDir, "stdout.txt"),
		Stderr:     filepath.Join(logDir, "stderr.txt"),
		ExitStatus: filepath.Join(logDir, "exit_status.txt"),
		SlurmOut:   filepath.Join(logDir, "slurm_out.txt"),
	}
}

// EnsureDirs creates LogDir and OutputDir (and all parents) if absent.
func (p Paths) EnsureDirs() error {
	if err := os.MkdirAll(p.LogDir, 0o755); err != nil {
		return fmt.Errorf("layout: creating log dir: %w", err)
	}
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return fmt.Errorf("layout: creating output dir: %w", err)
	}
	return nil
}

// Remove deletes LogDir and OutputDir and everything under them. It is
// idempotent: removing an already-absent directory is not an error.
func (p Paths) Remove() error {
	if err := os.RemoveAll(p.LogDir); err != nil {
		return fmt.Errorf("layout: removing log dir: %w", err)
	}
	if err := os.RemoveAll(p.OutputDir); err != nil {
		return fmt.Errorf("layout: removing output dir: %w", err)
	}
	return nil
}

// RemoveOutput deletes OutputDir and the stdout file only, leaving
// LogDir — and the submission scripts inside it — intact. A resubmit
// reuses the same job dir rather than regenerating batchfile.sh at
// submit time, so it must not remove LogDir.
func (p Paths) RemoveOutput() error {
	if err := os.RemoveAll(p.OutputDir); err != nil {
		return fmt.Errorf("layout: removing output dir: %w", err)
	}
	if err := os.Remove(p.Stdout); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("layout: removing stdout: %w", err)
	}
	return nil
}

// Env returns the KONG_* environment contract exported to every job,
// regardless of driver, as NAME=value pairs suitable for appending to
// an exec.Cmd.Env or for templating into a submission script.
func Env(jobID int64, outputDir, logDir string, nproc int, scratchDir string) []string {
	return []string{
		fmt.Sprintf("KONG_JOB_ID=%d", jobID),
		fmt.Sprintf("KONG_JOB_OUTPUT_DIR=%s", outputDir),
		fmt.Sprintf("KONG_JOB_LOG_DIR=%s", logDir),
		fmt.Sprintf("KONG_JOB_NPROC=%d", nproc),
		fmt.Sprintf("KONG_JOB_SCRATCHDIR=%s", scratchDir),
	}
}
