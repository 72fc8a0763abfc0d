package slurm

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/kong-job/kong/pkg/driver/batchbase"
	"github.com/kong-job/kong/pkg/model"
)

// Backend shells out to the real Slurm client commands. Exec is a
// seam tests replace to stub sbatch/sacct/scancel without a real
// cluster, the same way the pack's condor launcher keeps
// exec.Command calls behind a small indirection.
type Backend struct {
	Exec func(ctx context.Context, name string, args ...string) (stdout []byte, err error)
}

// NewBackend returns a Backend that runs the real Slurm binaries.
func NewBackend() *Backend {
	return &Backend{Exec: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// SubmitOne runs `sbatch <batchFile>` and parses the "Submitted batch
// job <id>" response sbatch prints on success.
func (b *Backend) SubmitOne(ctx context.Context, jobID int64, batchFile string) (string, error) {
	out, err := b.Exec(ctx, "sbatch", batchFile)
	if err != nil {
		return "", fmt.Errorf("sbatch: %w: %s", err, string(out))
	}
	fields := strings.Fields(string(out))
	for i, f := range fields {
		if f == "job" && i+1 < len(fields) {
			return fields[i+1], nil
		}
	}
	return "", fmt.Errorf("sbatch: could not parse batch job id from output: %q", string(out))
}

// QueryMany shells out to `sacct -p`, whose pipe-delimited output
// carries one row per batch_job_id queried (plus ".batch"/".extern"
// sub-step rows, which are skipped — only the bare id row is the
// job's own status).
func (b *Backend) QueryMany(ctx context.Context, batchJobIDs []string) ([]batchbase.BackendStatus, error) {
	if len(batchJobIDs) == 0 {
		return nil, nil
	}
	args := []string{"-p", "--noheader", "--format=JobID,State,ExitCode", "--jobs=" + strings.Join(batchJobIDs, ",")}
	out, err := b.Exec(ctx, "sacct", args...)
	if err != nil {
		return nil, fmt.Errorf("sacct: %w: %s", err, string(out))
	}

	wanted := make(map[string]bool, len(batchJobIDs))
	for _, id := range batchJobIDs {
		wanted[id] = true
	}

	var results []batchbase.BackendStatus
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "|")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 3 {
			continue
		}
		jobID, state, exitField := fields[0], fields[1], fields[2]
		if !wanted[jobID] {
			continue // a ".batch"/".extern" sub-step row, or an id we didn't ask for
		}
		results = append(results, batchbase.BackendStatus{
			BatchJobID: jobID,
			RawStatus:  strings.TrimSpace(state),
			ExitCode:   parseExitCode(exitField),
		})
	}
	return results, nil
}

// parseExitCode parses sacct's "ExitCode" column, formatted
// "<exit>:<signal>".
func parseExitCode(field string) *int {
	parts := strings.SplitN(field, ":", 2)
	code, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil
	}
	return &code
}

// CancelOne runs `scancel <batchJobID>`.
func (b *Backend) CancelOne(ctx context.Context, batchJobID string) error {
	out, err := b.Exec(ctx, "scancel", batchJobID)
	if err != nil {
		return fmt.Errorf("scancel: %w: %s", err, string(out))
	}
	return nil
}

// MapStatus applies the scheduler-status-string table from spec.md
// §4.4 (see statusmap.go).
func (b *Backend) MapStatus(s batchbase.BackendStatus) (model.Status, *int) {
	return mapStatus(s)
}

func (b *Backend) DefaultPollInterval() time.Duration {
	return 15 * time.Second
}

var _ batchbase.Backend = (*Backend)(nil)
