package htcondor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"github.com/kong-job/kong/pkg/driver/batchbase"
	"github.com/kong-job/kong/pkg/log"
	"github.com/kong-job/kong/pkg/model"
)

// Backend shells out to condor_submit/condor_q/condor_history/condor_rm.
// Exec is a seam tests replace, same indirection as the Slurm backend.
type Backend struct {
	Exec    func(ctx context.Context, name string, args ...string) (stdout []byte, err error)
	LogFile string
}

// NewBackend returns a Backend that runs the real condor_* binaries,
// reading the shared user log at logFile for condor_history.
func NewBackend(logFile string) *Backend {
	warnIfLogFileLarge(logFile)
	return &Backend{Exec: runCommand, LogFile: logFile}
}

// largeLogThreshold is the size past which the shared user log risks
// losing finished-but-unsynced jobs to condor_history's -limit cutoff.
const largeLogThreshold = 50 * 1000 * 1000

func warnIfLogFileLarge(logFile string) {
	info, err := os.Stat(logFile)
	if err != nil {
		return
	}
	if info.Size() > largeLogThreshold {
		log.WithDriver(Tag).Warn().Str("log_file", logFile).Int64("size_bytes", info.Size()).
			Msg("htcondor shared user log is large; finished-but-unsynced jobs may stop reconciling past this size")
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// classAd is the subset of HTCondor's JSON ClassAd projection this
// driver reads: ClusterId identifies the job, ProcId is always 0
// (single-job clusters are the only shape Kong submits), JobStatus is
// the scheduler state, ExitCode is absent until the job finishes.
type classAd struct {
	ClusterId int  `json:"ClusterId"`
	ProcId    int  `json:"ProcId"`
	JobStatus int  `json:"JobStatus"`
	ExitCode  *int `json:"ExitCode"`
}

var submitClusterRe = regexp.MustCompile(`(\d+)\.\s*$`)

// SubmitOne runs `condor_submit <batchFile>` and parses the cluster id
// off the trailing "... submitted to cluster N." line.
func (b *Backend) SubmitOne(ctx context.Context, jobID int64, batchFile string) (string, error) {
	out, err := b.Exec(ctx, "condor_submit", batchFile)
	if err != nil {
		return "", fmt.Errorf("condor_submit: %w: %s", err, string(out))
	}
	m := submitClusterRe.FindSubmatch(bytes.TrimRight(out, "\n"))
	if m == nil {
		return "", fmt.Errorf("condor_submit: could not parse cluster id from output: %q", string(out))
	}
	return string(m[1]), nil
}

// QueryMany merges the live set (condor_q) with the finished set
// (condor_history against the shared user log), same
// itertools.chain(condor_q(), condor_history()) order as the original
// driver — a cluster id present in both has its condor_history entry
// win, since that scan runs second.
func (b *Backend) QueryMany(ctx context.Context, batchJobIDs []string) ([]batchbase.BackendStatus, error) {
	if len(batchJobIDs) == 0 {
		return nil, nil
	}
	wanted := make(map[string]bool, len(batchJobIDs))
	for _, id := range batchJobIDs {
		wanted[id] = true
	}

	merged := make(map[string]classAd)

	live, err := b.condorQ(ctx)
	if err != nil {
		return nil, err
	}
	for _, ad := range live {
		merged[strconv.Itoa(ad.ClusterId)] = ad
	}

	finished, err := b.condorHistory(ctx)
	if err != nil {
		return nil, err
	}
	for _, ad := range finished {
		merged[strconv.Itoa(ad.ClusterId)] = ad
	}

	results := make([]batchbase.BackendStatus, 0, len(wanted))
	for id, ad := range merged {
		if !wanted[id] {
			continue
		}
		exitCode := ad.ExitCode
		if exitCode == nil {
			nc := noExitCode
			exitCode = &nc
		}
		results = append(results, batchbase.BackendStatus{
			BatchJobID: id,
			RawStatus:  strconv.Itoa(ad.JobStatus),
			ExitCode:   exitCode,
		})
	}
	return results, nil
}

func (b *Backend) condorQ(ctx context.Context) ([]classAd, error) {
	out, err := b.Exec(ctx, "condor_q", "-attributes", "ClusterId,ProcId,JobStatus", "-json")
	if err != nil {
		return nil, fmt.Errorf("condor_q: %w: %s", err, string(out))
	}
	return parseClassAds(out)
}

func (b *Backend) condorHistory(ctx context.Context) ([]classAd, error) {
	if _, err := os.Stat(b.LogFile); err != nil {
		return nil, nil // no userlog yet; nothing has ever been submitted
	}
	out, err := b.Exec(ctx, "condor_history",
		"-userlog", b.LogFile,
		"-attributes", "ClusterId,ProcId,JobStatus,ExitCode",
		"-json", "-limit", "10000")
	if err != nil {
		return nil, fmt.Errorf("condor_history: %w: %s", err, string(out))
	}
	return parseClassAds(out)
}

func parseClassAds(out []byte) ([]classAd, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var ads []classAd
	if err := json.Unmarshal(trimmed, &ads); err != nil {
		return nil, fmt.Errorf("parsing condor JSON output: %w", err)
	}
	return ads, nil
}

// CancelOne runs `condor_rm <batchJobID>`.
func (b *Backend) CancelOne(ctx context.Context, batchJobID string) error {
	out, err := b.Exec(ctx, "condor_rm", batchJobID)
	if err != nil {
		return fmt.Errorf("condor_rm: %w: %s", err, string(out))
	}
	return nil
}

// MapStatus applies the condor-status table (see statusmap.go).
func (b *Backend) MapStatus(s batchbase.BackendStatus) (model.Status, *int) {
	return mapStatus(s)
}

func (b *Backend) DefaultPollInterval() time.Duration {
	return 20 * time.Second
}

var _ batchbase.Backend = (*Backend)(nil)
