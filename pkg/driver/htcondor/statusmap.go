package htcondor

import (
	"strconv"

	"github.com/kong-job/kong/pkg/driver/batchbase"
	"github.com/kong-job/kong/pkg/model"
)

// condorStatus mirrors HTCondor's JobStatus ClassAd attribute; see
// http://pages.cs.wisc.edu/~adesmet/status.html.
const (
	condorUnexpanded = 0
	condorIdle       = 1
	condorRunning    = 2
	condorRemoved    = 3
	condorCompleted  = 4
	condorHeld       = 5
	condorSubmitErr  = 6
)

// noExitCode is the sentinel the original driver uses for "ExitCode
// attribute absent" — a job not yet finished carries no exit code.
const noExitCode = -1

// mapStatus implements spec.md §4.4's table for HTCondor: JobStatus
// maps directly to the internal enum, except COMPLETED is downgraded
// to FAILED whenever the payload's own exit code was non-zero — the
// scheduler reports "completed" at the infrastructure level even when
// the command itself failed.
func mapStatus(s batchbase.BackendStatus) (model.Status, *int) {
	code, err := strconv.Atoi(s.RawStatus)
	if err != nil {
		return model.StatusUnknown, s.ExitCode
	}

	var status model.Status
	switch code {
	case condorUnexpanded, condorIdle:
		status = model.StatusSubmitted
	case condorRunning:
		status = model.StatusRunning
	case condorRemoved, condorHeld, condorSubmitErr:
		status = model.StatusFailed
	case condorCompleted:
		status = model.StatusCompleted
	default:
		status = model.StatusUnknown
	}

	if status == model.StatusCompleted && s.ExitCode != nil && *s.ExitCode != 0 && *s.ExitCode != noExitCode {
		status = model.StatusFailed
	}
	return status, s.ExitCode
}
