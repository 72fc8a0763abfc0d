package slurm

import (
	"strings"

	"github.com/kong-job/kong/pkg/driver/batchbase"
	"github.com/kong-job/kong/pkg/model"
)

// mapStatus implements spec.md §4.4's table: strings outside the
// table map to UNKNOWN; exit 0 with "COMPLETED" is COMPLETED, any
// other exit with "COMPLETED" is FAILED (a scheduler reporting success
// at the infrastructure level despite a non-zero payload exit is still
// a failed job); anything beginning "CANCELLED" (sacct emits
// "CANCELLED by <uid>" for operator kills) is FAILED. A queued job
// (PENDING) hasn't started yet and is reported SUBMITTED, not RUNNING.
func mapStatus(s batchbase.BackendStatus) (model.Status, *int) {
	raw := strings.TrimSpace(s.RawStatus)
	switch {
	case raw == "PENDING":
		return model.StatusSubmitted, nil
	case raw == "RUNNING", raw == "CONFIGURING", raw == "COMPLETING":
		return model.StatusRunning, nil
	case strings.HasPrefix(raw, "CANCELLED"):
		return model.StatusFailed, s.ExitCode
	case raw == "COMPLETED":
		if s.ExitCode != nil && *s.ExitCode == 0 {
			return model.StatusCompleted, s.ExitCode
		}
		return model.StatusFailed, s.ExitCode
	case raw == "FAILED", raw == "TIMEOUT", raw == "OUT_OF_MEMORY", raw == "NODE_FAIL":
		return model.StatusFailed, s.ExitCode
	default:
		return model.StatusUnknown, nil
	}
}
