package grid

import (
	"github.com/kong-job/kong/pkg/driver/batchbase"
	"github.com/kong-job/kong/pkg/model"
)

// statusTable is a direct port of the original driver's map_status:
// Panda task states grouped into Kong's smaller status enum. States
// outside the table map to UNKNOWN.
var statusTable = map[string]model.Status{
	"done": model.StatusCompleted,

	"broken":    model.StatusFailed,
	"failed":    model.StatusFailed,
	"finished":  model.StatusFailed,
	"aborting":  model.StatusFailed,
	"aborted":   model.StatusFailed,
	"finishing": model.StatusFailed,
	"tobroken":  model.StatusFailed,
	"exhausted": model.StatusFailed,
	"passed":    model.StatusFailed,

	"registered":    model.StatusSubmitted,
	"defined":       model.StatusSubmitted,
	"assigning":     model.StatusSubmitted,
	"ready":         model.StatusSubmitted,
	"pending":       model.StatusSubmitted,
	"scouting":      model.StatusSubmitted,
	"scouted":       model.StatusSubmitted,
	"topreprocess":  model.StatusSubmitted,
	"preprocessing": model.StatusSubmitted,
	"toretry":       model.StatusSubmitted,
	"toincexec":     model.StatusSubmitted,
	"rerefine":      model.StatusSubmitted,
	"paused":        model.StatusSubmitted,
	"throttled":     model.StatusSubmitted,

	"running":  model.StatusRunning,
	"prepared": model.StatusRunning,
}

// mapStatus applies statusTable. The original's two failure-escalation
// rules (reported dataset file failures, or a "scoutinghascritfailures"
// flag, force FAILED) are applied earlier, in Backend.QueryMany, which
// rewrites the raw status to "failed" before it reaches this table.
func mapStatus(s batchbase.BackendStatus) (model.Status, *int) {
	status, ok := statusTable[s.RawStatus]
	if !ok {
		status = model.StatusUnknown
	}
	return status, s.ExitCode
}
