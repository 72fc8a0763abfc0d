package model

import (
	"fmt"
	"time"
)

// JobData is the opaque, driver-owned key-value map carried on every
// job row. Its contents are entirely the concern of the driver that
// created the row; storage only guarantees it round-trips unchanged.
type JobData map[string]any

// Clone returns a deep-enough copy for safe independent mutation — the
// values JobData holds are themselves JSON-shaped (strings, numbers,
// bools, nested maps/slices from decoding), so a shallow top-level
// copy plus recursive copy of map/slice values is sufficient.
func (d JobData) Clone() JobData {
	if d == nil {
		return nil
	}
	out := make(JobData, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = cloneValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = cloneValue(vv)
		}
		return out
	default:
		return v
	}
}

// ExitCode returns the exit_code entry from Data, if present and an
// integer-shaped value (json.Unmarshal into any produces float64).
func (d JobData) ExitCode() (int, bool) {
	v, ok := d["exit_code"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

// Job is a single persisted work item, routed to exactly one driver.
// job_id is the user-visible local handle; batch_job_id is the
// back-end's handle, unknown until submission for drivers that assign
// it then.
type Job struct {
	ID          int64
	BatchJobID  *string
	Driver      string
	FolderID    int64
	Command     string
	Cores       int
	Memory      int64 // bytes
	Status      Status
	Data        JobData
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the invariants a row must satisfy before it is ever
// persisted: non-empty command, a driver tag, and a folder to live in.
func (j *Job) Validate() error {
	if j.Command == "" {
		return fmt.Errorf("%w: job command must not be empty", ErrCannotCreate)
	}
	if j.Driver == "" {
		return fmt.Errorf("%w: job must have a driver", ErrCannotCreate)
	}
	if j.FolderID == 0 {
		return fmt.Errorf("%w: job must belong to a folder", ErrCannotCreate)
	}
	return nil
}

// Touch advances UpdatedAt, refusing to ever move it backwards — the
// spec requires updated_at be monotonically non-decreasing within a
// row's lifetime.
func (j *Job) Touch(now time.Time) {
	if now.After(j.UpdatedAt) {
		j.UpdatedAt = now
	}
}
