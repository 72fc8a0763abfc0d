package driver

import (
	"fmt"

	"github.com/kong-job/kong/pkg/model"
)

// DriverMismatchError reports that a per-job operation was invoked
// against a job not routed to the calling driver. It wraps
// model.ErrDriverMismatch so callers can use errors.Is across either.
type DriverMismatchError struct {
	Expected string
	Got      string
	JobID    int64
}

func (e *DriverMismatchError) Error() string {
	return fmt.Sprintf("job %d is routed to driver %q, not %q", e.JobID, e.Got, e.Expected)
}

func (e *DriverMismatchError) Unwrap() error {
	return model.ErrDriverMismatch
}

// InvalidStatusError reports that a job's current status does not
// satisfy an operation's precondition.
type InvalidStatusError struct {
	JobID   int64
	Current model.Status
	Op      string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("job %d: cannot %s from status %s", e.JobID, e.Op, e.Current)
}

func (e *InvalidStatusError) Unwrap() error {
	return model.ErrInvalidJobStatus
}
