package batchbase

import (
	"context"
	"time"

	"github.com/kong-job/kong/pkg/model"
)

// BackendStatus is one row of a query_many response: the back-end's
// raw view of a single submitted job.
type BackendStatus struct {
	BatchJobID string
	// RawStatus is the scheduler's own status string (e.g. "COMPLETED",
	// "CANCELLED", "RUNNING"); the concrete driver maps it to
	// model.Status via its status table.
	RawStatus string
	// ExitCode is nil when the back-end has not yet reported one.
	ExitCode *int
}

// Backend is the three-primitive surface a concrete batch driver
// implements; Base composes it into the full driver.Driver contract.
type Backend interface {
	// SubmitOne submits one prepared job (its submission files already
	// on disk) and returns the back-end's job id.
	SubmitOne(ctx context.Context, jobID int64, batchFile string) (batchJobID string, err error)

	// QueryMany returns the current back-end status of every batch job
	// id given, in one outbound call. Ids unknown to the back-end are
	// simply absent from the result, not an error.
	QueryMany(ctx context.Context, batchJobIDs []string) ([]BackendStatus, error)

	// CancelOne best-effort cancels one in-flight job.
	CancelOne(ctx context.Context, batchJobID string) error

	// MapStatus translates one BackendStatus into the internal status
	// enum, applying the driver's own scheduler-string table and the
	// exit-code-0-with-"completed" rule from spec.
	MapStatus(s BackendStatus) (status model.Status, exitCode *int)

	// DefaultPollInterval is used by Wait when the caller passes zero.
	DefaultPollInterval() time.Duration
}
