package model

import "errors"

// Sentinel errors shared across storage, driver and session packages.
// Callers use errors.Is to test for them even after they've been
// wrapped with fmt.Errorf("...: %w", err).
var (
	// ErrDoesNotExist is returned when a path or id resolves to
	// nothing.
	ErrDoesNotExist = errors.New("kong: does not exist")

	// ErrCannotCreate is returned when a folder or job creation
	// request violates an invariant (bad name, duplicate sibling...).
	ErrCannotCreate = errors.New("kong: cannot create")

	// ErrCannotRemoveRoot is returned by any attempt to remove the
	// root folder.
	ErrCannotRemoveRoot = errors.New("kong: cannot remove root folder")

	// ErrCannotRemoveIsFolder is returned when rm targets a folder
	// without the recursive flag set.
	ErrCannotRemoveIsFolder = errors.New("kong: target is a folder, recursive required")

	// ErrInvalidJobStatus is returned when an operation's status
	// precondition isn't met (e.g. submit on a non-CREATED job).
	ErrInvalidJobStatus = errors.New("kong: invalid job status for operation")

	// ErrDriverMismatch is returned when a per-job driver operation
	// is invoked against a job routed to a different driver.
	ErrDriverMismatch = errors.New("kong: job is not routed to this driver")

	// ErrTimeout is returned by Wait when the deadline elapses before
	// every job reaches a terminal status.
	ErrTimeout = errors.New("kong: wait timed out")

	// ErrInvalidSelector is returned for malformed path/range
	// selector expressions.
	ErrInvalidSelector = errors.New("kong: invalid selector")

	// ErrNotImplemented is returned by drivers whose back-end cannot
	// support an operation at all (e.g. HTCondor's unified stdout/
	// stderr stream under some universes).
	ErrNotImplemented = errors.New("kong: not implemented by this driver")
)
