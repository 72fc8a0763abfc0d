/*
Package driver defines the capability surface every batch back-end
must implement, plus the small set of error values and helper types
(job specs, the pluggable Executor, and the driver registry) shared
across concrete drivers.

# Architecture

	┌─────────────────────── DRIVER INTERFACE ──────────────────┐
	│                                                             │
	│   Driver                                                    │
	│     CreateJob / BulkCreateJobs                               │
	│     SyncStatus / BulkSyncStatus                               │
	│     Submit / BulkSubmit                                       │
	│     Kill / BulkKill                                           │
	│     Wait                                                      │
	│     Resubmit / BulkResubmit                                   │
	│     Cleanup / BulkCleanup                                     │
	│     Remove / BulkRemove                                       │
	│     Stdout / Stderr                                           │
	│                                                             │
	│   Registry: tag (e.g. "kong.driver.local") → Driver          │
	│   registered once at program start — no reflective loading.  │
	│                                                             │
	└─────────────────────────────────────────────────────────────┘

Every per-job method on a concrete driver must begin by checking that
the job's Driver tag matches the driver's own; ErrDriverMismatch is
the single point that prevents mixing drivers, per spec.
*/
package driver
