/*
Package model defines Kong's core data model: the hierarchical folder
namespace and the job rows routed to it, along with the status machine
and error taxonomy shared by every other package.

# Architecture

	┌──────────────────────── DATA MODEL ───────────────────────┐
	│                                                             │
	│   Folder (tree)                                            │
	│     id, name, parent_id, created_at, updated_at            │
	│     - exactly one root (parent_id IS NULL, name "root")    │
	│     - (parent_id, name) unique                             │
	│                                                             │
	│   Job (status machine)                                     │
	│     id, batch_job_id, driver, folder_id, command,          │
	│     cores, memory, status, data, created_at, updated_at    │
	│     - (batch_job_id, driver) unique                        │
	│     - status: CREATED < SUBMITTED < RUNNING < {FAILED,     │
	│       COMPLETED, UNKNOWN}                                   │
	│                                                             │
	└─────────────────────────────────────────────────────────────┘

Folders own their direct children and jobs with cascade delete. Jobs
are routed to exactly one driver, identified by the `Driver` tag
string; the owning driver, not the row, owns the job's external
artifacts (log/output/scratch directories).
*/
package model
