/*
Package storage provides SQLite-backed state persistence for Kong's
folder/job namespace.

Unlike Warren's bbolt (a key-value B+tree), the folder/job namespace
needs genuine relational semantics: recursive descent over an
arbitrary-depth tree, a uniqueness constraint spanning two columns,
and bulk re-reads chunked on primary key. Those are SQL's job, so
storage uses `database/sql` over github.com/ncruces/go-sqlite3 (a
cgo-free, WASM-embedded SQLite build) instead.

# Architecture

	┌───────────────────── SQLITE STORAGE ──────────────────────┐
	│                                                             │
	│   Store (interface)                                        │
	│     Folder CRUD + recursive descent                         │
	│     Job CRUD + bulk create/read/update/delete                │
	│     WithTx(func(Tx) error) — atomic multi-row writes         │
	│                                                             │
	│   SQLiteStore                                               │
	│     File: <dataDir>/kong.db                                  │
	│     journal_mode=WAL, foreign_keys=ON                        │
	│     folder(id, name, parent_id, created_at, updated_at)      │
	│       UNIQUE(parent_id, name)                                │
	│     job(id, batch_job_id, driver, folder_id, command,        │
	│         cores, memory, status, data, created_at, updated_at) │
	│       UNIQUE(batch_job_id, driver)                            │
	│                                                             │
	└─────────────────────────────────────────────────────────────┘

Recursive descent (folders and jobs under a subtree) is implemented
with a `WITH RECURSIVE` common table expression, the same query SQLite
has supported since 3.8.3; callers never fall back to in-memory
recursion because every store this package targets supports it, but
the Store interface documents the fallback so a future non-recursive
backend can still satisfy it.

Bulk writes run inside the caller's `WithTx` transaction:
`BulkDeleteJobs` batches `WHERE id IN (...)` chunks to keep under
SQLite's default parameter limit, and `BulkUpdateJobs` issues one
UPDATE per job, in chunks of UpdateChunkSize. A bulk write is durable
up to whatever transaction committed before a failure.
*/
package storage
