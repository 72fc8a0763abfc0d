package storage

const schemaSQL = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS folder (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	parent_id  INTEGER REFERENCES folder(id) ON DELETE CASCADE,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	UNIQUE(parent_id, name)
);

-- Only one row may have a NULL parent_id: the root folder.
CREATE UNIQUE INDEX IF NOT EXISTS folder_single_root
	ON folder ((parent_id IS NULL))
	WHERE parent_id IS NULL;

CREATE TABLE IF NOT EXISTS job (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_job_id  TEXT,
	driver        TEXT NOT NULL,
	folder_id     INTEGER NOT NULL REFERENCES folder(id) ON DELETE CASCADE,
	command       TEXT NOT NULL,
	cores         INTEGER NOT NULL DEFAULT 1,
	memory        INTEGER NOT NULL DEFAULT 0,
	status        INTEGER NOT NULL DEFAULT 0,
	data          TEXT NOT NULL DEFAULT '{}',
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	UNIQUE(batch_job_id, driver)
);

CREATE INDEX IF NOT EXISTS job_folder_id ON job(folder_id);
CREATE INDEX IF NOT EXISTS job_status ON job(status);
`

// recursiveDescendantFoldersSQL returns every folder transitively
// under the bound root id, not including the root itself.
const recursiveDescendantFoldersSQL = `
WITH RECURSIVE subtree(id) AS (
	SELECT id FROM folder WHERE parent_id = ?
	UNION ALL
	SELECT f.id FROM folder f JOIN subtree s ON f.parent_id = s.id
)
SELECT f.id, f.name, f.parent_id, f.created_at, f.updated_at
FROM folder f JOIN subtree s ON f.id = s.id
`

// recursiveJobsUnderFolderSQL returns every job directly in the bound
// root folder or in any folder transitively under it.
const recursiveJobsUnderFolderSQL = `
WITH RECURSIVE subtree(id) AS (
	SELECT ? AS id
	UNION ALL
	SELECT f.id FROM folder f JOIN subtree s ON f.parent_id = s.id
)
SELECT j.id, j.batch_job_id, j.driver, j.folder_id, j.command, j.cores,
       j.memory, j.status, j.data, j.created_at, j.updated_at
FROM job j JOIN subtree s ON j.folder_id = s.id
`
