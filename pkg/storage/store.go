package storage

import (
	"context"

	"github.com/kong-job/kong/pkg/model"
)

// SelectChunkSize bounds how many primary keys a single "WHERE id IN
// (...)" query carries, keeping every bulk re-read well under
// SQLite's default bound parameter limit (999).
const SelectChunkSize = 500

// UpdateChunkSize bounds how many rows a single bulk write statement
// touches per round trip inside a transaction.
const UpdateChunkSize = 50

// Store is the persistence interface the rest of Kong programs
// against. The only implementation is the SQLite-backed one in this
// package, but bulk mutators are expressed here as an interface so a
// driver or the session can be tested against an in-memory stand-in.
type Store interface {
	// Folders.
	CreateFolder(ctx context.Context, f *model.Folder) error
	GetFolder(ctx context.Context, id int64) (*model.Folder, error)
	GetFolderByParentName(ctx context.Context, parentID *int64, name string) (*model.Folder, error)
	ListChildFolders(ctx context.Context, parentID int64) ([]*model.Folder, error)
	// ListDescendantFolders returns every folder transitively under
	// rootID (not including rootID itself), via a recursive CTE where
	// the backing engine supports one.
	ListDescendantFolders(ctx context.Context, rootID int64) ([]*model.Folder, error)
	UpdateFolder(ctx context.Context, f *model.Folder) error
	// DeleteFolder removes the folder row; ON DELETE CASCADE removes
	// descendant folder and job rows. Callers that need to clean up
	// job external artifacts must do so before calling this — once
	// the rows are gone, the driver/batch_job_id needed to locate
	// those artifacts is gone too.
	DeleteFolder(ctx context.Context, id int64) error

	// Jobs.
	CreateJob(ctx context.Context, j *model.Job) error
	GetJob(ctx context.Context, id int64) (*model.Job, error)
	ListJobsInFolder(ctx context.Context, folderID int64) ([]*model.Job, error)
	// ListJobsUnderFolder returns every job transitively under
	// rootID, including jobs directly in rootID.
	ListJobsUnderFolder(ctx context.Context, rootID int64) ([]*model.Job, error)
	// BulkGetJobs re-reads jobs by id, chunked at SelectChunkSize,
	// preserving no particular order.
	BulkGetJobs(ctx context.Context, ids []int64) ([]*model.Job, error)
	UpdateJob(ctx context.Context, j *model.Job) error
	DeleteJob(ctx context.Context, id int64) error

	// WithTx runs fn against a transactional view of the store; all
	// writes fn performs commit together or not at all. Bulk mutators
	// exposed on Tx chunk their own writes at UpdateChunkSize.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
}

// Tx is the write surface available inside Store.WithTx. It mirrors
// Store's mutators plus bulk variants; reads performed through Tx see
// the transaction's own uncommitted writes.
type Tx interface {
	CreateJob(ctx context.Context, j *model.Job) error
	UpdateJob(ctx context.Context, j *model.Job) error
	// BulkUpdateJobs writes every job in jobs, chunked at
	// UpdateChunkSize, all within the enclosing transaction.
	BulkUpdateJobs(ctx context.Context, jobs []*model.Job) error
	DeleteJob(ctx context.Context, id int64) error
	// BulkDeleteJobs deletes every id in ids, chunked at
	// UpdateChunkSize.
	BulkDeleteJobs(ctx context.Context, ids []int64) error
	GetJob(ctx context.Context, id int64) (*model.Job, error)

	CreateFolder(ctx context.Context, f *model.Folder) error
	UpdateFolder(ctx context.Context, f *model.Folder) error
	DeleteFolder(ctx context.Context, id int64) error
}

func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	var out [][]T
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}
