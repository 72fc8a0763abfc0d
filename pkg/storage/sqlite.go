package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/kong-job/kong/pkg/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so folder/job
// read-write helpers below work unmodified whether they run against
// the store's pooled connection or inside a single transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements Store on top of database/sql and the
// cgo-free github.com/ncruces/go-sqlite3 driver.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and, on first use, creates) the database file
// at <dataDir>/kong.db, applying the schema and the pragmas the rest
// of this package relies on (foreign_keys, WAL journal mode).
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	dbPath := filepath.Join(dataDir, "kong.db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: one writer at a time; avoids SQLITE_BUSY under our own load.

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.ensureRoot(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// ensureRoot creates the root folder if this is a fresh database.
func (s *SQLiteStore) ensureRoot() error {
	ctx := context.Background()
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM folder WHERE parent_id IS NULL`)
	if err := row.Scan(&count); err != nil {
		return fmt.Errorf("check root folder: %w", err)
	}
	if count > 0 {
		return nil
	}
	now := time.Now().UTC()
	root := &model.Folder{Name: model.RootFolderName, CreatedAt: now, UpdatedAt: now}
	return createFolder(ctx, s.db, root)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateFolder(ctx context.Context, f *model.Folder) error {
	return createFolder(ctx, s.db, f)
}

func createFolder(ctx context.Context, q querier, f *model.Folder) error {
	if err := model.ValidateName(f.Name, f.ParentID == nil); err != nil {
		return err
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = f.CreatedAt
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO folder (name, parent_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		f.Name, nullableID(f.ParentID), timeStr(f.CreatedAt), timeStr(f.UpdatedAt))
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrCannotCreate, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = id
	return nil
}

func (s *SQLiteStore) GetFolder(ctx context.Context, id int64) (*model.Folder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, parent_id, created_at, updated_at FROM folder WHERE id = ?`, id)
	return scanFolder(row)
}

func (s *SQLiteStore) GetFolderByParentName(ctx context.Context, parentID *int64, name string) (*model.Folder, error) {
	var row *sql.Row
	if parentID == nil {
		row = s.db.QueryRowContext(ctx,
			`SELECT id, name, parent_id, created_at, updated_at FROM folder WHERE parent_id IS NULL AND name = ?`, name)
	} else {
		row = s.db.QueryRowContext(ctx,
			`SELECT id, name, parent_id, created_at, updated_at FROM folder WHERE parent_id = ? AND name = ?`, *parentID, name)
	}
	return scanFolder(row)
}

func (s *SQLiteStore) ListChildFolders(ctx context.Context, parentID int64) ([]*model.Folder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, parent_id, created_at, updated_at FROM folder WHERE parent_id = ? ORDER BY name`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFolders(rows)
}

func (s *SQLiteStore) ListDescendantFolders(ctx context.Context, rootID int64) ([]*model.Folder, error) {
	rows, err := s.db.QueryContext(ctx, recursiveDescendantFoldersSQL, rootID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFolders(rows)
}

func (s *SQLiteStore) UpdateFolder(ctx context.Context, f *model.Folder) error {
	return updateFolder(ctx, s.db, f)
}

func updateFolder(ctx context.Context, q querier, f *model.Folder) error {
	if err := model.ValidateName(f.Name, f.ParentID == nil); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx,
		`UPDATE folder SET name = ?, parent_id = ?, updated_at = ? WHERE id = ?`,
		f.Name, nullableID(f.ParentID), timeStr(f.UpdatedAt), f.ID)
	return err
}

func (s *SQLiteStore) DeleteFolder(ctx context.Context, id int64) error {
	return deleteFolder(ctx, s.db, id)
}

func deleteFolder(ctx context.Context, q querier, id int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM folder WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) CreateJob(ctx context.Context, j *model.Job) error {
	return createJob(ctx, s.db, j)
}

func createJob(ctx context.Context, q querier, j *model.Job) error {
	if err := j.Validate(); err != nil {
		return err
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = j.CreatedAt
	}
	data, err := encodeData(j.Data)
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO job (batch_job_id, driver, folder_id, command, cores, memory, status, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableStr(j.BatchJobID), j.Driver, j.FolderID, j.Command, j.Cores, j.Memory,
		int(j.Status), data, timeStr(j.CreatedAt), timeStr(j.UpdatedAt))
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrCannotCreate, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	j.ID = id
	return nil
}

func (s *SQLiteStore) GetJob(ctx context.Context, id int64) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx, jobSelectColumns+` FROM job WHERE id = ?`, id)
	return scanJob(row)
}

func (s *SQLiteStore) ListJobsInFolder(ctx context.Context, folderID int64) ([]*model.Job, error) {
	rows, err := s.db.QueryContext(ctx, jobSelectColumns+` FROM job WHERE folder_id = ? ORDER BY id`, folderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (s *SQLiteStore) ListJobsUnderFolder(ctx context.Context, rootID int64) ([]*model.Job, error) {
	rows, err := s.db.QueryContext(ctx, recursiveJobsUnderFolderSQL, rootID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (s *SQLiteStore) BulkGetJobs(ctx context.Context, ids []int64) ([]*model.Job, error) {
	var out []*model.Job
	for _, part := range chunk(ids, SelectChunkSize) {
		placeholders, args := idPlaceholders(part)
		rows, err := s.db.QueryContext(ctx, jobSelectColumns+` FROM job WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, err
		}
		jobs, err := scanJobs(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, jobs...)
	}
	return out, nil
}

func (s *SQLiteStore) UpdateJob(ctx context.Context, j *model.Job) error {
	return updateJob(ctx, s.db, j)
}

func updateJob(ctx context.Context, q querier, j *model.Job) error {
	data, err := encodeData(j.Data)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`UPDATE job SET batch_job_id = ?, driver = ?, folder_id = ?, command = ?, cores = ?,
		 memory = ?, status = ?, data = ?, updated_at = ? WHERE id = ?`,
		nullableStr(j.BatchJobID), j.Driver, j.FolderID, j.Command, j.Cores, j.Memory,
		int(j.Status), data, timeStr(j.UpdatedAt), j.ID)
	return err
}

func (s *SQLiteStore) DeleteJob(ctx context.Context, id int64) error {
	return deleteJob(ctx, s.db, id)
}

func deleteJob(ctx context.Context, q querier, id int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM job WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	tx := &sqliteTx{q: sqlTx}
	if err := fn(tx); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	return sqlTx.Commit()
}

// sqliteTx implements Tx against an in-flight *sql.Tx.
type sqliteTx struct {
	q *sql.Tx
}

func (t *sqliteTx) CreateJob(ctx context.Context, j *model.Job) error { return createJob(ctx, t.q, j) }
func (t *sqliteTx) UpdateJob(ctx context.Context, j *model.Job) error { return updateJob(ctx, t.q, j) }

func (t *sqliteTx) BulkUpdateJobs(ctx context.Context, jobs []*model.Job) error {
	for _, part := range chunk(jobs, UpdateChunkSize) {
		for _, j := range part {
			if err := updateJob(ctx, t.q, j); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *sqliteTx) DeleteJob(ctx context.Context, id int64) error { return deleteJob(ctx, t.q, id) }

func (t *sqliteTx) BulkDeleteJobs(ctx context.Context, ids []int64) error {
	for _, part := range chunk(ids, UpdateChunkSize) {
		placeholders, args := idPlaceholders(part)
		if _, err := t.q.ExecContext(ctx, `DELETE FROM job WHERE id IN (`+placeholders+`)`, args...); err != nil {
			return err
		}
	}
	return nil
}

func (t *sqliteTx) GetJob(ctx context.Context, id int64) (*model.Job, error) {
	row := t.q.QueryRowContext(ctx, jobSelectColumns+` FROM job WHERE id = ?`, id)
	return scanJob(row)
}

func (t *sqliteTx) CreateFolder(ctx context.Context, f *model.Folder) error {
	return createFolder(ctx, t.q, f)
}
func (t *sqliteTx) UpdateFolder(ctx context.Context, f *model.Folder) error {
	return updateFolder(ctx, t.q, f)
}
func (t *sqliteTx) DeleteFolder(ctx context.Context, id int64) error {
	return deleteFolder(ctx, t.q, id)
}

const jobSelectColumns = `SELECT id, batch_job_id, driver, folder_id, command, cores, memory, status, data, created_at, updated_at`

func scanFolder(row *sql.Row) (*model.Folder, error) {
	f := &model.Folder{}
	var parentID sql.NullInt64
	var created, updated string
	if err := row.Scan(&f.ID, &f.Name, &parentID, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrDoesNotExist
		}
		return nil, err
	}
	if parentID.Valid {
		v := parentID.Int64
		f.ParentID = &v
	}
	var err error
	if f.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if f.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return f, nil
}

func scanFolders(rows *sql.Rows) ([]*model.Folder, error) {
	var out []*model.Folder
	for rows.Next() {
		f := &model.Folder{}
		var parentID sql.NullInt64
		var created, updated string
		if err := rows.Scan(&f.ID, &f.Name, &parentID, &created, &updated); err != nil {
			return nil, err
		}
		if parentID.Valid {
			v := parentID.Int64
			f.ParentID = &v
		}
		var err error
		if f.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if f.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	j := &model.Job{}
	var batchID sql.NullString
	var status int
	var data, created, updated string
	if err := row.Scan(&j.ID, &batchID, &j.Driver, &j.FolderID, &j.Command, &j.Cores,
		&j.Memory, &status, &data, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrDoesNotExist
		}
		return nil, err
	}
	if batchID.Valid {
		v := batchID.String
		j.BatchJobID = &v
	}
	j.Status = model.Status(status)
	decoded, err := decodeData(data)
	if err != nil {
		return nil, err
	}
	j.Data = decoded
	if j.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if j.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return j, nil
}

func scanJobs(rows *sql.Rows) ([]*model.Job, error) {
	var out []*model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func encodeData(d model.JobData) (string, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode job data: %w", err)
	}
	return string(b), nil
}

func decodeData(s string) (model.JobData, error) {
	if s == "" {
		return model.JobData{}, nil
	}
	var d model.JobData
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return nil, fmt.Errorf("decode job data: %w", err)
	}
	return d, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullableStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func timeStr(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func idPlaceholders(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	ph := make([]byte, 0, len(ids)*2)
	for i, id := range ids {
		if i > 0 {
			ph = append(ph, ',')
		}
		ph = append(ph, '?')
		args[i] = id
	}
	return string(ph), args
}
