package session

import (
	"context"
	"fmt"

	"github.com/kong-job/kong/pkg/model"
	"github.com/kong-job/kong/pkg/storage"
)

// resolveDest classifies destPath: either an existing folder ("move
// into") or a non-existent path whose parent exists ("rename to tail,
// place under parent"), per spec.md §4.5.
func (s *Session) resolveDest(ctx context.Context, destPath string) (dest *model.Folder, renameTo string, isRename bool, err error) {
	if folders, ferr := s.ResolveFolders(ctx, destPath); ferr == nil && len(folders) == 1 {
		return folders[0], "", false, nil
	}

	absolute, segments := splitSelector(destPath)
	if len(segments) == 0 {
		return nil, "", false, fmt.Errorf("%w: %q", model.ErrDoesNotExist, destPath)
	}
	parentSegs, tail := segments[:len(segments)-1], segments[len(segments)-1]
	base, err := s.rootOf(ctx, absolute)
	if err != nil {
		return nil, "", false, err
	}
	parent, err := s.walkExact(ctx, base, parentSegs)
	if err != nil {
		return nil, "", false, fmt.Errorf("%w: parent of %q does not exist", model.ErrDoesNotExist, destPath)
	}
	if err := model.ValidateName(tail, false); err != nil {
		return nil, "", false, err
	}
	return parent, tail, true, nil
}

// Move implements `mv`. src may be a *model.Folder, a *model.Job, or a
// string path/glob; dest is always a path string. Jobs cannot be
// renamed: their destination must resolve to an existing folder.
func (s *Session) Move(ctx context.Context, src any, destPath string) error {
	switch v := src.(type) {
	case *model.Folder:
		return s.moveFolders(ctx, []*model.Folder{v}, destPath)
	case *model.Job:
		return s.moveJob(ctx, v, destPath)
	case string:
		return s.moveSelector(ctx, v, destPath)
	default:
		return fmt.Errorf("%w: unsupported move source %T", model.ErrInvalidSelector, src)
	}
}

func (s *Session) moveSelector(ctx context.Context, selector, destPath string) error {
	if folders, err := s.ResolveFolders(ctx, selector); err == nil && len(folders) > 0 {
		return s.moveFolders(ctx, folders, destPath)
	}
	jobs, err := s.ResolveJobs(ctx, selector, false)
	if err != nil || len(jobs) == 0 {
		return fmt.Errorf("%w: %q", model.ErrDoesNotExist, selector)
	}
	return s.moveJobs(ctx, jobs, destPath)
}

func (s *Session) moveFolders(ctx context.Context, folders []*model.Folder, destPath string) error {
	for _, f := range folders {
		if f.IsRoot() {
			return fmt.Errorf("%w", model.ErrCannotRemoveRoot)
		}
	}
	dest, renameTo, isRename, err := s.resolveDest(ctx, destPath)
	if err != nil {
		return err
	}
	if isRename && len(folders) > 1 {
		return fmt.Errorf("%w: cannot rename %d folders to a single name %q", model.ErrInvalidSelector, len(folders), renameTo)
	}

	return s.Store.WithTx(ctx, func(tx storage.Tx) error {
		for _, f := range folders {
			f.ParentID = &dest.ID
			if isRename {
				f.Name = renameTo
			}
			if err := tx.UpdateFolder(ctx, f); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Session) moveJob(ctx context.Context, job *model.Job, destPath string) error {
	dest, _, isRename, err := s.resolveDest(ctx, destPath)
	if err != nil {
		return err
	}
	if isRename {
		return fmt.Errorf("%w: jobs cannot be renamed, destination must be an existing folder", model.ErrInvalidSelector)
	}
	job.FolderID = dest.ID
	return s.Store.UpdateJob(ctx, job)
}

func (s *Session) moveJobs(ctx context.Context, jobs []*model.Job, destPath string) error {
	dest, _, isRename, err := s.resolveDest(ctx, destPath)
	if err != nil {
		return err
	}
	if isRename {
		return fmt.Errorf("%w: jobs cannot be renamed, destination must be an existing folder", model.ErrInvalidSelector)
	}
	return s.Store.WithTx(ctx, func(tx storage.Tx) error {
		for _, j := range jobs {
			j.FolderID = dest.ID
			if err := tx.UpdateJob(ctx, j); err != nil {
				return err
			}
		}
		return nil
	})
}
