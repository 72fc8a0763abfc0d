package session

import (
	"context"
	"fmt"

	"github.com/kong-job/kong/pkg/model"
)

// Remove implements `rm`. target may be a *model.Folder, a *model.Job,
// or a string path/glob. The root folder is never removable; a folder
// match requires recursive=true. confirm is invoked once with a
// human-readable summary before any destructive act; a false return
// aborts with no error and no side effect.
func (s *Session) Remove(ctx context.Context, target any, recursive bool, confirm func(summary string) bool) error {
	folders, jobs, err := s.resolveForRemoval(ctx, target, recursive)
	if err != nil {
		return err
	}
	if len(folders) == 0 && len(jobs) == 0 {
		return nil
	}

	if confirm != nil && !confirm(removalSummary(folders, jobs)) {
		return nil
	}

	if err := s.removeJobsByDriver(ctx, jobs); err != nil {
		return err
	}
	for _, f := range folders {
		if err := s.Store.DeleteFolder(ctx, f.ID); err != nil {
			return err
		}
	}
	return nil
}

func removalSummary(folders []*model.Folder, jobs []*model.Job) string {
	return fmt.Sprintf("remove %d folder(s) and %d job(s)", len(folders), len(jobs))
}

// resolveForRemoval gathers the top-level folders to delete (their
// descendant folder rows cascade) and every job transitively under
// them plus any job targeted directly.
func (s *Session) resolveForRemoval(ctx context.Context, target any, recursive bool) ([]*model.Folder, []*model.Job, error) {
	switch v := target.(type) {
	case *model.Folder:
		return s.resolveFolderForRemoval(ctx, v, recursive)
	case *model.Job:
		return nil, []*model.Job{v}, nil
	case string:
		if folders, err := s.ResolveFolders(ctx, v); err == nil && len(folders) > 0 {
			var allFolders []*model.Folder
			var allJobs []*model.Job
			for _, f := range folders {
				fs, js, err := s.resolveFolderForRemoval(ctx, f, recursive)
				if err != nil {
					return nil, nil, err
				}
				allFolders = append(allFolders, fs...)
				allJobs = append(allJobs, js...)
			}
			return allFolders, allJobs, nil
		}
		jobs, err := s.ResolveJobs(ctx, v, false)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %q", model.ErrDoesNotExist, v)
		}
		return nil, jobs, nil
	default:
		return nil, nil, fmt.Errorf("%w: unsupported rm target %T", model.ErrInvalidSelector, target)
	}
}

func (s *Session) resolveFolderForRemoval(ctx context.Context, f *model.Folder, recursive bool) ([]*model.Folder, []*model.Job, error) {
	if f.IsRoot() {
		return nil, nil, fmt.Errorf("%w", model.ErrCannotRemoveRoot)
	}

	children, err := s.Store.ListChildFolders(ctx, f.ID)
	if err != nil {
		return nil, nil, err
	}
	directJobs, err := s.Store.ListJobsInFolder(ctx, f.ID)
	if err != nil {
		return nil, nil, err
	}
	if (len(children) > 0 || len(directJobs) > 0) && !recursive {
		return nil, nil, fmt.Errorf("%w", model.ErrCannotRemoveIsFolder)
	}

	jobs, err := s.Store.ListJobsUnderFolder(ctx, f.ID)
	if err != nil {
		return nil, nil, err
	}
	return []*model.Folder{f}, jobs, nil
}

// removeJobsByDriver groups jobs by driver tag and deletes each group
// through its own bulk_remove, since only the driver that created a
// job's artifacts knows how to clean them up.
func (s *Session) removeJobsByDriver(ctx context.Context, jobs []*model.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	byDriver := make(map[string][]*model.Job)
	for _, j := range jobs {
		byDriver[j.Driver] = append(byDriver[j.Driver], j)
	}
	for tag, group := range byDriver {
		d, err := s.Drivers.Get(tag)
		if err != nil {
			return err
		}
		if err := d.BulkRemove(ctx, group, true); err != nil {
			return err
		}
	}
	return nil
}
