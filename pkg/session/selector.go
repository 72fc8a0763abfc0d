package session

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/kong-job/kong/pkg/model"
)

var rangeSelectorRe = regexp.MustCompile(`^(\d+)\.\.(\d+)$`)

func splitSelector(path string) (absolute bool, segments []string) {
	absolute = strings.HasPrefix(path, "/")
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return absolute, nil
	}
	return absolute, strings.Split(trimmed, "/")
}

// walkExact walks segments below start, looking up each by exact name.
// It never globs; a missing segment is ErrDoesNotExist.
func (s *Session) walkExact(ctx context.Context, start *model.Folder, segments []string) (*model.Folder, error) {
	cur := start
	for _, name := range segments {
		f, err := s.Store.GetFolderByParentName(ctx, &cur.ID, name)
		if err != nil {
			return nil, fmt.Errorf("%w: folder %q under %q", model.ErrDoesNotExist, name, cur.Name)
		}
		cur = f
	}
	return cur, nil
}

// rootOf returns the base folder a path is resolved against: the
// store's root for an absolute path, cwd for a relative one.
func (s *Session) rootOf(ctx context.Context, absolute bool) (*model.Folder, error) {
	if absolute {
		return s.Store.GetFolderByParentName(ctx, nil, model.RootFolderName)
	}
	return s.cwd, nil
}

// ResolveFolders resolves path to one or more folders. Per spec.md
// §4.5: a `*` glob in the last segment matches by shell-style pattern
// against direct children of the head folder; otherwise it is an
// exact path lookup. A missing head folder raises ErrDoesNotExist.
func (s *Session) ResolveFolders(ctx context.Context, path string) ([]*model.Folder, error) {
	absolute, segments := splitSelector(path)
	base, err := s.rootOf(ctx, absolute)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return []*model.Folder{base}, nil
	}

	head := segments[:len(segments)-1]
	tail := segments[len(segments)-1]

	headFolder, err := s.walkExact(ctx, base, head)
	if err != nil {
		return nil, err
	}

	if !strings.ContainsAny(tail, "*?[") {
		f, err := s.Store.GetFolderByParentName(ctx, &headFolder.ID, tail)
		if err != nil {
			return nil, fmt.Errorf("%w: folder %q under %q", model.ErrDoesNotExist, tail, headFolder.Name)
		}
		return []*model.Folder{f}, nil
	}

	children, err := s.Store.ListChildFolders(ctx, headFolder.ID)
	if err != nil {
		return nil, err
	}
	var matched []*model.Folder
	for _, c := range children {
		ok, err := filepath.Match(tail, c.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %v", model.ErrInvalidSelector, tail, err)
		}
		if ok {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

// ResolveJobs resolves a string selector to a set of jobs, per the
// grammar in spec.md §4.5. Callers that already hold a *model.Job
// (the "job instance" shape in the spec) need no resolution at all —
// that branch only exists here for the string forms.
func (s *Session) ResolveJobs(ctx context.Context, selector string, recursive bool) ([]*model.Job, error) {
	if id, err := strconv.ParseInt(selector, 10, 64); err == nil {
		j, err := s.Store.GetJob(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%w: job %d", model.ErrDoesNotExist, id)
		}
		return []*model.Job{j}, nil
	}

	idx := strings.LastIndex(selector, "/")
	if idx < 0 {
		// A plain path with no recognizable job tail: valid only when
		// it names a folder and recursive was requested.
		return s.jobsUnderPlainPath(ctx, selector, recursive)
	}

	headPath, tail := selector[:idx], selector[idx+1:]

	if tail == "*" {
		folders, err := s.ResolveFolders(ctx, headPath)
		if err != nil {
			return nil, err
		}
		return s.jobsInFolders(ctx, folders, recursive)
	}

	if m := rangeSelectorRe.FindStringSubmatch(tail); m != nil {
		lo, _ := strconv.ParseInt(m[1], 10, 64)
		hi, _ := strconv.ParseInt(m[2], 10, 64)
		if lo > hi {
			return nil, fmt.Errorf("%w: range %d..%d has lo > hi", model.ErrInvalidSelector, lo, hi)
		}
		folders, err := s.ResolveFolders(ctx, headPath)
		if err != nil {
			return nil, err
		}
		var out []*model.Job
		for _, f := range folders {
			jobs, err := s.Store.ListJobsInFolder(ctx, f.ID)
			if err != nil {
				return nil, err
			}
			for _, j := range jobs {
				if j.ID >= lo && j.ID <= hi {
					out = append(out, j)
				}
			}
		}
		return out, nil
	}

	if id, err := strconv.ParseInt(tail, 10, 64); err == nil {
		folders, err := s.ResolveFolders(ctx, headPath)
		if err != nil {
			return nil, err
		}
		if len(folders) != 1 {
			return nil, fmt.Errorf("%w: %q resolves to %d folders, want exactly one", model.ErrInvalidSelector, headPath, len(folders))
		}
		j, err := s.Store.GetJob(ctx, id)
		if err != nil || j.FolderID != folders[0].ID {
			return nil, fmt.Errorf("%w: job %d under %q", model.ErrDoesNotExist, id, headPath)
		}
		return []*model.Job{j}, nil
	}

	// No job tail: treat the whole selector as a plain folder path.
	return s.jobsUnderPlainPath(ctx, selector, recursive)
}

func (s *Session) jobsUnderPlainPath(ctx context.Context, path string, recursive bool) ([]*model.Job, error) {
	if !recursive {
		return nil, fmt.Errorf("%w: %q is a folder path, recursive required to select its jobs", model.ErrInvalidSelector, path)
	}
	folders, err := s.ResolveFolders(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.jobsInFolders(ctx, folders, true)
}

func (s *Session) jobsInFolders(ctx context.Context, folders []*model.Folder, recursive bool) ([]*model.Job, error) {
	var out []*model.Job
	for _, f := range folders {
		var jobs []*model.Job
		var err error
		if recursive {
			jobs, err = s.Store.ListJobsUnderFolder(ctx, f.ID)
		} else {
			jobs, err = s.Store.ListJobsInFolder(ctx, f.ID)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, jobs...)
	}
	return out, nil
}
