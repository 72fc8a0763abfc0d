package session

import (
	"context"
	"fmt"

	"github.com/kong-job/kong/pkg/driver"
	"github.com/kong-job/kong/pkg/log"
	"github.com/kong-job/kong/pkg/model"
	"github.com/kong-job/kong/pkg/notify"
	"github.com/kong-job/kong/pkg/storage"
)

// Session is the per-process orchestration object: it holds cwd and
// the default driver (per the GLOSSARY), constructed once and passed
// around rather than reached for as a global.
type Session struct {
	Store    storage.Store
	Drivers  *driver.Registry
	Default  string // default driver tag, used by CreateJob when a spec doesn't name one
	Notifier notify.Notifier
	Executor driver.Executor

	cwd *model.Folder
}

// Options configures a new Session. Notifier and Executor default to
// notify.Console{} and driver.SerialExecutor{} respectively when left
// nil/zero, matching spec.md §9's "injectable, serial by default" note.
type Options struct {
	Store      storage.Store
	Drivers    *driver.Registry
	DefaultTag string
	Notifier   notify.Notifier
	Executor   driver.Executor
}

// New constructs a Session rooted at the store's root folder.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("session: store is required")
	}
	if opts.Drivers == nil {
		return nil, fmt.Errorf("session: driver registry is required")
	}
	root, err := opts.Store.GetFolderByParentName(ctx, nil, model.RootFolderName)
	if err != nil {
		return nil, fmt.Errorf("session: loading root folder: %w", err)
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Console{}
	}
	executor := opts.Executor
	if executor == nil {
		executor = driver.SerialExecutor{}
	}

	return &Session{
		Store:    opts.Store,
		Drivers:  opts.Drivers,
		Default:  opts.DefaultTag,
		Notifier: notifier,
		Executor: executor,
		cwd:      root,
	}, nil
}

// Cwd returns the current working folder.
func (s *Session) Cwd() *model.Folder {
	return s.cwd
}

// Cd changes cwd to the folder path resolves to. path must resolve to
// exactly one folder (no glob ambiguity tolerated for cd).
func (s *Session) Cd(ctx context.Context, path string) error {
	folders, err := s.ResolveFolders(ctx, path)
	if err != nil {
		return err
	}
	if len(folders) != 1 {
		return fmt.Errorf("%w: %q resolves to %d folders, want exactly one", model.ErrInvalidSelector, path, len(folders))
	}
	s.cwd = folders[0]
	return nil
}

// Mkdir creates a child folder named name under parent. parent
// defaults to cwd when nil.
func (s *Session) Mkdir(ctx context.Context, parent *model.Folder, name string) (*model.Folder, error) {
	if parent == nil {
		parent = s.cwd
	}
	if err := model.ValidateName(name, false); err != nil {
		return nil, err
	}
	f := &model.Folder{Name: name, ParentID: &parent.ID}
	if err := s.Store.CreateFolder(ctx, f); err != nil {
		return nil, err
	}
	log.WithComponent("session").Info().Str("name", name).Int64("parent_id", parent.ID).Msg("folder created")
	return f, nil
}

// Ls lists the direct children (folders and jobs) of folder. folder
// defaults to cwd when nil.
func (s *Session) Ls(ctx context.Context, folder *model.Folder) ([]*model.Folder, []*model.Job, error) {
	if folder == nil {
		folder = s.cwd
	}
	folders, err := s.Store.ListChildFolders(ctx, folder.ID)
	if err != nil {
		return nil, nil, err
	}
	jobs, err := s.Store.ListJobsInFolder(ctx, folder.ID)
	if err != nil {
		return nil, nil, err
	}
	return folders, jobs, nil
}

// driverFor resolves a job's driver via the registry, falling back to
// Default when the job carries no tag of its own (should not happen
// for a persisted row, but CreateJob consults it before one exists).
func (s *Session) driverFor(tag string) (driver.Driver, error) {
	if tag == "" {
		tag = s.Default
	}
	return s.Drivers.Get(tag)
}
