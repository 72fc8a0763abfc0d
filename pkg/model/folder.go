package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RootFolderName is the fixed name of the single folder that may have
// a nil parent.
const RootFolderName = "root"

// Folder is a node in the hierarchical namespace. Children-of-parent
// is an index read against storage, not an in-memory back-pointer —
// the tree is re-materialised from the store on demand.
type Folder struct {
	ID        int64
	Name      string
	ParentID  *int64 // nil only for the root folder
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRoot reports whether f is the (unique) root folder.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// ValidateName enforces the naming invariants from the spec: non-empty,
// no path separator, not "." or "..", and not purely numeric (which
// would be indistinguishable from a job id in a selector). The root
// folder is exempt — it is the one documented hatch that bypasses
// these rules, since it is never addressed by name in a selector.
func ValidateName(name string, isRoot bool) error {
	if isRoot {
		return nil
	}
	if name == "" {
		return fmt.Errorf("%w: folder name must not be empty", ErrCannotCreate)
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf("%w: folder name %q must not contain '/'", ErrCannotCreate, name)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: folder name must not be %q", ErrCannotCreate, name)
	}
	if _, err := strconv.Atoi(name); err == nil {
		return fmt.Errorf("%w: folder name %q must not be purely numeric", ErrCannotCreate, name)
	}
	return nil
}
