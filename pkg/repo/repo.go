package repo

import (
	"github.com/odvcencio/grit/pkg/object"
)

// Repo represents an opened Grit repository.
type Repo struct {
	RootDir string        // working directory root; empty for bare repositories
	GritDir string        // .grit/ directory
	Store   *object.Store // content-addressed object store
}

// Bare reports whether the repository has no working tree.
func (r *Repo) Bare() bool {
	return r.RootDir == ""
}
