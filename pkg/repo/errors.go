package repo

import (
	"errors"
	"fmt"

	"github.com/odvcencio/grit/pkg/object"
)

var ErrRefCASMismatch = errors.New("ref compare-and-swap mismatch")
var ErrRefUpdatedButReflogAppendFailed = errors.New("ref updated but reflog append failed")

// Reset-engine failure taxonomy. Validation errors surface before any
// mutation; reconciliation errors surface before the branch pointer is
// touched.
var (
	ErrIncompatibleMode = errors.New("incompatible reset mode")
	ErrBareRepository   = errors.New("not allowed in a bare repository")
	ErrMergeInProgress  = errors.New("reset blocked by an in-progress merge")
	ErrLockContention   = errors.New("index is locked by another process")
	ErrMissingTree      = errors.New("tree object could not be loaded")
	ErrMergeConflict    = errors.New("local changes conflict with reset target")
	ErrIndexWrite       = errors.New("could not write new index file")
)

// RefUpdateReflogError indicates the ref file update succeeded, but appending
// the corresponding reflog entry failed.
type RefUpdateReflogError struct {
	Ref     string
	OldHash object.Hash
	NewHash object.Hash
	Err     error
}

func (e *RefUpdateReflogError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf(
		"update ref %q: %s (old=%s new=%s): %v",
		e.Ref,
		ErrRefUpdatedButReflogAppendFailed,
		e.OldHash,
		e.NewHash,
		e.Err,
	)
}

func (e *RefUpdateReflogError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *RefUpdateReflogError) Is(target error) bool {
	return target == ErrRefUpdatedButReflogAppendFailed
}
