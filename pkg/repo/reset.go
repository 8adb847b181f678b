package repo

import (
	"fmt"
	"io"

	"github.com/odvcencio/grit/pkg/pathspec"
)

// ResetMode selects how far a reset reaches: branch pointer only (soft),
// pointer + index (mixed), or pointer + index + working tree (hard, merge,
// keep). ResetNone is the unresolved default; validation turns it into
// ResetMixed before any reconciliation runs.
type ResetMode int

const (
	ResetNone ResetMode = iota
	ResetMixed
	ResetSoft
	ResetHard
	ResetMerge
	ResetKeep
)

func (m ResetMode) String() string {
	switch m {
	case ResetNone:
		return "none"
	case ResetMixed:
		return "mixed"
	case ResetSoft:
		return "soft"
	case ResetHard:
		return "hard"
	case ResetMerge:
		return "merge"
	case ResetKeep:
		return "keep"
	}
	return "unknown"
}

// ResetOptions carries everything ResetWorkspace needs. Revision defaults to
// "HEAD". Paths restricts the reset to matching index entries; a reset with
// paths never moves HEAD. Output receives warnings and progress reports and
// defaults to io.Discard.
type ResetOptions struct {
	Mode        ResetMode
	Revision    string
	Paths       *pathspec.PathSpec
	Quiet       bool
	IntentToAdd bool
	Output      io.Writer
}

// ResetWorkspace moves the repository (branch pointer, index, and working
// files, as dictated by the mode) to the state of the target revision.
//
// Sequencing: the target is resolved and the mode validated before anything
// is touched; the index is reconciled and durably committed under its lock;
// only then is the branch pointer advanced. A failed pointer update after a
// committed index is reported but not rolled back. The index is left ahead
// of the pointer for the caller to reconcile.
func (r *Repo) ResetWorkspace(opts ResetOptions) error {
	out := opts.Output
	if out == nil {
		out = io.Discard
	}

	rev := opts.Revision
	if rev == "" {
		rev = "HEAD"
	}
	hasPaths := !opts.Paths.Empty()

	target, err := r.resolveResetTarget(rev, hasPaths)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	mode, warnings, err := r.validateResetMode(opts.Mode, hasPaths, opts.IntentToAdd)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	// Warnings are not progress; Quiet does not silence them.
	for _, w := range warnings {
		fmt.Fprintln(out, w)
	}

	if mode != ResetSoft {
		st, err := r.LockIndex()
		if err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		defer st.Unlock()

		// An index-entry diff-apply serves pathspec-limited resets and the
		// intent-to-add form; everything else is a whole-tree reconcile.
		if hasPaths || opts.IntentToAdd {
			err = r.resetPaths(st, target.TreeHash, opts.Paths, opts.IntentToAdd)
		} else {
			err = r.reconcileIndex(st, target, mode)
		}
		if err != nil {
			return fmt.Errorf("reset: %w", err)
		}

		if err := st.Commit(); err != nil {
			return fmt.Errorf("reset: %w", err)
		}

		if mode == ResetMixed && !r.Bare() && !opts.Quiet {
			if err := r.reportUnstaged(out); err != nil {
				return fmt.Errorf("reset: %w", err)
			}
		}
	}

	// Any reset without paths updates HEAD to the target, saving the
	// previous head in ORIG_HEAD first. An unborn branch has no pointer to
	// move.
	var refErr error
	if !hasPaths && !target.Unborn {
		refErr = r.resetRefs(rev, target)

		if mode == ResetHard && refErr == nil && !opts.Quiet {
			if err := r.printNewHead(out, target); err != nil {
				return fmt.Errorf("reset: %w", err)
			}
		}
	}
	if !hasPaths {
		if err := r.clearBranchState(); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}

	if refErr != nil {
		return fmt.Errorf("reset: %w", refErr)
	}
	return nil
}

// reportUnstaged lists paths whose working file no longer matches the
// freshly reset index.
func (r *Repo) reportUnstaged(out io.Writer) error {
	idx, err := r.ReadIndex()
	if err != nil {
		return err
	}
	paths, err := r.unstagedPaths(idx)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}
	fmt.Fprintln(out, "Unstaged changes after reset:")
	for _, p := range paths {
		fmt.Fprintf(out, "M\t%s\n", p)
	}
	return nil
}

// printNewHead emits the human-readable summary of the new branch tip.
func (r *Repo) printNewHead(out io.Writer, target resetTarget) error {
	commit, err := r.Store.ReadCommit(target.CommitHash)
	if err != nil {
		return fmt.Errorf("read new HEAD commit: %w", err)
	}
	fmt.Fprintf(out, "HEAD is now at %s %s\n", target.CommitHash.Abbrev(), commit.Subject())
	return nil
}
