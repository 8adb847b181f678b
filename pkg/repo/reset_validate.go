package repo

import (
	"fmt"
)

// validateResetMode reconciles the explicit mode, pathspec presence, the
// intent-to-add flag, and the repository shape into one effective mode.
// Rules are applied in order; the first violation wins, and nothing has been
// mutated by the time any of them fires. Warnings are returned for the
// caller to print, not acted on.
func (r *Repo) validateResetMode(mode ResetMode, hasPaths, intentToAdd bool) (ResetMode, []string, error) {
	var warnings []string

	if hasPaths {
		switch mode {
		case ResetNone:
		case ResetMixed:
			warnings = append(warnings,
				"warning: --mixed with paths is deprecated; use 'grit reset -- <paths>' instead.")
		default:
			return ResetNone, nil, fmt.Errorf("%w: cannot do %s reset with paths", ErrIncompatibleMode, mode)
		}
	}

	if mode == ResetNone {
		mode = ResetMixed
	}

	if intentToAdd && mode != ResetMixed {
		return ResetNone, nil, fmt.Errorf("%w: -N can only be used with --mixed", ErrIncompatibleMode)
	}

	if mode == ResetMixed && r.Bare() {
		return ResetNone, nil, fmt.Errorf("%w: %s reset", ErrBareRepository, mode)
	}

	// HARD, MERGE and KEEP materialize working files and need a work tree.
	switch mode {
	case ResetHard, ResetMerge, ResetKeep:
		if r.Bare() {
			return ResetNone, nil, fmt.Errorf("%w: %s reset requires a work tree", ErrBareRepository, mode)
		}
	}

	// Soft and keep resets require a fully merged state: they must not
	// silently abandon an unresolved merge.
	if mode == ResetSoft || mode == ResetKeep {
		if r.MergeInProgress() {
			return ResetNone, nil, fmt.Errorf("%w: cannot do a %s reset in the middle of a merge", ErrMergeInProgress, mode)
		}
		idx, err := r.ReadIndex()
		if err != nil {
			return ResetNone, nil, err
		}
		if len(idx.Unmerged()) > 0 {
			return ResetNone, nil, fmt.Errorf("%w: cannot do a %s reset with unresolved conflicts", ErrMergeInProgress, mode)
		}
	}

	return mode, warnings, nil
}
