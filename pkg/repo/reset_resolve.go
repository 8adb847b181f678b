package repo

import (
	"fmt"

	"github.com/odvcencio/grit/pkg/object"
)

// resetTarget is the resolved destination of a reset. CommitHash is set only
// when the revision was resolved as a commit; path-scoped resets resolve
// tree-ish and never move the branch pointer. Unborn marks the no-history
// case, where the target is the canonical empty tree.
type resetTarget struct {
	CommitHash object.Hash
	TreeHash   object.Hash
	Unborn     bool
}

// resolveResetTarget turns a revision string into a resetTarget. With no
// pathspec the revision must name a commit; with a pathspec a commit or a
// raw tree is accepted and only its tree is carried. Pure lookup, no side
// effects.
func (r *Repo) resolveResetTarget(rev string, hasPaths bool) (resetTarget, error) {
	if rev == "HEAD" {
		if _, err := r.ResolveRef("HEAD"); err != nil {
			// Reset on an unborn branch: treat as reset to the empty tree.
			return resetTarget{TreeHash: object.EmptyTreeHash, Unborn: true}, nil
		}
	}

	h, err := r.resolveRevision(rev)
	if err != nil {
		if hasPaths {
			return resetTarget{}, fmt.Errorf("failed to resolve %q as a valid tree: %w", rev, err)
		}
		return resetTarget{}, fmt.Errorf("failed to resolve %q as a valid revision: %w", rev, err)
	}

	if commit, err := r.Store.ReadCommit(h); err == nil {
		return resetTarget{CommitHash: h, TreeHash: commit.TreeHash}, nil
	}

	if hasPaths {
		// A raw tree is acceptable when only the index is being rewritten.
		if _, err := r.Store.ReadTree(h); err == nil {
			return resetTarget{TreeHash: h}, nil
		}
		return resetTarget{}, fmt.Errorf("failed to resolve %q as a valid tree: object %s is neither commit nor tree", rev, h)
	}
	return resetTarget{}, fmt.Errorf("failed to resolve %q as a valid revision: object %s is not a commit", rev, h)
}

// resolveRevision maps a revision string to an object hash: a ref name
// (HEAD, branch, refs/..., ORIG_HEAD) or a full raw hash present in the
// store.
func (r *Repo) resolveRevision(rev string) (object.Hash, error) {
	if h, err := r.ResolveRef(rev); err == nil {
		return h, nil
	}
	if r.Store.Has(object.Hash(rev)) {
		return object.Hash(rev), nil
	}
	return "", fmt.Errorf("unknown revision %q", rev)
}
