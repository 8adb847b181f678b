package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/grit/pkg/object"
)

// Checkout switches the working directory to the state of the target.
// The target can be a branch name or a raw commit hash.
//
// Algorithm:
//  1. Check for uncommitted changes — refuse if any exist.
//  2. Resolve target: try as branch name first, then as raw hash.
//  3. Read the target commit, flatten its tree.
//  4. Remove all tracked files (files in current HEAD tree + index).
//  5. Write all files from target tree to working directory.
//  6. Update the index to match the new tree.
//  7. Update HEAD (symbolic ref for branch, raw hash for detached).
func (r *Repo) Checkout(target string) error {
	if r.Bare() {
		return fmt.Errorf("checkout: bare repository")
	}
	if err := r.ensureClean(); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	// Resolve target.
	isBranch := false
	var targetHash object.Hash

	branchHash, err := r.ResolveRef("refs/heads/" + target)
	if err == nil {
		targetHash = branchHash
		isBranch = true
	} else {
		targetHash = object.Hash(target)
	}

	commit, err := r.Store.ReadCommit(targetHash)
	if err != nil {
		return fmt.Errorf("checkout: cannot read commit %s: %w", targetHash, err)
	}

	targetFiles, err := r.FlattenTree(commit.TreeHash)
	if err != nil {
		return fmt.Errorf("checkout: flatten target tree: %w", err)
	}

	st, err := r.LockIndex()
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	defer st.Unlock()

	// Remove currently tracked files, then materialize the target tree.
	for path := range r.trackedFiles() {
		if err := r.removeWorkFile(path); err != nil {
			return fmt.Errorf("checkout: %w", err)
		}
	}

	newEntries := make(map[string]*IndexEntry, len(targetFiles))
	for _, f := range targetFiles {
		if err := r.writeWorkFile(f.Path, f); err != nil {
			return fmt.Errorf("checkout: %w", err)
		}

		absPath := filepath.Join(r.RootDir, filepath.FromSlash(f.Path))
		info, err := os.Stat(absPath)
		if err != nil {
			return fmt.Errorf("checkout: stat %q: %w", f.Path, err)
		}

		newEntries[f.Path] = &IndexEntry{
			Path:     f.Path,
			Mode:     f.Mode,
			BlobHash: f.BlobHash,
			ModTime:  info.ModTime().Unix(),
			Size:     info.Size(),
		}
	}
	st.Idx.Entries = newEntries
	st.Idx.TreeDigest = commit.TreeHash
	if err := st.Commit(); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	// Update HEAD.
	headPath := filepath.Join(r.GritDir, "HEAD")
	var headContent string
	if isBranch {
		headContent = "ref: refs/heads/" + target + "\n"
	} else {
		headContent = string(targetHash) + "\n"
	}
	if err := os.WriteFile(headPath, []byte(headContent), 0o644); err != nil {
		return fmt.Errorf("checkout: update HEAD: %w", err)
	}

	return nil
}
