package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/grit/pkg/object"
)

// mergeStrategy is the closed set of tree-merge variants. The mode decides
// the variant once, up front; there is no per-path dispatch.
type mergeStrategy int

const (
	// mergeOneWay forces every index entry to the target tree's value;
	// paths absent from the target are removed.
	mergeOneWay mergeStrategy = iota
	// mergeTwoWay walks the current HEAD tree and the target tree pairwise,
	// preserving local index changes where the two sides agree and failing
	// on paths where they collide.
	mergeTwoWay
)

func strategyForMode(mode ResetMode) mergeStrategy {
	if mode == ResetKeep {
		return mergeTwoWay
	}
	return mergeOneWay
}

// reconcileIndex rewrites the locked index to the target tree and, for the
// working-tree modes, propagates the changes to working files. The caller
// holds the index lock and commits the handle; any error here leaves the
// on-disk index untouched.
func (r *Repo) reconcileIndex(st *IndexState, target resetTarget, mode ResetMode) error {
	// The two-way strategy first decides which working files may be
	// touched; a detected collision aborts before anything is written.
	var keepUpdates []entryDelta
	if strategyForMode(mode) == mergeTwoWay {
		headHash, err := r.ResolveRef("HEAD")
		if err != nil {
			return fmt.Errorf("keep reset: you do not have a valid HEAD")
		}
		headCommit, err := r.Store.ReadCommit(headHash)
		if err != nil {
			return fmt.Errorf("%w: tree of HEAD: %v", ErrMissingTree, err)
		}
		keepUpdates, err = r.twoWayMerge(st.Idx, headCommit.TreeHash, target.TreeHash)
		if err != nil {
			return err
		}
	}

	old := st.Idx.Entries

	// One-way rebuild: the index becomes exactly the target tree. Entries
	// are recorded with unknown stat metadata so the next status check
	// hashes the working file instead of trusting a stale stat match.
	it, err := newTreeIter(r, target.TreeHash)
	if err != nil {
		return err
	}
	newEntries := make(map[string]*IndexEntry)
	for {
		e, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		newEntries[e.Path] = &IndexEntry{
			Path:     e.Path,
			Mode:     e.Mode,
			BlobHash: e.BlobHash,
			ModTime:  0,
			Size:     -1,
		}
	}

	switch mode {
	case ResetHard:
		if err := r.materializeAll(old, newEntries); err != nil {
			return err
		}
	case ResetMerge:
		if err := r.materializeChanged(old, newEntries); err != nil {
			return err
		}
	case ResetKeep:
		if err := r.materializeDeltas(keepUpdates, newEntries); err != nil {
			return err
		}
	}

	st.Idx.Entries = newEntries
	st.Idx.TreeDigest = ""

	// Cache the whole-tree digest for the modes whose result is consumed by
	// a following commit without further index edits.
	switch mode {
	case ResetMixed, ResetHard, ResetKeep:
		digest, err := r.BuildTree(st.Idx)
		if err != nil {
			return fmt.Errorf("prime tree digest: %w", err)
		}
		st.Idx.TreeDigest = digest
	}
	return nil
}

// entryDelta is one path's transition: New is nil for a deletion, Old is nil
// for an addition.
type entryDelta struct {
	Path string
	Old  *TreeFileEntry
	New  *TreeFileEntry
}

// twoWayMerge walks the HEAD tree and the target tree pairwise and decides,
// per path, whether the reset may proceed. A path where the two trees agree
// keeps whatever the index holds. A path where they disagree is only
// acceptable when the index carries no local change on top of HEAD; the
// resulting delta is returned so the caller can update that working file.
// The first collision aborts the whole merge with ErrMergeConflict.
func (r *Repo) twoWayMerge(idx *Index, headTree, targetTree object.Hash) ([]entryDelta, error) {
	headIt, err := newTreeIter(r, headTree)
	if err != nil {
		return nil, err
	}
	targetIt, err := newTreeIter(r, targetTree)
	if err != nil {
		return nil, err
	}

	var deltas []entryDelta

	headEntry, headOK, err := headIt.Next()
	if err != nil {
		return nil, err
	}
	targetEntry, targetOK, err := targetIt.Next()
	if err != nil {
		return nil, err
	}

	for headOK || targetOK {
		var h, t *TreeFileEntry
		switch {
		case headOK && (!targetOK || pathLess(headEntry.Path, targetEntry.Path)):
			h = &headEntry
		case targetOK && (!headOK || pathLess(targetEntry.Path, headEntry.Path)):
			t = &targetEntry
		default:
			h, t = &headEntry, &targetEntry
		}

		if err := decideTwoWay(idx, h, t, &deltas); err != nil {
			return nil, err
		}

		if h != nil {
			headEntry, headOK, err = headIt.Next()
			if err != nil {
				return nil, err
			}
		}
		if t != nil {
			targetEntry, targetOK, err = targetIt.Next()
			if err != nil {
				return nil, err
			}
		}
	}

	return deltas, nil
}

// decideTwoWay applies the two-way rules at a single path. h and t are the
// HEAD-side and target-side entries; either may be nil.
func decideTwoWay(idx *Index, h, t *TreeFileEntry, deltas *[]entryDelta) error {
	path := ""
	if h != nil {
		path = h.Path
	} else {
		path = t.Path
	}

	if sameTreeEntry(h, t) {
		// The two sides agree: the index entry, locally changed or not,
		// survives untouched.
		return nil
	}

	entry := idx.Entries[path]
	if localChange(entry, h) {
		return fmt.Errorf("%w: entry %q would be overwritten by reset", ErrMergeConflict, path)
	}

	// Copy both sides: h and t alias iterator state that the caller is
	// about to advance.
	d := entryDelta{Path: path}
	if h != nil {
		hc := *h
		d.Old = &hc
	}
	if t != nil {
		tc := *t
		d.New = &tc
	}
	*deltas = append(*deltas, d)
	return nil
}

func sameTreeEntry(a, b *TreeFileEntry) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.BlobHash == b.BlobHash && a.Mode == b.Mode
}

// localChange reports whether the index entry diverges from the HEAD-side
// tree entry.
func localChange(entry *IndexEntry, h *TreeFileEntry) bool {
	if entry == nil {
		return h != nil // locally deleted
	}
	if entry.Stage > 0 || entry.IntentToAdd {
		return true
	}
	if h == nil {
		return true // locally added
	}
	return entry.BlobHash != h.BlobHash || normalizeFileMode(entry.Mode) != h.Mode
}

// materializeAll makes the working tree match the new index exactly: every
// target file is written out and every previously tracked path that is gone
// from the target is removed.
func (r *Repo) materializeAll(old, updated map[string]*IndexEntry) error {
	for path := range old {
		if _, ok := updated[path]; !ok {
			if err := r.removeWorkFile(path); err != nil {
				return err
			}
		}
	}
	for path, entry := range updated {
		if err := r.writeWorkFile(path, TreeFileEntry{Path: path, Mode: entry.Mode, BlobHash: entry.BlobHash}); err != nil {
			return err
		}
		if err := restatEntry(r, entry); err != nil {
			return err
		}
	}
	return nil
}

// materializeChanged touches only paths whose index entry actually changed,
// leaving local edits to unchanged paths alone. Every path about to change is
// verified up to date first; nothing is written once a stale entry is found.
func (r *Repo) materializeChanged(old, updated map[string]*IndexEntry) error {
	var removals, writes []string
	for path := range old {
		if _, ok := updated[path]; !ok {
			removals = append(removals, path)
		}
	}
	for path, entry := range updated {
		prev, ok := old[path]
		if ok && prev.BlobHash == entry.BlobHash && normalizeFileMode(prev.Mode) == entry.Mode && prev.Stage == 0 {
			// Entry unchanged; keep whatever the working file holds and
			// carry the old stat metadata forward.
			entry.ModTime = prev.ModTime
			entry.Size = prev.Size
			continue
		}
		writes = append(writes, path)
	}

	for _, path := range removals {
		if err := r.verifyUptodate(path, old[path]); err != nil {
			return err
		}
	}
	for _, path := range writes {
		if prev, ok := old[path]; ok {
			if err := r.verifyUptodate(path, prev); err != nil {
				return err
			}
		}
	}

	for _, path := range removals {
		if err := r.removeWorkFile(path); err != nil {
			return err
		}
	}
	for _, path := range writes {
		entry := updated[path]
		if err := r.writeWorkFile(path, TreeFileEntry{Path: path, Mode: entry.Mode, BlobHash: entry.BlobHash}); err != nil {
			return err
		}
		if err := restatEntry(r, entry); err != nil {
			return err
		}
	}
	return nil
}

// materializeDeltas applies exactly the deltas the two-way merge cleared,
// refreshing the matching index entries' stat metadata. The index check in
// the merge cannot see unstaged edits, so each delta's working file is
// verified against the HEAD-side entry before anything is written.
func (r *Repo) materializeDeltas(deltas []entryDelta, updated map[string]*IndexEntry) error {
	for _, d := range deltas {
		if d.Old == nil {
			continue
		}
		prev := &IndexEntry{Path: d.Path, Mode: d.Old.Mode, BlobHash: d.Old.BlobHash, Size: -1}
		if err := r.verifyUptodate(d.Path, prev); err != nil {
			return err
		}
	}

	for _, d := range deltas {
		if d.New == nil {
			if err := r.removeWorkFile(d.Path); err != nil {
				return err
			}
			continue
		}
		if err := r.writeWorkFile(d.Path, *d.New); err != nil {
			return err
		}
		if entry, ok := updated[d.Path]; ok {
			if err := restatEntry(r, entry); err != nil {
				return err
			}
		}
	}
	return nil
}

// verifyUptodate refuses to touch a working file whose content no longer
// matches the index entry recorded for it. A missing working file passes (a
// local deletion is recreated or removed without loss), as do unmerged
// entries, whose working file is expected to diverge.
func (r *Repo) verifyUptodate(path string, entry *IndexEntry) error {
	if entry.Stage > 0 {
		return nil
	}
	code, err := r.worktreeStatus(path, entry)
	if err != nil {
		return err
	}
	if code == StatusModified {
		return fmt.Errorf("%w: entry %q is not uptodate and would be overwritten", ErrMergeConflict, path)
	}
	return nil
}

// restatEntry records fresh stat metadata for a just-written working file.
func restatEntry(r *Repo, entry *IndexEntry) error {
	absPath := filepath.Join(r.RootDir, filepath.FromSlash(entry.Path))
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat %q: %w", entry.Path, err)
	}
	entry.ModTime = info.ModTime().Unix()
	entry.Size = info.Size()
	return nil
}
