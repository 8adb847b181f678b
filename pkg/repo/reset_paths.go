package repo

import (
	"sort"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/pathspec"
)

// resetPaths rewrites only the index entries covered by the pathspec to the
// target tree's values, via an entry-level diff-apply pass. The branch
// pointer and working files are never touched here, and entries outside the
// pathspec are provably untouched: they never enter the delta set.
func (r *Repo) resetPaths(st *IndexState, treeHash object.Hash, ps *pathspec.PathSpec, intentToAdd bool) error {
	deltas, err := r.diffTreeAgainstIndex(treeHash, st.Idx, ps)
	if err != nil {
		return err
	}

	for _, d := range deltas {
		if d.New == nil {
			if !intentToAdd {
				delete(st.Idx.Entries, d.Path)
				continue
			}
			// Record only the fact that the path will be added later: a
			// zero-content placeholder, so a subsequent commit still sees
			// the path as newly tracked.
			mode := object.TreeModeFile
			if old, ok := st.Idx.Entries[d.Path]; ok {
				mode = normalizeFileMode(old.Mode)
			}
			st.Idx.Entries[d.Path] = &IndexEntry{
				Path:        d.Path,
				Mode:        mode,
				BlobHash:    emptyBlobHash,
				IntentToAdd: true,
				ModTime:     0,
				Size:        -1,
			}
			continue
		}

		st.Idx.Entries[d.Path] = &IndexEntry{
			Path:     d.Path,
			Mode:     d.New.Mode,
			BlobHash: d.New.BlobHash,
			ModTime:  0,
			Size:     -1,
		}
	}

	st.Idx.TreeDigest = ""
	return nil
}

var emptyBlobHash = object.HashObject(object.TypeBlob, nil)

// diffTreeAgainstIndex produces the ordered entry-level differences between
// the target tree and the index, restricted to the pathspec. A delta's New
// side is nil when the path is absent from the target.
func (r *Repo) diffTreeAgainstIndex(treeHash object.Hash, idx *Index, ps *pathspec.PathSpec) ([]entryDelta, error) {
	targetEntries, err := r.FlattenTree(treeHash)
	if err != nil {
		return nil, err
	}
	target := make(map[string]TreeFileEntry, len(targetEntries))
	for _, e := range targetEntries {
		target[e.Path] = e
	}

	seen := make(map[string]struct{}, len(target)+len(idx.Entries))
	var paths []string
	for p := range target {
		if ps.Match(p) {
			seen[p] = struct{}{}
			paths = append(paths, p)
		}
	}
	for p := range idx.Entries {
		if _, dup := seen[p]; dup {
			continue
		}
		if ps.Match(p) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var deltas []entryDelta
	for _, p := range paths {
		t, inTarget := target[p]
		entry, inIndex := idx.Entries[p]

		if inTarget && inIndex &&
			entry.BlobHash == t.BlobHash &&
			normalizeFileMode(entry.Mode) == t.Mode &&
			entry.Stage == 0 && !entry.IntentToAdd {
			continue
		}

		d := entryDelta{Path: p}
		if inTarget {
			tc := t
			d.New = &tc
		}
		if inIndex {
			d.Old = &TreeFileEntry{Path: p, Mode: normalizeFileMode(entry.Mode), BlobHash: entry.BlobHash}
		}
		deltas = append(deltas, d)
	}
	return deltas, nil
}
