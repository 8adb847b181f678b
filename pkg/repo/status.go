package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/odvcencio/grit/pkg/object"
)

// StatusCode classifies one side (index or worktree) of a path's state.
type StatusCode int

const (
	StatusClean StatusCode = iota
	StatusAdded
	StatusModified
	StatusDeleted
	StatusUnmerged
	StatusUntracked
)

func (c StatusCode) String() string {
	switch c {
	case StatusClean:
		return "clean"
	case StatusAdded:
		return "added"
	case StatusModified:
		return "modified"
	case StatusDeleted:
		return "deleted"
	case StatusUnmerged:
		return "unmerged"
	case StatusUntracked:
		return "untracked"
	}
	return "unknown"
}

// StatusEntry describes one path: how the index differs from HEAD, and how
// the working tree differs from the index.
type StatusEntry struct {
	Path        string
	IndexStatus StatusCode
	WorkStatus  StatusCode
}

// Status compares HEAD against the index (staged changes) and the index
// against the working tree (unstaged changes). Clean paths are omitted.
func (r *Repo) Status() ([]StatusEntry, error) {
	idx, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	head, err := r.headTreeFileEntryMap()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	byPath := make(map[string]*StatusEntry)
	get := func(p string) *StatusEntry {
		if e, ok := byPath[p]; ok {
			return e
		}
		e := &StatusEntry{Path: p}
		byPath[p] = e
		return e
	}

	// Index vs HEAD.
	for p, entry := range idx.Entries {
		if entry.Stage > 0 {
			get(p).IndexStatus = StatusUnmerged
			continue
		}
		headEntry, inHead := head[p]
		switch {
		case !inHead:
			get(p).IndexStatus = StatusAdded
		case headEntry.BlobHash != entry.BlobHash || headEntry.Mode != normalizeFileMode(entry.Mode):
			get(p).IndexStatus = StatusModified
		}
	}
	for p := range head {
		if _, ok := idx.Entries[p]; !ok {
			get(p).IndexStatus = StatusDeleted
		}
	}

	// Worktree vs index.
	if !r.Bare() {
		for p, entry := range idx.Entries {
			if entry.Stage > 0 {
				continue
			}
			code, err := r.worktreeStatus(p, entry)
			if err != nil {
				return nil, fmt.Errorf("status: %w", err)
			}
			if code != StatusClean {
				get(p).WorkStatus = code
			}
		}
	}

	entries := make([]StatusEntry, 0, len(byPath))
	for _, e := range byPath {
		if e.IndexStatus == StatusClean && e.WorkStatus == StatusClean {
			continue
		}
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// worktreeStatus compares one working file against its index entry. A stat
// that matches the recorded mtime and size short-circuits the hash check;
// entries recorded with Size < 0 always hash.
func (r *Repo) worktreeStatus(relPath string, entry *IndexEntry) (StatusCode, error) {
	absPath := filepath.Join(r.RootDir, filepath.FromSlash(relPath))
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return StatusDeleted, nil
		}
		return StatusClean, fmt.Errorf("stat %q: %w", relPath, err)
	}

	if entry.IntentToAdd {
		// Content is by definition not recorded yet.
		return StatusModified, nil
	}

	if entry.Size >= 0 && info.Size() == entry.Size && info.ModTime().Unix() == entry.ModTime {
		return StatusClean, nil
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return StatusClean, fmt.Errorf("read %q: %w", relPath, err)
	}
	if object.HashObject(object.TypeBlob, object.MarshalBlob(&object.Blob{Data: data})) == entry.BlobHash &&
		modeFromFileInfo(info) == normalizeFileMode(entry.Mode) {
		return StatusClean, nil
	}
	return StatusModified, nil
}

// unstagedPaths lists index paths whose working file content differs from
// the index, sorted. Used for the report after a mixed reset.
func (r *Repo) unstagedPaths(idx *Index) ([]string, error) {
	if r.Bare() {
		return nil, nil
	}
	var paths []string
	for p, entry := range idx.Entries {
		if entry.Stage > 0 {
			continue
		}
		code, err := r.worktreeStatus(p, entry)
		if err != nil {
			return nil, err
		}
		if code != StatusClean {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ensureClean checks that the repository has no uncommitted changes.
func (r *Repo) ensureClean() error {
	entries, err := r.Status()
	if err != nil {
		return fmt.Errorf("check status: %w", err)
	}

	for _, e := range entries {
		if e.IndexStatus != StatusClean || e.WorkStatus != StatusClean {
			return fmt.Errorf("working tree is not clean (file %q has uncommitted changes)", e.Path)
		}
	}
	return nil
}
