package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/odvcencio/grit/pkg/object"
)

// IndexEntry records the staged state of a single file.
//
// Stage 0 is a normally staged entry. Stages 1-3 mark the base/ours/theirs
// sides of an unresolved merge conflict; any entry with Stage > 0 makes the
// index "unmerged". IntentToAdd marks a path as tracked with no recorded
// content yet.
type IndexEntry struct {
	Path        string      `json:"path"`
	Mode        string      `json:"mode"`
	BlobHash    object.Hash `json:"blob_hash"`
	Stage       int         `json:"stage,omitempty"`
	IntentToAdd bool        `json:"intent_to_add,omitempty"`
	ModTime     int64       `json:"mod_time"`
	Size        int64       `json:"size"`
}

// Index holds the full staging area for a Grit repository. TreeDigest, when
// non-empty, caches the root tree hash the entries would build; it is
// recomputed after whole-index resets and consumed by commit.
type Index struct {
	Entries    map[string]*IndexEntry `json:"entries"`
	TreeDigest object.Hash            `json:"tree_digest,omitempty"`
}

// Unmerged returns the sorted paths of entries left behind by an unresolved
// merge, or nil when the index is fully merged.
func (idx *Index) Unmerged() []string {
	var paths []string
	for p, e := range idx.Entries {
		if e.Stage > 0 {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// indexPath returns the filesystem path to the staging index file.
func (r *Repo) indexPath() string {
	return filepath.Join(r.GritDir, "index")
}

// ReadIndex loads the staging area from .grit/index. If the file does not
// exist, an empty Index is returned (no error). The returned copy is a
// read-only view; mutations go through LockIndex.
func (r *Repo) ReadIndex() (*Index, error) {
	data, err := os.ReadFile(r.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Index{Entries: make(map[string]*IndexEntry)}, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("read index: unmarshal: %w", err)
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]*IndexEntry)
	}
	return &idx, nil
}

// IndexState is an exclusive handle on the staging area. It is produced by
// LockIndex, mutated in memory, and finished with exactly one of Commit
// (atomic replace of the on-disk file) or Unlock (discard). Until Commit
// succeeds, the on-disk index is byte-identical to its pre-lock state.
type IndexState struct {
	repo     *Repo
	Idx      *Index
	lockPath string
	done     bool
}

// LockIndex acquires the exclusive index lock and loads the current index
// into memory. Contention that outlives the bounded retry budget fails with
// ErrLockContention.
func (r *Repo) LockIndex() (*IndexState, error) {
	lockPath := r.indexPath() + ".lock"
	lockFile, err := acquireFileLock(lockPath)
	if err != nil {
		return nil, fmt.Errorf("lock index: %w", err)
	}
	// The lock file carries no payload; its existence is the lock.
	if err := lockFile.Close(); err != nil {
		os.Remove(lockPath)
		return nil, fmt.Errorf("lock index: close: %w", err)
	}

	idx, err := r.ReadIndex()
	if err != nil {
		os.Remove(lockPath)
		return nil, err
	}
	return &IndexState{repo: r, Idx: idx, lockPath: lockPath}, nil
}

// Commit atomically writes the in-memory index over the on-disk file and
// releases the lock. The handle is dead afterwards.
func (st *IndexState) Commit() error {
	if st.done {
		return fmt.Errorf("commit index: handle already finished")
	}
	st.done = true
	defer os.Remove(st.lockPath)

	if err := st.repo.writeIndex(st.Idx); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexWrite, err)
	}
	return nil
}

// Unlock releases the lock without writing. Safe to defer alongside Commit:
// it is a no-op once the handle is finished.
func (st *IndexState) Unlock() {
	if st.done {
		return
	}
	st.done = true
	os.Remove(st.lockPath)
}

// writeIndex atomically writes the staging area to .grit/index.
func (r *Repo) writeIndex(idx *Index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("write index: marshal: %w", err)
	}

	// Atomic write via temp file + rename.
	tmp, err := os.CreateTemp(r.GritDir, ".index-tmp-*")
	if err != nil {
		return fmt.Errorf("write index: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write index: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write index: close: %w", err)
	}

	if err := os.Rename(tmpName, r.indexPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write index: rename: %w", err)
	}
	return nil
}
