package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/grit/pkg/object"
)

// Add stages the given file paths. Each path is resolved relative to the
// repo root. For each file the raw content is written as a blob to the
// object store and an index entry is created or updated with the resulting
// hash and file metadata. The whole batch commits under one index lock.
func (r *Repo) Add(paths []string) error {
	st, err := r.LockIndex()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	defer st.Unlock()

	for _, p := range paths {
		relPath, err := r.repoRelPath(p)
		if err != nil {
			return fmt.Errorf("add: resolve path %q: %w", p, err)
		}

		absPath := filepath.Join(r.RootDir, relPath)
		content, err := os.ReadFile(absPath)
		if err != nil {
			return fmt.Errorf("add: read %q: %w", relPath, err)
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return fmt.Errorf("add: stat %q: %w", relPath, err)
		}

		blobHash, err := r.Store.WriteBlob(&object.Blob{Data: content})
		if err != nil {
			return fmt.Errorf("add: write blob %q: %w", relPath, err)
		}

		st.Idx.Entries[relPath] = &IndexEntry{
			Path:     relPath,
			Mode:     modeFromFileInfo(info),
			BlobHash: blobHash,
			ModTime:  info.ModTime().Unix(),
			Size:     info.Size(),
		}
	}
	// The staged set changed; any cached whole-tree digest is stale.
	st.Idx.TreeDigest = ""

	if err := st.Commit(); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}
