package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writeWorkFile materializes a blob in the working tree, creating parent
// directories as needed.
func (r *Repo) writeWorkFile(relPath string, entry TreeFileEntry) error {
	if r.Bare() {
		return fmt.Errorf("write work file %q: bare repository", relPath)
	}
	absPath := filepath.Join(r.RootDir, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("write work file %q: mkdir: %w", relPath, err)
	}

	blob, err := r.Store.ReadBlob(entry.BlobHash)
	if err != nil {
		return fmt.Errorf("write work file %q: read blob: %w", relPath, err)
	}
	if err := os.WriteFile(absPath, blob.Data, filePermFromMode(entry.Mode)); err != nil {
		return fmt.Errorf("write work file %q: %w", relPath, err)
	}
	return nil
}

// removeWorkFile deletes a working file and cleans up emptied parent
// directories. A file that is already gone is not an error.
func (r *Repo) removeWorkFile(relPath string) error {
	if r.Bare() {
		return nil
	}
	absPath := filepath.Join(r.RootDir, filepath.FromSlash(relPath))
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove work file %q: %w", relPath, err)
	}
	r.removeEmptyParents(filepath.Dir(absPath))
	return nil
}

// removeEmptyParents removes empty directories up to (but not including)
// the repository root.
func (r *Repo) removeEmptyParents(dir string) {
	for {
		// Never remove the repo root itself.
		if dir == r.RootDir || !strings.HasPrefix(dir, r.RootDir) {
			return
		}

		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}

		os.Remove(dir)
		dir = filepath.Dir(dir)
	}
}

// trackedFiles returns a set of all currently tracked file paths. It merges
// paths from the HEAD tree and the index.
func (r *Repo) trackedFiles() map[string]bool {
	files := make(map[string]bool)

	headEntries, err := r.headTreeFileEntryMap()
	if err == nil {
		for path := range headEntries {
			files[path] = true
		}
	}

	idx, err := r.ReadIndex()
	if err == nil {
		for path := range idx.Entries {
			files[path] = true
		}
	}

	return files
}

// repoRelPath converts a path (absolute, or relative to CWD) into a path
// relative to the repository root. If the path is already relative and does
// not start with the repo root, it is assumed to already be repo-relative.
func (r *Repo) repoRelPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(r.RootDir, p)
		if err != nil {
			return "", fmt.Errorf("cannot make %q relative to %q: %w", p, r.RootDir, err)
		}
		return filepath.ToSlash(rel), nil
	}

	// Try to resolve via CWD.
	cwd, err := os.Getwd()
	if err != nil {
		// Fall through to treating p as repo-relative.
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	abs := filepath.Join(cwd, p)
	rel, err := filepath.Rel(r.RootDir, abs)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	// If the relative path starts with "..", p is outside the repo.
	// In that case, treat the original p as already repo-relative.
	if len(rel) >= 2 && rel[:2] == ".." {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	return filepath.ToSlash(rel), nil
}
