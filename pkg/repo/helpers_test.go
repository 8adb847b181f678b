package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/grit/pkg/object"
)

func initTestRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

func writeWorkTreeFile(t *testing.T, r *Repo, relPath, content string) {
	t.Helper()
	abs := filepath.Join(r.RootDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", relPath, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", relPath, err)
	}
}

func stageFiles(t *testing.T, r *Repo, paths ...string) {
	t.Helper()
	if err := r.Add(paths); err != nil {
		t.Fatalf("add %v: %v", paths, err)
	}
}

func commitAll(t *testing.T, r *Repo, message string) object.Hash {
	t.Helper()
	h, err := r.Commit(message, "tester")
	if err != nil {
		t.Fatalf("commit %q: %v", message, err)
	}
	return h
}

func readWorkTreeFile(t *testing.T, r *Repo, relPath string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(r.RootDir, filepath.FromSlash(relPath)))
	if err != nil {
		t.Fatalf("read %s: %v", relPath, err)
	}
	return string(data)
}

func indexEntry(t *testing.T, r *Repo, path string) *IndexEntry {
	t.Helper()
	idx, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	return idx.Entries[path]
}

func blobHashOf(content string) object.Hash {
	return object.HashObject(object.TypeBlob, object.MarshalBlob(&object.Blob{Data: []byte(content)}))
}

func findStatusEntry(entries []StatusEntry, path string) *StatusEntry {
	for i := range entries {
		if entries[i].Path == path {
			return &entries[i]
		}
	}
	return nil
}
