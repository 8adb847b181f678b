package repo

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/pathspec"
)

// twoCommitRepo builds a repository with two commits:
//
//	first:  a.txt = "A1\n", b.txt = "B1\n"
//	second: a.txt = "A2\n", b.txt = "B1\n", c.txt = "C1\n"
//
// and returns the repo plus both commit hashes.
func twoCommitRepo(t *testing.T) (*Repo, resetFixture) {
	t.Helper()
	r := initTestRepo(t)

	writeWorkTreeFile(t, r, "a.txt", "A1\n")
	writeWorkTreeFile(t, r, "b.txt", "B1\n")
	stageFiles(t, r, "a.txt", "b.txt")
	first := commitAll(t, r, "first")

	writeWorkTreeFile(t, r, "a.txt", "A2\n")
	writeWorkTreeFile(t, r, "c.txt", "C1\n")
	stageFiles(t, r, "a.txt", "c.txt")
	second := commitAll(t, r, "second")

	return r, resetFixture{first: first, second: second}
}

type resetFixture struct {
	first, second object.Hash
}


func TestMixedResetRewindsIndexNotWorktree(t *testing.T) {
	r, fx := twoCommitRepo(t)

	if err := r.ResetWorkspace(ResetOptions{Mode: ResetMixed, Revision: string(fx.first), Quiet: true}); err != nil {
		t.Fatalf("mixed reset: %v", err)
	}

	// Index matches the first commit's tree.
	if e := indexEntry(t, r, "a.txt"); e == nil || e.BlobHash != blobHashOf("A1\n") {
		t.Errorf("a.txt index entry = %+v, want blob of A1", e)
	}
	if e := indexEntry(t, r, "c.txt"); e != nil {
		t.Errorf("c.txt still in index: %+v", e)
	}

	// Working files are untouched.
	if got := readWorkTreeFile(t, r, "a.txt"); got != "A2\n" {
		t.Errorf("a.txt worktree = %q, want A2", got)
	}
	if _, err := os.Stat(filepath.Join(r.RootDir, "c.txt")); err != nil {
		t.Errorf("c.txt should survive a mixed reset: %v", err)
	}

	// HEAD moved, ORIG_HEAD records the old tip.
	if h, err := r.ResolveRef("HEAD"); err != nil || h != fx.first {
		t.Errorf("HEAD = %v (%v), want first commit", h, err)
	}
	if h, err := r.ResolveRef("ORIG_HEAD"); err != nil || h != fx.second {
		t.Errorf("ORIG_HEAD = %v (%v), want second commit", h, err)
	}
}

func TestMixedResetReportsUnstaged(t *testing.T) {
	r, fx := twoCommitRepo(t)

	var out bytes.Buffer
	if err := r.ResetWorkspace(ResetOptions{Mode: ResetMixed, Revision: string(fx.first), Output: &out}); err != nil {
		t.Fatalf("mixed reset: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Unstaged changes after reset:") {
		t.Errorf("output missing unstaged header: %q", got)
	}
	if !strings.Contains(got, "M\ta.txt") {
		t.Errorf("output missing a.txt: %q", got)
	}
}

func TestHardResetRestoresWorktree(t *testing.T) {
	r, fx := twoCommitRepo(t)

	var out bytes.Buffer
	if err := r.ResetWorkspace(ResetOptions{Mode: ResetHard, Revision: string(fx.first), Output: &out}); err != nil {
		t.Fatalf("hard reset: %v", err)
	}

	if got := readWorkTreeFile(t, r, "a.txt"); got != "A1\n" {
		t.Errorf("a.txt = %q, want A1", got)
	}
	if _, err := os.Stat(filepath.Join(r.RootDir, "c.txt")); !os.IsNotExist(err) {
		t.Errorf("c.txt should be removed by a hard reset (err=%v)", err)
	}
	if !strings.Contains(out.String(), "HEAD is now at "+fx.first.Abbrev()+" first") {
		t.Errorf("missing new-head report: %q", out.String())
	}

	// The reset index and restored worktree agree.
	entries, err := r.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("status not clean after hard reset: %+v", entries)
	}
}

func TestSoftResetMovesPointerOnly(t *testing.T) {
	r, fx := twoCommitRepo(t)

	before, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("read index: %v", err)
	}

	if err := r.ResetWorkspace(ResetOptions{Mode: ResetSoft, Revision: string(fx.first), Quiet: true}); err != nil {
		t.Fatalf("soft reset: %v", err)
	}

	if h, _ := r.ResolveRef("HEAD"); h != fx.first {
		t.Errorf("HEAD = %v, want first commit", h)
	}

	// Index is untouched; relative to the rewound HEAD its entries now show
	// up as staged changes.
	after, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if len(after.Entries) != len(before.Entries) {
		t.Fatalf("index entry count changed: %d != %d", len(after.Entries), len(before.Entries))
	}
	entries, err := r.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if e := findStatusEntry(entries, "a.txt"); e == nil || e.IndexStatus != StatusModified {
		t.Errorf("a.txt should be staged-modified after soft reset, got %+v", e)
	}
	if e := findStatusEntry(entries, "c.txt"); e == nil || e.IndexStatus != StatusAdded {
		t.Errorf("c.txt should be staged-added after soft reset, got %+v", e)
	}
}

func TestKeepResetPreservesLocalEdit(t *testing.T) {
	r, fx := twoCommitRepo(t)

	// A working-tree-only edit to a path the two commits agree on.
	writeWorkTreeFile(t, r, "b.txt", "local edit\n")

	if err := r.ResetWorkspace(ResetOptions{Mode: ResetKeep, Revision: string(fx.first), Quiet: true}); err != nil {
		t.Fatalf("keep reset: %v", err)
	}

	if got := readWorkTreeFile(t, r, "b.txt"); got != "local edit\n" {
		t.Errorf("b.txt = %q, want the local edit preserved", got)
	}
	if got := readWorkTreeFile(t, r, "a.txt"); got != "A1\n" {
		t.Errorf("a.txt = %q, want A1", got)
	}
	if h, _ := r.ResolveRef("HEAD"); h != fx.first {
		t.Errorf("HEAD = %v, want first commit", h)
	}
}

func TestKeepResetConflictAbortsEverything(t *testing.T) {
	r, fx := twoCommitRepo(t)

	// Stage a local change to a path that also differs between the commits.
	writeWorkTreeFile(t, r, "a.txt", "staged local\n")
	stageFiles(t, r, "a.txt")

	err := r.ResetWorkspace(ResetOptions{Mode: ResetKeep, Revision: string(fx.first), Quiet: true})
	if !errors.Is(err, ErrMergeConflict) {
		t.Fatalf("err = %v, want ErrMergeConflict", err)
	}

	// Nothing moved.
	if h, _ := r.ResolveRef("HEAD"); h != fx.second {
		t.Errorf("HEAD = %v, want second commit", h)
	}
	if got := readWorkTreeFile(t, r, "a.txt"); got != "staged local\n" {
		t.Errorf("a.txt = %q, want the staged edit", got)
	}
	if e := indexEntry(t, r, "a.txt"); e == nil || e.BlobHash != blobHashOf("staged local\n") {
		t.Errorf("staged index entry lost: %+v", e)
	}
	if _, err := r.ResolveRef("ORIG_HEAD"); err == nil {
		t.Error("ORIG_HEAD should not be written by an aborted reset")
	}
}

func TestKeepResetRefusesUnstagedEditOnChangedPath(t *testing.T) {
	r, fx := twoCommitRepo(t)

	// Index and HEAD agree on a.txt, but the working file holds an
	// unstaged edit and the path differs between the two commits.
	writeWorkTreeFile(t, r, "a.txt", "precious unstaged work\n")

	err := r.ResetWorkspace(ResetOptions{Mode: ResetKeep, Revision: string(fx.first), Quiet: true})
	if !errors.Is(err, ErrMergeConflict) {
		t.Fatalf("err = %v, want ErrMergeConflict", err)
	}

	if got := readWorkTreeFile(t, r, "a.txt"); got != "precious unstaged work\n" {
		t.Errorf("a.txt = %q, want the unstaged edit preserved", got)
	}
	if e := indexEntry(t, r, "a.txt"); e == nil || e.BlobHash != blobHashOf("A2\n") {
		t.Errorf("a.txt index entry = %+v, want blob of A2", e)
	}
	if h, _ := r.ResolveRef("HEAD"); h != fx.second {
		t.Errorf("HEAD = %v, want second commit", h)
	}
}

func TestMergeResetRefusesUnstagedEditOnChangedPath(t *testing.T) {
	r, fx := twoCommitRepo(t)

	writeWorkTreeFile(t, r, "a.txt", "precious unstaged work\n")

	err := r.ResetWorkspace(ResetOptions{Mode: ResetMerge, Revision: string(fx.first), Quiet: true})
	if !errors.Is(err, ErrMergeConflict) {
		t.Fatalf("err = %v, want ErrMergeConflict", err)
	}

	// Nothing was touched, c.txt's removal included.
	if got := readWorkTreeFile(t, r, "a.txt"); got != "precious unstaged work\n" {
		t.Errorf("a.txt = %q, want the unstaged edit preserved", got)
	}
	if got := readWorkTreeFile(t, r, "c.txt"); got != "C1\n" {
		t.Errorf("c.txt = %q, want C1", got)
	}
	if e := indexEntry(t, r, "c.txt"); e == nil {
		t.Error("c.txt index entry removed by an aborted reset")
	}
	if h, _ := r.ResolveRef("HEAD"); h != fx.second {
		t.Errorf("HEAD = %v, want second commit", h)
	}
}

func TestMergeResetKeepsUnstagedEditOnUnchangedPath(t *testing.T) {
	r, fx := twoCommitRepo(t)

	// b.txt is identical in both commits; an unstaged edit there rides
	// through the reset untouched.
	writeWorkTreeFile(t, r, "b.txt", "local edit\n")

	if err := r.ResetWorkspace(ResetOptions{Mode: ResetMerge, Revision: string(fx.first), Quiet: true}); err != nil {
		t.Fatalf("merge reset: %v", err)
	}

	if got := readWorkTreeFile(t, r, "b.txt"); got != "local edit\n" {
		t.Errorf("b.txt = %q, want the local edit preserved", got)
	}
	if got := readWorkTreeFile(t, r, "a.txt"); got != "A1\n" {
		t.Errorf("a.txt = %q, want A1", got)
	}
	if _, err := os.Stat(filepath.Join(r.RootDir, "c.txt")); !os.IsNotExist(err) {
		t.Errorf("c.txt should be removed (err=%v)", err)
	}
	if h, _ := r.ResolveRef("HEAD"); h != fx.first {
		t.Errorf("HEAD = %v, want first commit", h)
	}
}

func TestPathResetUnstagesWithoutMovingHead(t *testing.T) {
	r, fx := twoCommitRepo(t)

	writeWorkTreeFile(t, r, "a.txt", "staged edit\n")
	stageFiles(t, r, "a.txt")

	opts := ResetOptions{
		Revision: "HEAD",
		Paths:    pathspec.New([]string{"a.txt"}),
		Quiet:    true,
	}
	if err := r.ResetWorkspace(opts); err != nil {
		t.Fatalf("path reset: %v", err)
	}

	// The index entry is back to HEAD's blob, the working file keeps the
	// edit, and no ref moved.
	if e := indexEntry(t, r, "a.txt"); e == nil || e.BlobHash != blobHashOf("A2\n") {
		t.Errorf("a.txt index entry = %+v, want blob of A2", e)
	}
	if got := readWorkTreeFile(t, r, "a.txt"); got != "staged edit\n" {
		t.Errorf("a.txt worktree = %q, want the edit", got)
	}
	if h, _ := r.ResolveRef("HEAD"); h != fx.second {
		t.Errorf("HEAD moved to %v during a path reset", h)
	}
	if _, err := r.ResolveRef("ORIG_HEAD"); err == nil {
		t.Error("ORIG_HEAD should not exist after a path reset")
	}
}

func TestPathResetLeavesOtherEntriesAlone(t *testing.T) {
	r, fx := twoCommitRepo(t)

	writeWorkTreeFile(t, r, "a.txt", "edit a\n")
	writeWorkTreeFile(t, r, "b.txt", "edit b\n")
	stageFiles(t, r, "a.txt", "b.txt")

	opts := ResetOptions{
		Revision: string(fx.first),
		Paths:    pathspec.New([]string{"a.txt"}),
		Quiet:    true,
	}
	if err := r.ResetWorkspace(opts); err != nil {
		t.Fatalf("path reset: %v", err)
	}

	if e := indexEntry(t, r, "a.txt"); e == nil || e.BlobHash != blobHashOf("A1\n") {
		t.Errorf("a.txt = %+v, want first commit's blob", e)
	}
	if e := indexEntry(t, r, "b.txt"); e == nil || e.BlobHash != blobHashOf("edit b\n") {
		t.Errorf("b.txt = %+v, want the staged edit untouched", e)
	}
}

func TestPathResetToTreeHash(t *testing.T) {
	r, fx := twoCommitRepo(t)

	commit, err := r.Store.ReadCommit(fx.first)
	if err != nil {
		t.Fatalf("read first commit: %v", err)
	}

	opts := ResetOptions{
		Revision: string(commit.TreeHash),
		Paths:    pathspec.New([]string{"a.txt"}),
		Quiet:    true,
	}
	if err := r.ResetWorkspace(opts); err != nil {
		t.Fatalf("path reset to raw tree: %v", err)
	}
	if e := indexEntry(t, r, "a.txt"); e == nil || e.BlobHash != blobHashOf("A1\n") {
		t.Errorf("a.txt = %+v, want first tree's blob", e)
	}
}

func TestIntentToAddKeepsPlaceholder(t *testing.T) {
	r, _ := twoCommitRepo(t)

	writeWorkTreeFile(t, r, "new.txt", "fresh\n")
	stageFiles(t, r, "new.txt")

	if err := r.ResetWorkspace(ResetOptions{IntentToAdd: true, Quiet: true}); err != nil {
		t.Fatalf("reset -N: %v", err)
	}

	e := indexEntry(t, r, "new.txt")
	if e == nil {
		t.Fatal("new.txt dropped from index; want an intent-to-add placeholder")
	}
	if !e.IntentToAdd {
		t.Errorf("entry not marked intent-to-add: %+v", e)
	}

	// The placeholder blocks committing until content is staged.
	if _, err := r.Commit("should fail", "tester"); err == nil || !strings.Contains(err.Error(), "intent-to-add") {
		t.Errorf("commit err = %v, want intent-to-add refusal", err)
	}

	// Restaging the real content clears the placeholder.
	stageFiles(t, r, "new.txt")
	if _, err := r.Commit("third", "tester"); err != nil {
		t.Errorf("commit after restage: %v", err)
	}
}

func TestModeWithPathsRejected(t *testing.T) {
	r, fx := twoCommitRepo(t)

	for _, mode := range []ResetMode{ResetSoft, ResetHard, ResetMerge, ResetKeep} {
		opts := ResetOptions{
			Mode:     mode,
			Revision: string(fx.first),
			Paths:    pathspec.New([]string{"a.txt"}),
			Quiet:    true,
		}
		if err := r.ResetWorkspace(opts); !errors.Is(err, ErrIncompatibleMode) {
			t.Errorf("%s with paths: err = %v, want ErrIncompatibleMode", mode, err)
		}
	}
}

func TestMixedWithPathsWarnsDeprecated(t *testing.T) {
	r, _ := twoCommitRepo(t)

	// Quiet silences progress reports, never warnings.
	var out bytes.Buffer
	opts := ResetOptions{
		Mode:   ResetMixed,
		Paths:  pathspec.New([]string{"a.txt"}),
		Quiet:  true,
		Output: &out,
	}
	if err := r.ResetWorkspace(opts); err != nil {
		t.Fatalf("mixed path reset: %v", err)
	}
	if !strings.Contains(out.String(), "deprecated") {
		t.Errorf("missing deprecation warning: %q", out.String())
	}
}

func TestResetOnUnbornBranch(t *testing.T) {
	r := initTestRepo(t)

	writeWorkTreeFile(t, r, "a.txt", "A\n")
	stageFiles(t, r, "a.txt")

	if err := r.ResetWorkspace(ResetOptions{Quiet: true}); err != nil {
		t.Fatalf("unborn reset: %v", err)
	}

	// Index rewound to the empty tree; no refs were created.
	idx, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if len(idx.Entries) != 0 {
		t.Errorf("index not empty: %+v", idx.Entries)
	}
	if _, err := r.ResolveRef("HEAD"); err == nil {
		t.Error("HEAD should still be unborn")
	}
	if _, err := r.ResolveRef("ORIG_HEAD"); err == nil {
		t.Error("ORIG_HEAD should not exist")
	}
}

func TestOrigHeadTracksPreviousHead(t *testing.T) {
	r, fx := twoCommitRepo(t)

	if err := r.ResetWorkspace(ResetOptions{Mode: ResetMixed, Revision: string(fx.first), Quiet: true}); err != nil {
		t.Fatalf("first reset: %v", err)
	}
	if h, _ := r.ResolveRef("ORIG_HEAD"); h != fx.second {
		t.Errorf("ORIG_HEAD = %v, want second commit", h)
	}

	if err := r.ResetWorkspace(ResetOptions{Mode: ResetMixed, Revision: string(fx.second), Quiet: true}); err != nil {
		t.Fatalf("second reset: %v", err)
	}
	if h, _ := r.ResolveRef("ORIG_HEAD"); h != fx.first {
		t.Errorf("ORIG_HEAD = %v, want first commit", h)
	}
}

func TestHardResetIsIdempotent(t *testing.T) {
	r, fx := twoCommitRepo(t)

	for i := 0; i < 2; i++ {
		if err := r.ResetWorkspace(ResetOptions{Mode: ResetHard, Revision: string(fx.first), Quiet: true}); err != nil {
			t.Fatalf("hard reset %d: %v", i, err)
		}
	}

	if h, _ := r.ResolveRef("HEAD"); h != fx.first {
		t.Errorf("HEAD = %v, want first commit", h)
	}
	if got := readWorkTreeFile(t, r, "a.txt"); got != "A1\n" {
		t.Errorf("a.txt = %q, want A1", got)
	}
	// After the repeat, ORIG_HEAD records the first commit: the reset is a
	// no-op move from first to first.
	if h, _ := r.ResolveRef("ORIG_HEAD"); h != fx.first {
		t.Errorf("ORIG_HEAD = %v, want first commit", h)
	}
}

func TestResetReflogRecordsAction(t *testing.T) {
	r, fx := twoCommitRepo(t)

	t.Setenv(ReflogActionEnv, "rebase -i (pick)")

	if err := r.ResetWorkspace(ResetOptions{Mode: ResetMixed, Revision: string(fx.first), Quiet: true}); err != nil {
		t.Fatalf("reset: %v", err)
	}

	entries, err := r.ReadReflog("", 1)
	if err != nil {
		t.Fatalf("read reflog: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("reflog entries = %d, want 1", len(entries))
	}
	if entries[0].Reason != "rebase -i (pick): updating HEAD" {
		t.Errorf("reason = %q", entries[0].Reason)
	}
	if entries[0].NewHash != fx.first || entries[0].OldHash != fx.second {
		t.Errorf("reflog transition = %s -> %s", entries[0].OldHash, entries[0].NewHash)
	}
}

func TestResetDefaultReflogMessage(t *testing.T) {
	r, fx := twoCommitRepo(t)

	rev := string(fx.first)
	if err := r.ResetWorkspace(ResetOptions{Mode: ResetMixed, Revision: rev, Quiet: true}); err != nil {
		t.Fatalf("reset: %v", err)
	}

	entries, err := r.ReadReflog("", 1)
	if err != nil {
		t.Fatalf("read reflog: %v", err)
	}
	if len(entries) != 1 || entries[0].Reason != "reset: moving to "+rev {
		t.Errorf("reflog = %+v", entries)
	}
}

func TestResetClearsMergeState(t *testing.T) {
	r, fx := twoCommitRepo(t)

	mergeHead := filepath.Join(r.GritDir, "MERGE_HEAD")
	if err := os.WriteFile(mergeHead, []byte(string(fx.first)+"\n"), 0o644); err != nil {
		t.Fatalf("write MERGE_HEAD: %v", err)
	}

	if err := r.ResetWorkspace(ResetOptions{Mode: ResetHard, Revision: string(fx.first), Quiet: true}); err != nil {
		t.Fatalf("hard reset: %v", err)
	}

	if _, err := os.Stat(mergeHead); !os.IsNotExist(err) {
		t.Errorf("MERGE_HEAD should be cleared (err=%v)", err)
	}
}

func TestResetUnknownRevision(t *testing.T) {
	r, _ := twoCommitRepo(t)

	err := r.ResetWorkspace(ResetOptions{Revision: "no-such-branch", Quiet: true})
	if err == nil || !strings.Contains(err.Error(), "valid revision") {
		t.Errorf("err = %v, want revision resolution failure", err)
	}
}

func TestRefFailureLeavesIndexCommitted(t *testing.T) {
	r, fx := twoCommitRepo(t)

	// A held branch lock makes the pointer update fail after the index has
	// already been durably committed.
	lockPath := filepath.Join(r.GritDir, "refs", "heads", "main.lock")
	if err := os.WriteFile(lockPath, nil, 0o644); err != nil {
		t.Fatalf("plant lock: %v", err)
	}
	defer os.Remove(lockPath)

	err := r.ResetWorkspace(ResetOptions{Mode: ResetMixed, Revision: string(fx.first), Quiet: true})
	if !errors.Is(err, ErrLockContention) {
		t.Fatalf("err = %v, want ErrLockContention from the ref update", err)
	}

	// The index is ahead of the unmoved pointer; nothing was rolled back.
	if e := indexEntry(t, r, "a.txt"); e == nil || e.BlobHash != blobHashOf("A1\n") {
		t.Errorf("index entry = %+v, want the target's blob", e)
	}
	if h, _ := r.ResolveRef("HEAD"); h != fx.second {
		t.Errorf("HEAD = %v, want the old tip", h)
	}
}
