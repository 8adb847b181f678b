package repo

import (
	"strings"
	"testing"
)

func TestCommitChain(t *testing.T) {
	r := initTestRepo(t)

	writeWorkTreeFile(t, r, "a.txt", "one\n")
	stageFiles(t, r, "a.txt")
	first := commitAll(t, r, "first")

	writeWorkTreeFile(t, r, "a.txt", "two\n")
	stageFiles(t, r, "a.txt")
	second := commitAll(t, r, "second")

	c, err := r.Store.ReadCommit(second)
	if err != nil {
		t.Fatalf("read commit: %v", err)
	}
	if len(c.Parents) != 1 || c.Parents[0] != first {
		t.Errorf("parents = %v, want [%s]", c.Parents, first)
	}

	commits, err := r.Log(second, 0)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(commits) != 2 || commits[0].Message != "second" || commits[1].Message != "first" {
		t.Errorf("log order wrong: %+v", commits)
	}
}

func TestCommitNothingStaged(t *testing.T) {
	r := initTestRepo(t)
	if _, err := r.Commit("empty", "tester"); err == nil {
		t.Error("commit with empty index should fail")
	}
}

func TestCommitRejectsUnmergedIndex(t *testing.T) {
	r := initTestRepo(t)

	writeWorkTreeFile(t, r, "a.txt", "one\n")
	stageFiles(t, r, "a.txt")

	st, err := r.LockIndex()
	if err != nil {
		t.Fatalf("lock index: %v", err)
	}
	st.Idx.Entries["a.txt"].Stage = 2
	if err := st.Commit(); err != nil {
		t.Fatalf("commit index: %v", err)
	}

	if _, err := r.Commit("conflicted", "tester"); err == nil || !strings.Contains(err.Error(), "conflict") {
		t.Errorf("err = %v, want unresolved-conflict refusal", err)
	}
}

func TestCommitSigned(t *testing.T) {
	r := initTestRepo(t)

	writeWorkTreeFile(t, r, "a.txt", "one\n")
	stageFiles(t, r, "a.txt")

	signer := func(payload []byte) (string, error) {
		if len(payload) == 0 {
			t.Error("empty signing payload")
		}
		return "sshsig-v1:ssh-ed25519:pub:sig", nil
	}
	h, err := r.CommitWithSigner("signed", "tester", signer)
	if err != nil {
		t.Fatalf("signed commit: %v", err)
	}

	c, err := r.Store.ReadCommit(h)
	if err != nil {
		t.Fatalf("read commit: %v", err)
	}
	if c.Signature != "sshsig-v1:ssh-ed25519:pub:sig" {
		t.Errorf("signature = %q", c.Signature)
	}
}

func TestCommitReusesPrimedTreeDigest(t *testing.T) {
	r, fx := twoCommitRepo(t)

	// A hard reset primes the cached tree digest; an immediate commit with
	// no index edits reuses it, producing the same tree as the target.
	if err := r.ResetWorkspace(ResetOptions{Mode: ResetHard, Revision: string(fx.first), Quiet: true}); err != nil {
		t.Fatalf("hard reset: %v", err)
	}

	idx, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	firstCommit, err := r.Store.ReadCommit(fx.first)
	if err != nil {
		t.Fatalf("read first commit: %v", err)
	}
	if idx.TreeDigest != firstCommit.TreeHash {
		t.Errorf("primed digest = %v, want %v", idx.TreeDigest, firstCommit.TreeHash)
	}

	h := commitAll(t, r, "retip")
	c, err := r.Store.ReadCommit(h)
	if err != nil {
		t.Fatalf("read new commit: %v", err)
	}
	if c.TreeHash != firstCommit.TreeHash {
		t.Errorf("tree = %v, want reused %v", c.TreeHash, firstCommit.TreeHash)
	}
}
