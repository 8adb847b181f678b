package repo

import (
	"testing"

	"github.com/odvcencio/grit/pkg/object"
)

func TestBuildAndFlattenTree(t *testing.T) {
	r := initTestRepo(t)

	writeWorkTreeFile(t, r, "a.txt", "A\n")
	writeWorkTreeFile(t, r, "pkg/util/u.go", "package util\n")
	writeWorkTreeFile(t, r, "pkg/main.go", "package main\n")
	stageFiles(t, r, "a.txt", "pkg/util/u.go", "pkg/main.go")

	idx, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	treeHash, err := r.BuildTree(idx)
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}

	entries, err := r.FlattenTree(treeHash)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	byPath := make(map[string]TreeFileEntry)
	for _, e := range entries {
		byPath[e.Path] = e
	}
	for _, p := range []string{"a.txt", "pkg/util/u.go", "pkg/main.go"} {
		if _, ok := byPath[p]; !ok {
			t.Errorf("missing %s in flattened tree", p)
		}
	}
}

func TestBuildTreeDeterministic(t *testing.T) {
	r := initTestRepo(t)

	writeWorkTreeFile(t, r, "a.txt", "A\n")
	writeWorkTreeFile(t, r, "b/b.txt", "B\n")
	stageFiles(t, r, "a.txt", "b/b.txt")

	idx, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	h1, err := r.BuildTree(idx)
	if err != nil {
		t.Fatalf("build 1: %v", err)
	}
	h2, err := r.BuildTree(idx)
	if err != nil {
		t.Fatalf("build 2: %v", err)
	}
	if h1 != h2 {
		t.Errorf("tree hashes differ: %v vs %v", h1, h2)
	}
}

func TestEmptyIndexBuildsEmptyTree(t *testing.T) {
	r := initTestRepo(t)

	idx, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	h, err := r.BuildTree(idx)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if h != object.EmptyTreeHash {
		t.Errorf("empty index tree = %v, want canonical empty tree", h)
	}
}

func TestTreeIterEmitsEveryPath(t *testing.T) {
	r := initTestRepo(t)

	paths := []string{"a.txt", "a/b.txt", "z.txt", "pkg/deep/nested/f.go"}
	for _, p := range paths {
		writeWorkTreeFile(t, r, p, p+"\n")
	}
	stageFiles(t, r, paths...)

	idx, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	treeHash, err := r.BuildTree(idx)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	it, err := newTreeIter(r, treeHash)
	if err != nil {
		t.Fatalf("iter: %v", err)
	}
	var got []string
	for {
		e, ok, err := it.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, e.Path)
	}
	if len(got) != len(paths) {
		t.Fatalf("emitted %v, want %d paths", got, len(paths))
	}

	// Emission order follows the component-wise comparator, so two
	// iterators over different trees can be advanced in lockstep.
	for i := 1; i < len(got); i++ {
		if !pathLess(got[i-1], got[i]) {
			t.Errorf("order violation: %q before %q", got[i-1], got[i])
		}
	}
}

func TestPathLess(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"a.txt", "b.txt", true},
		{"b.txt", "a.txt", false},
		{"a.txt", "a.txt", false},
		{"a/b.txt", "a.txt", true},
		{"a.txt", "a/b.txt", false},
		{"a/b.txt", "a/c.txt", true},
		{"pkg/a.go", "pkg/sub/a.go", true},
	}
	for _, c := range cases {
		if got := pathLess(c.a, c.b); got != c.want {
			t.Errorf("pathLess(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
