package repo

import (
	"fmt"
	"path"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
)

// treeIter streams a tree's file entries in path order without materializing
// the whole tree. Subtrees are opened lazily as the iteration descends into
// them, so at most one tree object per depth level is resident at a time.
//
// Since tree entries are sorted by name and the walk is depth-first, any two
// iterators emit shared paths in the same relative order (the order defined
// by pathLess), which the pairwise merge strategies rely on to advance two
// iterators in lockstep.
type treeIter struct {
	repo  *Repo
	stack []treeFrame
}

type treeFrame struct {
	prefix  string
	entries []object.TreeEntry
	pos     int
}

// newTreeIter opens an iterator over the tree identified by h. A load
// failure of the root is reported immediately, wrapped as ErrMissingTree.
func newTreeIter(r *Repo, h object.Hash) (*treeIter, error) {
	it := &treeIter{repo: r}
	if err := it.push("", h); err != nil {
		return nil, err
	}
	return it, nil
}

func (it *treeIter) push(prefix string, h object.Hash) error {
	treeObj, err := it.repo.Store.ReadTree(h)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMissingTree, h, err)
	}
	it.stack = append(it.stack, treeFrame{prefix: prefix, entries: treeObj.Entries})
	return nil
}

// Next returns the next file entry in path order. ok is false when the walk
// is exhausted.
func (it *treeIter) Next() (entry TreeFileEntry, ok bool, err error) {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		if top.pos >= len(top.entries) {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}

		e := top.entries[top.pos]
		top.pos++

		fullPath := e.Name
		if top.prefix != "" {
			fullPath = path.Join(top.prefix, e.Name)
		}

		if e.IsDir {
			if err := it.push(fullPath, e.SubtreeHash); err != nil {
				return TreeFileEntry{}, false, err
			}
			continue
		}

		return TreeFileEntry{
			Path:     fullPath,
			Mode:     normalizeFileMode(e.Mode),
			BlobHash: e.BlobHash,
		}, true, nil
	}
	return TreeFileEntry{}, false, nil
}

// pathLess orders slash-separated paths component by component, matching the
// emission order of treeIter. Plain string comparison would misorder
// siblings like "a.txt" against files under a directory "a/".
func pathLess(a, b string) bool {
	for {
		ai := strings.IndexByte(a, '/')
		bi := strings.IndexByte(b, '/')

		aComp, bComp := a, b
		if ai >= 0 {
			aComp = a[:ai]
		}
		if bi >= 0 {
			bComp = b[:bi]
		}

		if aComp != bComp {
			return aComp < bComp
		}
		if ai < 0 || bi < 0 {
			// Identical leading component; the shorter path is a file where
			// the longer descends into a directory of the same name.
			return ai < 0 && bi >= 0
		}
		a, b = a[ai+1:], b[bi+1:]
	}
}
