package repo

import (
	"errors"
	"fmt"
	"strings"
)

// resetRefs advances the branch pointer to the target commit, recording the
// previous head in ORIG_HEAD first. Invoked only after the index has been
// durably committed; a failure here is reported but never rolls the index
// back.
//
// The ORIG_HEAD bookkeeping is a four-case table over (marker present,
// pointer present):
//
//	pointer present              → ORIG_HEAD := pointer   (CAS on old marker)
//	pointer absent, marker set   → delete ORIG_HEAD       (CAS on old marker)
//	pointer absent, marker unset → nothing to record
//
// followed in every case by the pointer write itself, CAS'd against the
// previously observed pointer value. Every write is guarded against
// concurrent movers: a ref that changed underneath fails with
// ErrRefCASMismatch instead of being silently overwritten.
func (r *Repo) resetRefs(rev string, target resetTarget) error {
	oldOrig, err := readRefHash(r.refFilePath("ORIG_HEAD"))
	if err != nil {
		return fmt.Errorf("read ORIG_HEAD: %w", err)
	}

	curHead, headErr := r.ResolveRef("HEAD")

	// Marker bookkeeping failures are carried forward rather than stopping
	// the pointer update, mirroring the reference behavior.
	var markerErr error
	if headErr == nil {
		markerErr = r.updateRefCAS("ORIG_HEAD", curHead, reflogMessage("updating ORIG_HEAD", ""), oldOrig)
	} else if oldOrig != "" {
		// No pointer to record; clean the now-stale marker instead of
		// leaving it dangling.
		markerErr = r.DeleteRefCAS("ORIG_HEAD", oldOrig)
	}

	// The pointer write follows the symbolic ref so the branch itself
	// moves; a detached HEAD is updated in place.
	refName := "HEAD"
	if head, err := r.Head(); err == nil && strings.HasPrefix(head, "refs/") {
		refName = head
	}

	var updateErr error
	if headErr == nil {
		updateErr = r.updateRefCAS(refName, target.CommitHash, reflogMessage("updating HEAD", rev), curHead)
	} else {
		updateErr = r.updateRefCAS(refName, target.CommitHash, reflogMessage("updating HEAD", rev))
	}

	return errors.Join(markerErr, updateErr)
}
