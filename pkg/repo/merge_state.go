package repo

import (
	"fmt"
	"os"
	"path/filepath"
)

// mergeStateFiles are the markers left behind by an interrupted merge or
// cherry-pick. Their presence means "operation in progress".
var mergeStateFiles = []string{"MERGE_HEAD", "MERGE_MSG", "CHERRY_PICK_HEAD"}

// MergeInProgress reports whether a merge has been started but not yet
// concluded.
func (r *Repo) MergeInProgress() bool {
	_, err := os.Stat(filepath.Join(r.GritDir, "MERGE_HEAD"))
	return err == nil
}

// clearBranchState removes in-progress merge/cherry-pick markers. Called
// after a whole-tree reset concludes; missing files are fine.
func (r *Repo) clearBranchState() error {
	for _, name := range mergeStateFiles {
		p := filepath.Join(r.GritDir, name)
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("clear branch state: remove %s: %w", name, err)
		}
	}
	return nil
}
