package custody

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/kilnbuild/kiln/pkg/kfs"
	"github.com/kilnbuild/kiln/pkg/must"
)

// Orphans returns the sorted list of output keys present in the previously
// loaded graph but absent from the graph accumulated this run — outputs a
// prior run produced that nothing produced this time.
func (s *Store) Orphans() []string {
	current := make(map[string]bool, len(s.graph))
	for _, o := range s.graph.Outputs() {
		current[o] = true
	}

	var orphans []string
	for _, o := range s.PreviousGraph().Outputs() {
		if !current[o] {
			orphans = append(orphans, o)
		}
	}
	sort.Strings(orphans)
	return orphans
}

// RemoveOrphans deletes every orphaned output file (ignoring already-absent
// files) and then prunes any directory left empty by those deletions,
// walking upward from each deleted file's parent until a non-empty or
// out-of-tree directory is reached.
func (s *Store) RemoveOrphans() error {
	orphans := s.Orphans()
	if len(orphans) == 0 {
		return nil
	}

	dirsToCheck := make(map[string]bool)
	for _, key := range orphans {
		abs, ok := kfs.ResolveKey(s.dirs, key)
		if !ok {
			continue
		}
		must.Remove(abs, s.logger)
		dirsToCheck[filepath.Dir(abs)] = true
	}

	roots := map[string]bool{}
	if s.dirs.Output != "" {
		roots[filepath.Clean(s.dirs.Output)] = true
	}
	if s.dirs.Working != "" {
		roots[filepath.Clean(s.dirs.Working)] = true
	}

	for dir := range dirsToCheck {
		pruneEmptyUpward(dir, roots)
	}
	return nil
}

// pruneEmptyUpward removes dir and its ancestors while each is empty,
// stopping at (and never removing) one of roots or the filesystem root.
func pruneEmptyUpward(dir string, roots map[string]bool) {
	for {
		if dir == "" || dir == "." || dir == string(filepath.Separator) || roots[filepath.Clean(dir)] {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
