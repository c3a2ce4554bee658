package kfs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Discover yields the absolute paths of every regular file beneath root, in
// deterministic lexicographic order by canonical (forward-slash) relative
// path. Symlinks that resolve outside of root are skipped rather than
// followed, so a build can never escape its own directories by way of a
// symlink planted in the input tree.
func Discover(root string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to stat %q: %w", root, err)
	}

	var relPaths []string
	absByRel := make(map[string]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A vanished or unreadable entry is not fatal to discovery as a
			// whole; skip it and keep walking.
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		if info.Mode()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil
			}
			rel, err := filepath.Rel(root, resolved)
			if err != nil || rel == ".." || hasDotDotPrefix(rel) {
				// The symlink escapes root; skip it rather than follow it.
				return nil
			}
			targetInfo, err := os.Stat(resolved)
			if err != nil || !targetInfo.Mode().IsRegular() {
				return nil
			}
		} else if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		relPaths = append(relPaths, rel)
		absByRel[rel] = path
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to walk %q: %w", root, err)
	}

	sort.Slice(relPaths, func(i, j int) bool {
		return pathLess(relPaths[i], relPaths[j])
	})

	result := make([]string, len(relPaths))
	for i, rel := range relPaths {
		result[i] = absByRel[rel]
	}
	return result, nil
}

// hasDotDotPrefix reports whether rel climbs out of its base via a leading
// ".." component.
func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 2 && rel[0] == '.' && rel[1] == '.' &&
		(len(rel) == 2 || rel[2] == filepath.Separator)
}
