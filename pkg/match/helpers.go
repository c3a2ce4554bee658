package match

import "path/filepath"

// relativeTo returns p's forward-slash position relative to root, and false
// if p does not lie under root at all.
func relativeTo(root, p string) (string, bool) {
	rel, err := filepath.Rel(root, p)
	if err != nil || len(rel) >= 2 && rel[:2] == ".." {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
