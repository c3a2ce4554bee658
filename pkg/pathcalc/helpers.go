package pathcalc

import "path/filepath"

// filepathRel returns p's forward-slash position relative to root, and
// false if p does not lie under root.
func filepathRel(root, p string) (string, bool) {
	rel, err := filepath.Rel(root, p)
	if err != nil || len(rel) >= 2 && rel[:2] == ".." {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// filepathToSlash normalizes a filesystem path to forward slashes so it can
// be joined with path.Join (which always uses forward slashes) without
// producing a mixed-separator result on Windows.
func filepathToSlash(p string) string {
	return filepath.ToSlash(p)
}
