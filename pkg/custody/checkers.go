package custody

import (
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kilnbuild/kiln/pkg/kfs"
	"github.com/kilnbuild/kiln/pkg/kiln"
)

// Checker is a freshness predicate for one custody entry kind: given the
// entry as last recorded, it reports whether that entry is still current.
// The "path" and "glob_manifest" kinds are mandatory and pre-registered by
// NewStore; additional kinds (e.g. URL fetches keyed by ETag) are
// registered by transforms via Store.RegisterKind.
type Checker func(dirs kiln.ContextDirs, entry Entry) (bool, error)

// pathChecker implements the staleness check for the mandatory "path"
// kind: the file named by entry.Key must exist and hash to entry's
// recorded sha1 (with an m_time/size short-circuit).
func pathChecker(dirs kiln.ContextDirs, entry Entry) (bool, error) {
	sha1, mtime, size, ok := entry.PathMeta()
	if !ok {
		return false, nil
	}

	abs, ok := kfs.ResolveKey(dirs, entry.Key)
	if !ok {
		return false, nil
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	if float64(info.ModTime().UnixNano())/1e9 == mtime && info.Size() == size {
		return true, nil
	}

	currentSHA1, err := kfs.HashFile(abs)
	if err != nil {
		return false, err
	}
	return currentSHA1 == sha1, nil
}

// globManifestChecker implements the staleness check for the mandatory
// "glob_manifest" kind: re-resolve the pattern rooted in the named
// directory embedded in the key (e.g. "working_dir:*.py") and compare the
// resulting ordered file list to the one recorded in meta.
func globManifestChecker(dirs kiln.ContextDirs, entry Entry) (bool, error) {
	recorded, ok := entry.GlobManifestFiles()
	if !ok {
		return false, nil
	}

	dirName, pattern, ok := splitGlobManifestKey(entry.Key)
	if !ok {
		return false, nil
	}
	root, ok := dirs.Resolve(dirName)
	if !ok {
		return false, nil
	}

	current, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return false, err
	}

	if len(current) != len(recorded) {
		return false, nil
	}
	for i := range current {
		if current[i] != recorded[i] {
			return false, nil
		}
	}
	return true, nil
}

// splitGlobManifestKey splits a "dirname:pattern" glob_manifest key.
func splitGlobManifestKey(key string) (kiln.DirName, string, bool) {
	idx := strings.IndexByte(key, ':')
	if idx == -1 {
		return "", "", false
	}
	return kiln.DirName(key[:idx]), key[idx+1:], true
}

// GlobManifestKey builds the canonical key for a glob_manifest entry rooted
// in dirName (e.g. GlobManifestKey(kiln.WorkingDir, "*.py") ->
// "working_dir:*.py").
func GlobManifestKey(dirName kiln.DirName, pattern string) string {
	return string(dirName) + ":" + pattern
}
