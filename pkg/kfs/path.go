// Package kfs provides the filesystem primitives shared by the custody,
// rule, and engine packages: deterministic discovery, atomic writes, content
// hashing, and cache-key canonicalization.
package kfs

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/kilnbuild/kiln/pkg/kiln"
)

// pathLess performs a sort comparison between two forward-slash-separated
// relative paths, ordering by path component so that a directory's entries
// sort together in depth-first order.
func pathLess(first, second string) bool {
	if first == second {
		return false
	}
	for {
		fi := strings.IndexByte(first, '/')
		si := strings.IndexByte(second, '/')

		var fc, sc string
		if fi == -1 {
			fc = first
		} else {
			fc = first[:fi]
		}
		if si == -1 {
			sc = second
		} else {
			sc = second[:si]
		}

		if fc < sc {
			return true
		} else if sc < fc {
			return false
		}

		if fi == -1 {
			return si != -1
		} else if si == -1 {
			return false
		}
		first = first[fi+1:]
		second = second[si+1:]
	}
}

// relativeKey finds the named directory (if any) that contains path, and
// returns that name along with path's forward-slash, NFC-normalized position
// relative to it.
func relativeKey(dirs kiln.ContextDirs, path string) (kiln.DirName, string, bool) {
	candidates := []kiln.DirName{kiln.InputDir, kiln.OutputDir, kiln.WorkingDir}
	for _, name := range candidates {
		root, _ := dirs.Resolve(name)
		if root == "" {
			continue
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if rel == "." {
			rel = ""
		}
		return name, filepath.ToSlash(rel), true
	}
	return "", "", false
}

// CanonicalKey computes the directory-prefixed cache key for path:
// "input_dir/foo/bar.md" rather than an absolute path, so the cache is
// portable across machines with different directory roots. Unicode
// filename components are normalized to NFC before the key is formed, since a
// filesystem that returns decomposed (NFD) names would otherwise produce a
// different key for the same logical name on every scan.
func CanonicalKey(dirs kiln.ContextDirs, path string) (string, bool) {
	name, rel, ok := relativeKey(dirs, path)
	if !ok {
		return "", false
	}
	rel = norm.NFC.String(rel)
	if rel == "" {
		return string(name), true
	}
	return string(name) + "/" + rel, true
}

// SplitKey reverses CanonicalKey, returning the directory name prefix and the
// relative path portion of a cache key.
func SplitKey(key string) (kiln.DirName, string) {
	idx := strings.IndexByte(key, '/')
	if idx == -1 {
		return kiln.DirName(key), ""
	}
	return kiln.DirName(key[:idx]), key[idx+1:]
}

// ResolveKey turns a canonical cache key back into an absolute filesystem
// path under the current ContextDirs.
func ResolveKey(dirs kiln.ContextDirs, key string) (string, bool) {
	name, rel := SplitKey(key)
	root, ok := dirs.Resolve(name)
	if !ok {
		return "", false
	}
	if rel == "" {
		return root, true
	}
	return filepath.Join(root, filepath.FromSlash(rel)), true
}
