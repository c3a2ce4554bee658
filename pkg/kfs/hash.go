package kfs

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/golang/groupcache/lru"
)

// hashCacheCapacity bounds the number of memoized digests kept per process.
// A single run rarely touches more files than this, but the bound keeps
// memory use predictable for very large trees.
const hashCacheCapacity = 8192

// digestCache memoizes SHA-1 digests by a (path, size, modification time)
// key so that a file visited more than once in a single run (e.g. once by a
// skip-check and again by a later fan-in lookup) is only read from disk
// once.
var digestCache = struct {
	sync.Mutex
	lru *lru.Cache
}{lru: lru.New(hashCacheCapacity)}

type digestCacheKey struct {
	path  string
	size  int64
	mtime int64
}

// HashFile computes the SHA-1 digest of the file at path, over raw bytes
// with no normalization.
func HashFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("unable to stat %q: %w", path, err)
	}

	key := digestCacheKey{path: path, size: info.Size(), mtime: info.ModTime().UnixNano()}

	digestCache.Lock()
	if cached, ok := digestCache.lru.Get(key); ok {
		digestCache.Unlock()
		return cached.(string), nil
	}
	digestCache.Unlock()

	digest, err := hashFileUncached(path)
	if err != nil {
		return "", err
	}

	digestCache.Lock()
	digestCache.lru.Add(key, digest)
	digestCache.Unlock()

	return digest, nil
}

func hashFileUncached(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("unable to open %q: %w", path, err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("unable to read %q: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes computes the SHA-1 digest of raw in-memory content, for a
// caller that already holds the bytes and needs no read-back from disk. The
// custody store itself always hashes files on disk via HashFile.
func HashBytes(content []byte) string {
	sum := sha1.Sum(content)
	return hex.EncodeToString(sum[:])
}
