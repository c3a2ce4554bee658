package kfs

import (
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashFileMatchesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	digest, err := HashFile(path)
	require.NoError(t, err)

	sum := sha1.Sum([]byte("hello"))
	require.Equal(t, hex.EncodeToString(sum[:]), digest)
}

func TestHashFileCacheReflectsMutation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	first, err := HashFile(path)
	require.NoError(t, err)

	// "v1" and "v2x" differ in size, so the (path, size, mtime) cache key
	// changes even if the filesystem's mtime resolution is too coarse to
	// tell the two writes apart.
	require.NoError(t, os.WriteFile(path, []byte("v2x"), 0o644))

	second, err := HashFile(path)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestHashBytes(t *testing.T) {
	sum := sha1.Sum([]byte("payload"))
	require.Equal(t, hex.EncodeToString(sum[:]), HashBytes([]byte("payload")))
}
