package kfs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilnbuild/kiln/pkg/kiln"
)

func TestPathLess(t *testing.T) {
	cases := []struct {
		first, second string
		expected       bool
	}{
		{"a", "b", true},
		{"b", "a", false},
		{"a", "a", false},
		{"a/z", "b/a", true},
		{"a/z", "a/b", false},
		{"a", "a/b", true},
		{"a/b", "a", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, pathLess(c.first, c.second), "%q < %q", c.first, c.second)
	}
}

func testDirs(t *testing.T) kiln.ContextDirs {
	t.Helper()
	root := t.TempDir()
	return kiln.ContextDirs{
		Input:   filepath.Join(root, "input"),
		Output:  filepath.Join(root, "output"),
		Working: filepath.Join(root, "work"),
	}
}

func TestCanonicalKeyRoundTrip(t *testing.T) {
	dirs := testDirs(t)

	key, ok := CanonicalKey(dirs, filepath.Join(dirs.Input, "foo", "bar.md"))
	require.True(t, ok)
	assert.Equal(t, "input_dir/foo/bar.md", key)

	back, ok := ResolveKey(dirs, key)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dirs.Input, "foo", "bar.md"), back)
}

func TestCanonicalKeyOutsideKnownDirs(t *testing.T) {
	dirs := testDirs(t)
	_, ok := CanonicalKey(dirs, filepath.Join(t.TempDir(), "elsewhere.txt"))
	assert.False(t, ok)
}

func TestSplitKeyNoSlash(t *testing.T) {
	name, rel := SplitKey("input_dir")
	assert.Equal(t, kiln.InputDir, name)
	assert.Equal(t, "", rel)
}
