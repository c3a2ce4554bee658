package pathcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilnbuild/kiln/pkg/kiln"
	"github.com/kilnbuild/kiln/pkg/match"
)

func testDirs(t *testing.T) kiln.ContextDirs {
	t.Helper()
	base := t.TempDir()
	return kiln.ContextDirs{
		Input:   base + "/in",
		Output:  base + "/out",
		Working: base + "/work",
	}
}

func TestDirRelativeReRoots(t *testing.T) {
	dirs := testDirs(t)
	c, err := NewDirRelative(kiln.OutputDir, "", nil)
	require.NoError(t, err)

	out, err := c.Calculate(dirs, dirs.Input+"/posts/hello.md", match.Unit{})
	require.NoError(t, err)
	assert.Equal(t, dirs.Output+"/posts/hello.md", out)
}

func TestDirRelativeSwapsExtension(t *testing.T) {
	dirs := testDirs(t)
	c, err := NewDirRelative(kiln.OutputDir, ".html", nil)
	require.NoError(t, err)

	out, err := c.Calculate(dirs, dirs.Input+"/posts/hello.md", match.Unit{})
	require.NoError(t, err)
	assert.Equal(t, dirs.Output+"/posts/hello.html", out)
}

func TestDirRelativeSwapsCompoundExtensionViaWitness(t *testing.T) {
	dirs := testDirs(t)
	c, err := NewDirRelative(kiln.OutputDir, ".txt", nil)
	require.NoError(t, err)

	w := match.RegexWitness{}
	_ = w
	re, err := match.NewRegex(`^(?P<stem>.+)(?P<ext>\.tar\.gz)$`, kiln.InputDir)
	require.NoError(t, err)
	witness := re.Match(dirs, dirs.Input+"/archive.tar.gz")
	require.True(t, witness.Matched())

	out, err := c.Calculate(dirs, dirs.Input+"/archive.tar.gz", witness)
	require.NoError(t, err)
	assert.Equal(t, dirs.Output+"/archive.txt", out)
}

func TestDirRelativeAppliesTransform(t *testing.T) {
	dirs := testDirs(t)
	c, err := NewDirRelative(kiln.OutputDir, "", func(rel string) string {
		return "prefixed/" + rel
	})
	require.NoError(t, err)

	out, err := c.Calculate(dirs, dirs.Input+"/a.md", match.Unit{})
	require.NoError(t, err)
	assert.Equal(t, dirs.Output+"/prefixed/a.md", out)
}

func TestDirRelativeUsesWitnessRelativePath(t *testing.T) {
	dirs := testDirs(t)
	c, err := NewDirRelative(kiln.OutputDir, "", nil)
	require.NoError(t, err)

	// An explicit relative path from the witness overrides the input path's
	// position relative to input_dir, e.g. when a glob matched rooted in
	// working_dir instead.
	out, err := c.Calculate(dirs, dirs.Working+"/scratch/a.md", match.GlobWitness{RelativePath: "a.md"})
	require.NoError(t, err)
	assert.Equal(t, dirs.Output+"/a.md", out)
}

func TestDirRelativeRejectsPathOutsideInput(t *testing.T) {
	dirs := testDirs(t)
	c, err := NewDirRelative(kiln.OutputDir, "", nil)
	require.NoError(t, err)

	_, err = c.Calculate(dirs, dirs.Output+"/stray.md", match.Unit{})
	assert.Error(t, err)
}

func TestNewDirRelativeRejectsEmptyExplicitTarget(t *testing.T) {
	_, err := NewDirRelative("", "", nil)
	assert.Error(t, err)
}

func TestNewDirRelativeRejectsBadTargetType(t *testing.T) {
	_, err := NewDirRelative(42, "", nil)
	assert.Error(t, err)
}
