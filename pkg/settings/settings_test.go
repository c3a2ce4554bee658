package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRequiresInputDir(t *testing.T) {
	_, err := Resolve(Input{})
	assert.Error(t, err)
}

func TestResolveDefaultsOutputDirUnderInput(t *testing.T) {
	base := t.TempDir()
	s, err := Resolve(Input{InputDir: base, WorkingDir: filepath.Join(base, "..", "work")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dirs.Input, "build"), s.Dirs.Output)
}

func TestResolveRejectsOutputEqualToInput(t *testing.T) {
	base := t.TempDir()
	_, err := Resolve(Input{InputDir: base, OutputDir: base})
	assert.Error(t, err)
}

func TestResolveRejectsWorkingEqualToOutput(t *testing.T) {
	base := t.TempDir()
	out := filepath.Join(base, "out")
	_, err := Resolve(Input{InputDir: base, OutputDir: out, WorkingDir: out})
	assert.Error(t, err)
}

func TestResolveGeneratesUniqueWorkingDirWhenUnset(t *testing.T) {
	base := t.TempDir()
	out := filepath.Join(base, "out")
	s1, err := Resolve(Input{InputDir: base, OutputDir: out})
	require.NoError(t, err)
	s2, err := Resolve(Input{InputDir: base, OutputDir: out})
	require.NoError(t, err)
	assert.NotEqual(t, s1.Dirs.Working, s2.Dirs.Working)
}

func TestParametersReflectResolvedDirs(t *testing.T) {
	base := t.TempDir()
	s, err := Resolve(Input{InputDir: base, WorkingDir: filepath.Join(base, "..", "work")})
	require.NoError(t, err)

	params := s.Parameters()
	assert.Equal(t, s.Dirs.Input, params["input_dir"])
	assert.Equal(t, s.Dirs.Output, params["output_dir"])
	assert.Equal(t, s.Dirs.Working, params["working_dir"])
}

func TestResolveSetsPurgeDirsFromInput(t *testing.T) {
	base := t.TempDir()
	s, err := Resolve(Input{InputDir: base, WorkingDir: filepath.Join(base, "..", "work"), PurgeDirs: true})
	require.NoError(t, err)
	assert.True(t, s.PurgeDirs)
}
