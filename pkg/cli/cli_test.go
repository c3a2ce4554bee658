package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverlayMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	restore := chdir(t, dir)
	defer restore()

	o, err := loadOverlay()
	require.NoError(t, err)
	assert.Equal(t, overlay{}, o)
}

func TestLoadOverlayParsesYAML(t *testing.T) {
	dir := t.TempDir()
	restore := chdir(t, dir)
	defer restore()

	content := "input_dir: ./site\noutput_dir: ./dist\npurge: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kiln.yaml"), []byte(content), 0o644))

	o, err := loadOverlay()
	require.NoError(t, err)
	assert.Equal(t, "./site", o.InputDir)
	assert.Equal(t, "./dist", o.OutputDir)
	assert.True(t, o.Purge)
}

func TestApplyOverlayOnlyFillsZeroValues(t *testing.T) {
	flags := &buildFlags{inputDir: "/explicit/input"}
	applyOverlay(flags, overlay{InputDir: "/overlay/input", OutputDir: "/overlay/output", Purge: true})

	assert.Equal(t, "/explicit/input", flags.inputDir, "an explicit flag must win over the overlay")
	assert.Equal(t, "/overlay/output", flags.outputDir)
	assert.True(t, flags.purge)
}

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(prev) }
}
