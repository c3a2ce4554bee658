package custody

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilnbuild/kiln/pkg/logging"
)

func TestSaveFileThenLoadFileRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	logger := logging.RootLogger

	f := newFile()
	f.Parameters["theme"] = "dark"
	f.Graph.AddEdge("output_dir/a.html", "input_dir/a.md", []string{"output_dir/a.html"})
	f.Meta["input_dir/a.md"] = NewPathEntry("input_dir/a.md", "deadbeef", 1.5, 10)

	require.NoError(t, saveFile(path, f, logger))

	loaded, err := loadFile(path, logger)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, "dark", loaded.Parameters["theme"])
	assert.Equal(t, []string{"output_dir/a.html"}, loaded.Graph.Outputs())

	entry := loaded.Meta["input_dir/a.md"]
	sha1, mtime, size, ok := entry.PathMeta()
	assert.True(t, ok)
	assert.Equal(t, "deadbeef", sha1)
	assert.Equal(t, 1.5, mtime)
	assert.Equal(t, int64(10), size)
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	f, err := loadFile(path, logging.RootLogger)
	assert.NoError(t, err)
	assert.Nil(t, f)
}

func TestLoadFileCorruptStartsFresh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0o644))

	f, err := loadFile(path, logging.RootLogger)
	assert.NoError(t, err)
	assert.Nil(t, f)
}
