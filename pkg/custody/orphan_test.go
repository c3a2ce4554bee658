package custody

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilnbuild/kiln/pkg/logging"
)

func TestOrphansDiffsPreviousAgainstCurrent(t *testing.T) {
	dirs := storeTestDirs(t)
	store := &Store{
		dirs:   dirs,
		logger: logging.RootLogger,
		graph:  NewGraph(),
		meta:   NewMetaStore(),
	}
	store.graph.AddEdge("output_dir/kept.html", "input_dir/kept.md", []string{"output_dir/kept.html"})

	store.previous = &File{
		Graph: func() Graph {
			g := NewGraph()
			g.AddEdge("output_dir/kept.html", "input_dir/kept.md", []string{"output_dir/kept.html"})
			g.AddEdge("output_dir/stale.html", "input_dir/stale.md", []string{"output_dir/stale.html"})
			return g
		}(),
		Meta: NewMetaStore(),
	}

	assert.Equal(t, []string{"output_dir/stale.html"}, store.Orphans())
}

func TestRemoveOrphansDeletesFileAndPrunesEmptyDir(t *testing.T) {
	dirs := storeTestDirs(t)
	store := &Store{
		dirs:   dirs,
		logger: logging.RootLogger,
		graph:  NewGraph(),
		meta:   NewMetaStore(),
	}

	nestedDir := filepath.Join(dirs.Output, "nested")
	require.NoError(t, os.MkdirAll(nestedDir, 0o755))
	stalePath := filepath.Join(nestedDir, "stale.html")
	require.NoError(t, os.WriteFile(stalePath, []byte("x"), 0o644))

	store.previous = &File{
		Graph: func() Graph {
			g := NewGraph()
			g.AddEdge("output_dir/nested/stale.html", "input_dir/stale.md", []string{"output_dir/nested/stale.html"})
			return g
		}(),
		Meta: NewMetaStore(),
	}

	require.NoError(t, store.RemoveOrphans())

	_, err := os.Stat(stalePath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(nestedDir)
	assert.True(t, os.IsNotExist(err), "empty nested dir should be pruned")
	_, err = os.Stat(dirs.Output)
	assert.NoError(t, err, "output root itself must survive pruning")
}

func TestPruneEmptyUpwardStopsAtRoot(t *testing.T) {
	dir := t.TempDir()
	roots := map[string]bool{filepath.Clean(dir): true}
	pruneEmptyUpward(dir, roots)

	_, err := os.Stat(dir)
	assert.NoError(t, err)
}

func TestPruneEmptyUpwardLeavesNonEmptyDirAlone(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644))
	pruneEmptyUpward(dir, map[string]bool{})

	_, err := os.Stat(dir)
	assert.NoError(t, err)
}
