package kfs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kilnbuild/kiln/pkg/logging"
	"github.com/kilnbuild/kiln/pkg/must"
)

// temporaryNamePrefix marks intermediate files created during an atomic
// write so they're recognizable (and ignorable) if a crash leaves one
// behind.
const temporaryNamePrefix = ".kiln-tmp-"

// WriteFileAtomic writes data to path by way of an intermediate temporary
// file that is swapped into place with a rename, so a reader never observes
// a partially written file and a crash mid-write never corrupts the
// previous contents.
func WriteFileAtomic(path string, data []byte, permissions os.FileMode, logger *logging.Logger) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unable to create directory %q: %w", dir, err)
	}

	temporary, err := os.CreateTemp(dir, temporaryNamePrefix)
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}

	if _, err := temporary.Write(data); err != nil {
		must.Close(temporary, logger)
		must.Remove(temporary.Name(), logger)
		return fmt.Errorf("unable to write data to temporary file: %w", err)
	}

	if err := temporary.Close(); err != nil {
		must.Remove(temporary.Name(), logger)
		return fmt.Errorf("unable to close temporary file: %w", err)
	}

	if err := os.Chmod(temporary.Name(), permissions); err != nil {
		must.Remove(temporary.Name(), logger)
		return fmt.Errorf("unable to change file permissions: %w", err)
	}

	if err := os.Rename(temporary.Name(), path); err != nil {
		must.Remove(temporary.Name(), logger)
		return fmt.Errorf("unable to rename temporary file into place: %w", err)
	}

	return nil
}
