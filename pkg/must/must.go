// Package must provides helpers for cleanup operations that should be
// attempted but whose failure shouldn't abort whatever operation triggered
// them (typically deferred closes and best-effort removals).
package must

import (
	"io"
	"os"

	"github.com/kilnbuild/kiln/pkg/logging"
)

// Close closes c, logging a warning (rather than returning an error) if the
// close fails.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("unable to close: %s", err.Error())
	}
}

// Remove removes the file at path, logging a warning if the removal fails
// for any reason other than the file already being absent.
func Remove(path string, logger *logging.Logger) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warnf("unable to remove %q: %s", path, err.Error())
	}
}

// RemoveAll removes path and any children, logging a warning on failure.
func RemoveAll(path string, logger *logging.Logger) {
	if err := os.RemoveAll(path); err != nil {
		logger.Warnf("unable to remove %q: %s", path, err.Error())
	}
}
