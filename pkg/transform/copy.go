package transform

import (
	"fmt"
	"io"
	"os"

	"github.com/kilnbuild/kiln/pkg/kfs"
	"github.com/kilnbuild/kiln/pkg/logging"
	"github.com/kilnbuild/kiln/pkg/must"
)

// Copy is the reference transform: it writes inputPath's bytes verbatim to
// every path in outputPaths, preserving the input file's permission bits.
// It is the transform a rule uses when a file should simply be relocated
// (static assets, already-rendered files) rather than reinterpreted.
type Copy struct {
	Logger *logging.Logger
}

// Run implements Transform.
func (c Copy) Run(inputPath string, outputPaths []string) (Result, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return Result{}, fmt.Errorf("unable to stat %q: %w", inputPath, err)
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return Result{}, fmt.Errorf("unable to open %q: %w", inputPath, err)
	}
	defer must.Close(in, c.Logger)

	content, err := io.ReadAll(in)
	if err != nil {
		return Result{}, fmt.Errorf("unable to read %q: %w", inputPath, err)
	}

	for _, out := range outputPaths {
		if err := kfs.WriteFileAtomic(out, content, info.Mode().Perm(), c.Logger); err != nil {
			return Result{}, fmt.Errorf("unable to write %q: %w", out, err)
		}
	}

	return Unit, nil
}
