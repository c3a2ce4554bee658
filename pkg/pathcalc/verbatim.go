package pathcalc

import (
	"github.com/kilnbuild/kiln/pkg/kiln"
	"github.com/kilnbuild/kiln/pkg/match"
)

// verbatim is a Calculator that ignores the input path and witness
// entirely, always producing the same fixed output path: "the bare path
// object, meaning place here verbatim".
type verbatim struct {
	path string
}

// Verbatim returns a Calculator that always produces p, unconditionally.
func Verbatim(p string) Calculator {
	return verbatim{path: p}
}

// Calculate implements Calculator.
func (c verbatim) Calculate(kiln.ContextDirs, string, match.Witness) (string, error) {
	return c.path, nil
}
