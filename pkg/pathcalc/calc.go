// Package pathcalc implements the path calculator component of a rule:
// translating an (input path, match witness) pair into an output path.
package pathcalc

import (
	"github.com/kilnbuild/kiln/pkg/kiln"
	"github.com/kilnbuild/kiln/pkg/match"
)

// Calculator computes an output path from an input path and the witness
// produced by the rule's matcher.
type Calculator interface {
	Calculate(dirs kiln.ContextDirs, inputPath string, w match.Witness) (string, error)
}

// relativeWitness is implemented by witnesses that can report the relative
// path they were matched against (match.RegexWitness, match.GlobWitness).
type relativeWitness interface {
	Relative() string
}

// relativeFromWitness returns the witness's recorded relative path if it
// implements relativeWitness, and ok=false otherwise.
func relativeFromWitness(w match.Witness) (string, bool) {
	rw, ok := w.(relativeWitness)
	if !ok {
		return "", false
	}
	return rw.Relative(), true
}
