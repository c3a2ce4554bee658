// Package transform defines the Transform contract: the
// pluggable step that produces output artifacts from input artifacts, and
// the small set of reference implementations generic enough to live in
// this module rather than a format-specific collaborator.
package transform

import (
	"github.com/kilnbuild/kiln/pkg/custody"
)

// Result is what a Transform returns: either Unit (meaning "sources default
// to [input_path], outputs default to the rule's computed paths") or an
// explicit Sources/Outputs pair.
type Result struct {
	explicit bool
	Sources  []custody.Source
	Outputs  []string
}

// Unit is the default TransformResult: the transform used exactly the
// input path as its source and wrote exactly the computed output paths.
var Unit = Result{}

// Explicit builds a Result that overrides the rule's default sources and/or
// outputs, for transforms with hidden dependencies (templates, packed file
// lists, fetched URLs) or that fan out to a set of outputs not derivable
// from the input path alone.
func Explicit(sources []custody.Source, outputs []string) Result {
	return Result{explicit: true, Sources: sources, Outputs: outputs}
}

// IsExplicit reports whether r overrides the rule's default sources/outputs.
func (r Result) IsExplicit() bool {
	return r.explicit
}

// Transform is the pluggable step invoked by a matched rule.
// inputPath is the file that matched; outputPaths are the rule's computed
// output paths (possibly empty, for a transform whose real outputs aren't
// known until it runs). Implementations must be idempotent: given
// identical source content, they must produce byte-identical outputs.
type Transform interface {
	Run(inputPath string, outputPaths []string) (Result, error)
}

// Func adapts a plain function to the Transform interface.
type Func func(inputPath string, outputPaths []string) (Result, error)

// Run implements Transform.
func (f Func) Run(inputPath string, outputPaths []string) (Result, error) {
	return f(inputPath, outputPaths)
}
