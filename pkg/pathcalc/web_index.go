package pathcalc

import (
	"path"
	"strings"

	"github.com/kilnbuild/kiln/pkg/kiln"
	"github.com/kilnbuild/kiln/pkg/match"
)

// WebIndex wraps another calculator and rewrites its ".html" output from
// "foo.html" to "foo/index.html", leaving an already-named "index.html"
// unchanged.
type WebIndex struct {
	Inner Calculator
}

// NewWebIndex wraps inner with web-index rewriting.
func NewWebIndex(inner Calculator) *WebIndex {
	return &WebIndex{Inner: inner}
}

// Calculate implements Calculator.
func (c *WebIndex) Calculate(dirs kiln.ContextDirs, inputPath string, w match.Witness) (string, error) {
	out, err := c.Inner.Calculate(dirs, inputPath, w)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(out, ".html") {
		return out, nil
	}
	base := path.Base(out)
	if base == "index.html" {
		return out, nil
	}
	dir := path.Dir(out)
	stem := strings.TrimSuffix(base, ".html")
	return path.Join(dir, stem, "index.html"), nil
}
