package match

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kilnbuild/kiln/pkg/kiln"
)

// GlobWitness is the witness produced by Glob. It has no named groups
// beyond stem/ext, computed from the matched leaf name.
type GlobWitness struct {
	RelativePath string
}

// Matched always returns true for GlobWitness.
func (GlobWitness) Matched() bool { return true }

// Relative returns the path the pattern was evaluated against, relative to
// the matcher's parent directory.
func (w GlobWitness) Relative() string { return w.RelativePath }

// Stem returns the matched path's base name with its final extension
// removed.
func (w GlobWitness) Stem() string {
	base := path.Base(w.RelativePath)
	if ext := path.Ext(base); ext != "" {
		return strings.TrimSuffix(base, ext)
	}
	return base
}

// Ext returns the matched path's final extension, including the leading
// dot.
func (w GlobWitness) Ext() string {
	return path.Ext(w.RelativePath)
}

// Glob is a Matcher that tests a path, relative to a named parent
// directory, against a doublestar glob pattern (which supports "**").
type Glob struct {
	pattern   string
	parentDir kiln.DirName
	hasParent bool
}

// NewGlob validates pattern and returns a Glob matcher. See Regex for the
// parentDir semantics; they're identical.
func NewGlob(pattern string, parentDir kiln.DirName) (*Glob, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}
	return &Glob{
		pattern:   pattern,
		parentDir: parentDir,
		hasParent: parentDir != "",
	}, nil
}

// Match implements Matcher.
func (m *Glob) Match(dirs kiln.ContextDirs, p string) Witness {
	parent := m.parentDir
	if !m.hasParent {
		parent = kiln.InputDir
	}

	root, ok := dirs.Resolve(parent)
	if !ok {
		return NoMatch
	}

	rel, ok := relativeTo(root, p)
	if !ok {
		return NoMatch
	}

	matched, err := doublestar.Match(m.pattern, rel)
	if err != nil || !matched {
		return NoMatch
	}

	return GlobWitness{RelativePath: rel}
}
