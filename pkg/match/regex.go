package match

import (
	"path"
	"regexp"
	"strings"

	"github.com/kilnbuild/kiln/pkg/kiln"
)

// RegexWitness is the witness produced by Regex. It exposes the regular
// expression's named capture groups, notably stem and ext when the pattern
// defines them.
type RegexWitness struct {
	// RelativePath is the path the pattern was evaluated against, relative
	// to the matcher's parent directory.
	RelativePath string
	// groups maps named capture group names to their matched text.
	groups map[string]string
}

// Matched always returns true for RegexWitness (a non-matching evaluation
// never produces one; see Regex.Match).
func (RegexWitness) Matched() bool { return true }

// Relative returns the path the pattern was evaluated against, relative to
// the matcher's parent directory. It lets a path calculator re-root a path
// relative to whichever directory the matcher actually used, rather than
// always assuming input_dir.
func (w RegexWitness) Relative() string { return w.RelativePath }

// Group returns the named capture group's matched text, and whether that
// name was present in the pattern at all.
func (w RegexWitness) Group(name string) (string, bool) {
	v, ok := w.groups[name]
	return v, ok
}

// Stem returns the "stem" named group if the pattern defined one, otherwise
// the matched path's base name with its final extension removed.
func (w RegexWitness) Stem() string {
	if v, ok := w.groups["stem"]; ok {
		return v
	}
	base := path.Base(w.RelativePath)
	if ext := path.Ext(base); ext != "" {
		return strings.TrimSuffix(base, ext)
	}
	return base
}

// Ext returns the "ext" named group if the pattern defined one, otherwise
// the matched path's final extension (including the leading dot).
func (w RegexWitness) Ext() string {
	if v, ok := w.groups["ext"]; ok {
		return v
	}
	return path.Ext(w.RelativePath)
}

// Regex is a Matcher that tests a path, relative to a named parent
// directory, against a regular expression.
type Regex struct {
	pattern   *regexp.Regexp
	parentDir kiln.DirName
	hasParent bool
}

// NewRegex compiles pattern and returns a Regex matcher. If parentDir is
// non-empty, only paths under that named directory are considered; paths
// are otherwise evaluated relative to kiln.InputDir. The pattern is
// compiled eagerly so construction-time errors surface before any file is
// ever matched, rather than on first use.
func NewRegex(pattern string, parentDir kiln.DirName) (*Regex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Regex{
		pattern:   re,
		parentDir: parentDir,
		hasParent: parentDir != "",
	}, nil
}

// Match implements Matcher.
func (m *Regex) Match(dirs kiln.ContextDirs, p string) Witness {
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

	submatches := m.pattern.FindStringSubmatch(rel)
	if submatches == nil {
		return NoMatch
	}

	groups := make(map[string]string, len(submatches))
	for i, name := range m.pattern.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		groups[name] = submatches[i]
	}

	return RegexWitness{RelativePath: rel, groups: groups}
}
