package pathcalc

import (
	"fmt"
	"path"
	"strings"

	"github.com/kilnbuild/kiln/pkg/kiln"
	"github.com/kilnbuild/kiln/pkg/match"
)

// extWitness is implemented by witnesses that can report a named "ext"
// capture group, allowing DirRelative to correctly strip compound
// extensions such as ".tar.gz" rather than just the final dot-segment.
type extWitness interface {
	Ext() string
}

// DirRelative re-roots an input path's position relative to input_dir (or
// to the witness's recorded parent directory, if any) under a target
// directory, optionally replacing its extension and applying a
// user-provided path transform.
type DirRelative struct {
	// Target is where the relative path is re-rooted: one of kiln.InputDir,
	// kiln.OutputDir, kiln.WorkingDir, or an explicit absolute path string.
	Target any
	// NewExt, if non-empty, replaces the input's extension (including the
	// leading dot, e.g. ".html"). If empty, the original extension is kept.
	NewExt string
	// Transform, if set, is applied to the re-rooted relative path
	// (forward-slash form, before NewExt substitution) before it is joined
	// to Target.
	Transform func(string) string
}

// NewDirRelative validates target and returns a DirRelative calculator.
func NewDirRelative(target any, newExt string, transform func(string) string) (*DirRelative, error) {
	switch t := target.(type) {
	case kiln.DirName:
	case string:
		if t == "" {
			return nil, fmt.Errorf("dir-relative: explicit target path must not be empty")
		}
	default:
		return nil, fmt.Errorf("dir-relative: target must be a kiln.DirName or an explicit path string")
	}
	return &DirRelative{Target: target, NewExt: newExt, Transform: transform}, nil
}

// Calculate implements Calculator.
func (c *DirRelative) Calculate(dirs kiln.ContextDirs, inputPath string, w match.Witness) (string, error) {
	rel, ok := relativeFromWitness(w)
	if !ok {
		r, rok := relativeTo(dirs.Input, inputPath)
		if !rok {
			return "", fmt.Errorf("dir-relative: %q is not under input_dir and witness carried no relative path", inputPath)
		}
		rel = r
	}

	if c.Transform != nil {
		rel = c.Transform(rel)
	}

	if c.NewExt != "" {
		rel = swapExtension(rel, w, c.NewExt)
	}

	var base string
	switch t := c.Target.(type) {
	case kiln.DirName:
		b, ok := dirs.Resolve(t)
		if !ok {
			return "", fmt.Errorf("dir-relative: unknown target directory %q", t)
		}
		base = b
	case string:
		base = t
	}

	return path.Join(filepathToSlash(base), rel), nil
}

// swapExtension removes the input's existing extension (using the
// witness's "ext" named group when available, so compound extensions like
// ".tar.gz" are stripped in one piece rather than leaving ".tar") and
// appends newExt.
func swapExtension(rel string, w match.Witness, newExt string) string {
	var oldExt string
	if ew, ok := w.(extWitness); ok {
		oldExt = ew.Ext()
	} else {
		oldExt = path.Ext(rel)
	}
	if oldExt != "" && strings.HasSuffix(rel, oldExt) {
		rel = strings.TrimSuffix(rel, oldExt)
	}
	return rel + newExt
}

// relativeTo mirrors match's unexported helper; duplicated here rather than
// exported across packages to keep pathcalc's dependency on match limited to
// the Witness and Matcher types.
func relativeTo(root, p string) (string, bool) {
	return filepathRel(root, p)
}
