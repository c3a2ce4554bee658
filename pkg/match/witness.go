// Package match implements the matcher component of a rule: deciding
// whether a path applies, and producing a typed witness the path calculator
// can inspect.
package match

import "github.com/kilnbuild/kiln/pkg/kiln"

// Witness is the payload a Matcher returns on a successful match. Its
// concrete shape is opaque to the engine and passed unmodified to the
// rule's path calculators.
type Witness interface {
	// Matched reports whether this witness represents an actual match. The
	// distinguished NoMatch witness returns false; every other witness
	// returns true.
	Matched() bool
}

// noMatch is the distinguished "no match" witness.
type noMatch struct{}

func (noMatch) Matched() bool { return false }

// NoMatch is the witness returned by a Matcher when it does not match.
var NoMatch Witness = noMatch{}

// Unit is a witness carrying no information beyond "this matched", used by
// matchers (such as Not) whose payload isn't meaningful to downstream
// calculators.
type Unit struct{}

// Matched always returns true for Unit.
func (Unit) Matched() bool { return true }

// Matcher decides whether a path should be handled by a rule, and computes
// the witness forwarded to that rule's path calculators.
type Matcher interface {
	// Match evaluates the matcher against path, given the build's resolved
	// context directories. It returns NoMatch if the matcher does not apply.
	Match(dirs kiln.ContextDirs, path string) Witness
}
