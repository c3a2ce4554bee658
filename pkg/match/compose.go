package match

import "github.com/kilnbuild/kiln/pkg/kiln"

// and is the conjunction of two matchers: matches only if both match, and
// the resulting witness is the left-hand matcher's witness.
type and struct {
	left, right Matcher
}

// And composes two matchers by conjunction.
func And(left, right Matcher) Matcher {
	return and{left, right}
}

func (m and) Match(dirs kiln.ContextDirs, p string) Witness {
	lw := m.left.Match(dirs, p)
	if !lw.Matched() {
		return NoMatch
	}
	if rw := m.right.Match(dirs, p); !rw.Matched() {
		return NoMatch
	}
	return lw
}

// or is the disjunction of two matchers: tries the left matcher first and
// uses its witness if it matches, otherwise falls back to the right
// matcher.
type or struct {
	left, right Matcher
}

// Or composes two matchers by disjunction.
func Or(left, right Matcher) Matcher {
	return or{left, right}
}

func (m or) Match(dirs kiln.ContextDirs, p string) Witness {
	if lw := m.left.Match(dirs, p); lw.Matched() {
		return lw
	}
	return m.right.Match(dirs, p)
}

// not negates a matcher, producing a Unit witness on success since the
// inner matcher's witness (if any) was for the case that didn't happen.
type not struct {
	inner Matcher
}

// Not composes a matcher by negation.
func Not(inner Matcher) Matcher {
	return not{inner}
}

func (m not) Match(dirs kiln.ContextDirs, p string) Witness {
	if m.inner.Match(dirs, p).Matched() {
		return NoMatch
	}
	return Unit{}
}
