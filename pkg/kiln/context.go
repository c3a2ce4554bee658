package kiln

import "fmt"

// DirName identifies one of the engine's named context directories.
type DirName string

// The four named directories every build resolves.
const (
	InputDir   DirName = "input_dir"
	OutputDir  DirName = "output_dir"
	WorkingDir DirName = "working_dir"
	// CustodyCacheDir is not a directory (the custody cache is a single
	// file), but it shares the named-prefix addressing scheme used for
	// cache keys, so it's listed alongside the three real directories.
	CustodyCacheDir DirName = "custody_cache"
)

// Path is an opaque filesystem path, exposed to users in its original form.
// It is canonicalized only when used as a cache key (see pkg/kfs.CanonicalKey).
type Path string

// ContextDirs holds the resolved absolute paths of the engine's named
// directories for a single build. It is immutable once constructed.
type ContextDirs struct {
	// Input is the read-only source tree.
	Input string
	// Output is where final artifacts are written.
	Output string
	// Working is the scratch area whose files are re-processed until
	// fixpoint.
	Working string
	// CustodyCache is the path to the on-disk cache file, or "" if caching
	// is disabled.
	CustodyCache string
}

// Resolve returns the absolute filesystem path backing the named directory,
// and ok=false if name doesn't identify one of the three real directories
// (CustodyCacheDir is a file, not a directory, so it is never returned here).
func (c ContextDirs) Resolve(name DirName) (string, bool) {
	switch name {
	case InputDir:
		return c.Input, true
	case OutputDir:
		return c.Output, true
	case WorkingDir:
		return c.Working, true
	default:
		return "", false
	}
}

// String implements fmt.Stringer, primarily so DirName reads naturally in
// error messages (e.g. "path outside all known directories").
func (d DirName) String() string {
	return string(d)
}

// Errorf is a small convenience used throughout the engine packages to
// produce errors that identify the offending directory name consistently.
func (d DirName) Errorf(format string, args ...any) error {
	return fmt.Errorf("%s: "+format, append([]any{string(d)}, args...)...)
}
