// Package kiln holds engine-wide identity constants shared by every other
// package in this module, in particular the version string recorded in the
// custody cache's parameters section (see pkg/custody) so that a cache
// written by an incompatible engine version is never trusted.
package kiln

import "fmt"

const (
	// VersionMajor is the current major version of the engine.
	VersionMajor = 0
	// VersionMinor is the current minor version of the engine.
	VersionMinor = 1
	// VersionPatch is the current patch version of the engine.
	VersionPatch = 0
)

// Version is the full dotted version string.
var Version string

func init() {
	Version = fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
}
