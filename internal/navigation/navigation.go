// Package navigation defines the result shape every resolver tier and
// related operation (declaration, type definition, implementation,
// references, rename) returns: none, a single location, or many
// (spec.md ยง4.7's public contract).
package navigation

// Position is a 0-based UTF-16 line/character pair, matching LSP wire
// positions.
type Position struct {
	Line      int
	Character int
}

// Range is a half-open [Start, End) span.
type Range struct {
	Start Position
	End   Position
}

// Location names a file and a range within it. A zero Range (both
// positions zero) is used for whole-file targets such as #include
// navigation.
type Location struct {
	File  string
	Range Range
}

// Target is the resolver's result: nil means None, one element means a
// single jump, more than one means the client should present a picker.
type Target []Location

// FromLocations builds a Target from a location slice, returning nil
// when empty so callers can treat "no locations" as None uniformly.
func FromLocations(locs []Location) Target {
	if len(locs) == 0 {
		return nil
	}
	return Target(locs)
}

// Single builds a one-location Target.
func Single(loc Location) Target { return Target{loc} }

// ZeroRangeLocation builds a Location pointing at a file with no
// specific range, for #include navigation targets.
func ZeroRangeLocation(file string) Location {
	return Location{File: file}
}
