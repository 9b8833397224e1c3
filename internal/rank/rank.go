// Package rank implements the lexicographic preference order the
// definition resolver's ranked fallback tiers sort candidates by
// (spec.md ยง4.7 tier 5/6).
package rank

import (
	"strings"

	"github.com/metal-analyzer/metal-analyzer/internal/ast"
	"github.com/metal-analyzer/metal-analyzer/internal/systemheader"
)

// Tuple is a four-component rank where 0 means "more preferred" in
// every position; comparison is lexicographic left to right.
type Tuple [4]int

// Less reports whether t ranks strictly ahead of other.
func (t Tuple) Less(other Tuple) bool {
	for i := range t {
		if t[i] != other[i] {
			return t[i] < other[i]
		}
	}
	return false
}

// Equal reports whether t and other rank identically (a tie).
func (t Tuple) Equal(other Tuple) bool { return t == other }

// IsSystemHeader is a pluggable predicate (spec.md ยง9 open question):
// the current heuristic treats any path containing "/metal/" (after
// slash-normalization) or a canonicalized Xcode toolchain path as a
// system header.
func IsSystemHeader(file string) bool {
	normalized := strings.ReplaceAll(file, "\\", "/")
	if strings.Contains(normalized, "/metal/") {
		return true
	}
	return strings.Contains(normalized, "/Xcode.app/Contents/Developer/") ||
		strings.Contains(normalized, "/CommandLineTools/")
}

// Of computes the rank tuple for def against sourceFile, given the
// cursor word (used to decide whether a system-header hit is actually
// preferred, for builtin-shaped words).
func Of(word string, def *ast.SymbolDef, sourceFile string) Tuple {
	sameFile := 1
	if pathsMatch(def.File, sourceFile) {
		sameFile = 0
	}
	isDefinition := 1
	if def.IsDefinition {
		isDefinition = 0
	}
	isParmVar := 0
	if def.Kind == ast.KindParmVarDecl {
		isParmVar = 1
	}

	systemRank := 0
	looksBuiltin := systemheader.LooksLikeBuiltinFamily(word) || strings.HasPrefix(word, "metal::")
	switch {
	case looksBuiltin && IsSystemHeader(def.File):
		systemRank = 0
	case looksBuiltin:
		systemRank = 1
	case IsSystemHeader(def.File):
		systemRank = 1
	default:
		systemRank = 0
	}

	return Tuple{sameFile, isDefinition, isParmVar, systemRank}
}

// pathsMatch compares two file path strings for the purpose of
// "same file" ranking: exact match, or basename match as a fallback for
// differing canonicalization.
func pathsMatch(a, b string) bool {
	if a == b {
		return true
	}
	return basename(a) == basename(b) && basename(a) != ""
}

func basename(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}
