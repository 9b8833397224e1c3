// Package systemheader implements the MSL SDK fast path: recognizing
// cursor words that almost certainly name a builtin, then scanning a
// fixed set of candidate SDK headers for a whole-word (or scoped-enum
// member) match without invoking the compiler (spec.md ยง4.7 tier 2/7).
package systemheader

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/metal-analyzer/metal-analyzer/internal/navigation"
)

var exactFamilyNames = map[string]bool{
	"mem_flags":          true,
	"thread_scope":       true,
	"memory_order":       true,
	"memory_scope":       true,
	"threadgroup_barrier": true,
	"simdgroup_barrier":  true,
	"simd_sum":           true,
}

var familyPrefixes = []string{
	"simd_", "simdgroup_", "threadgroup_", "quad_", "atomic_",
	"mem_", "thread_", "intersection_", "visible_",
}

var systemNamespaces = map[string]bool{
	"metal": true, "address": true, "coord": true, "filter": true,
	"mip_filter": true, "compare_func": true, "access": true,
	"mem_flags": true, "thread_scope": true, "memory_order": true,
	"memory_scope": true,
}

// LooksLikeBuiltinFamily reports whether word matches a known MSL SDK
// symbol family by name shape alone (spec.md ยง4.7 tier 2, and the
// `system_rank` builtin test in ยง4.7 tier 5).
func LooksLikeBuiltinFamily(word string) bool {
	if exactFamilyNames[word] {
		return true
	}
	for _, p := range familyPrefixes {
		if strings.HasPrefix(word, p) {
			return true
		}
	}
	return false
}

// IsSystemNamespace reports whether qualifier is a recognized system
// namespace/enum-scope name.
func IsSystemNamespace(qualifier string) bool {
	return systemNamespaces[qualifier]
}

var headerBasenames = []string{
	"metal_stdlib", "metal_compute", "metal_simdgroup", "metal_atomic",
	"metal_math", "metal_geometric", "metal_types", "metal_common",
}

// CandidateHeaders returns every SDK header reachable through
// includePaths worth scanning for a builtin definition: a fixed
// basename list under each root (and <root>/metal), plus any file in
// those roots whose name starts with "metal".
func CandidateHeaders(includePaths []string) []string {
	seen := make(map[string]bool)
	var out []string

	tryAdd := func(path string) {
		canon := canonicalize(path)
		info, err := os.Stat(canon)
		if err != nil || info.IsDir() {
			return
		}
		if !seen[canon] {
			seen[canon] = true
			out = append(out, canon)
		}
	}

	for _, includePath := range includePaths {
		roots := []string{includePath, filepath.Join(includePath, "metal")}
		for _, root := range roots {
			for _, base := range headerBasenames {
				tryAdd(filepath.Join(root, base))
			}
			entries, err := os.ReadDir(root)
			if err != nil {
				continue
			}
			for _, e := range entries {
				if e.IsDir() || !strings.HasPrefix(e.Name(), "metal") {
					continue
				}
				tryAdd(filepath.Join(root, e.Name()))
			}
		}
	}
	return out
}

func canonicalize(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

// ResolveSymbol scans candidate headers for the first whole-word match
// of symbol.
func ResolveSymbol(symbol string, includePaths []string) (navigation.Target, bool) {
	for _, header := range CandidateHeaders(includePaths) {
		if loc, ok := findWordInFile(header, symbol); ok {
			return navigation.Single(loc), true
		}
	}
	return nil, false
}

// ResolveQualifiedMember scans candidate headers for a scoped-enum
// member named symbol inside an `enum [class] qualifier { ... }` body.
func ResolveQualifiedMember(qualifier, symbol string, includePaths []string) (navigation.Target, bool) {
	for _, header := range CandidateHeaders(includePaths) {
		if loc, ok := findScopedEnumMemberInFile(header, qualifier, symbol); ok {
			return navigation.Single(loc), true
		}
	}
	return nil, false
}

func findWordInFile(path, word string) (navigation.Location, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return navigation.Location{}, false
	}
	start, ok := FindWordBoundaryOffset(data, word)
	if !ok {
		return navigation.Location{}, false
	}
	return spanToLocation(path, data, start, start+len(word)), true
}

func findScopedEnumMemberInFile(path, qualifier, symbol string) (navigation.Location, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return navigation.Location{}, false
	}
	start, ok := FindScopedEnumMemberOffset(data, qualifier, symbol)
	if !ok {
		return navigation.Location{}, false
	}
	return spanToLocation(path, data, start, start+len(symbol)), true
}

func spanToLocation(path string, data []byte, startByte, endByte int) navigation.Location {
	return navigation.Location{
		File: path,
		Range: navigation.Range{
			Start: byteOffsetToPosition(data, startByte),
			End:   byteOffsetToPosition(data, endByte),
		},
	}
}

func byteOffsetToPosition(data []byte, offset int) navigation.Position {
	if offset > len(data) {
		offset = len(data)
	}
	line := bytes.Count(data[:offset], []byte("\n"))
	lastNL := bytes.LastIndexByte(data[:offset], '\n')
	return navigation.Position{Line: line, Character: utf16Col(data, lastNL+1, offset)}
}

func utf16Col(data []byte, lineStart, offset int) int {
	units := 0
	for _, r := range string(data[lineStart:offset]) {
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
	}
	return units
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// FindWordBoundaryOffset returns the byte offset of the first
// occurrence of word in source that is not adjacent to an identifier
// character on either side.
func FindWordBoundaryOffset(source []byte, word string) (int, bool) {
	if word == "" {
		return 0, false
	}
	w := []byte(word)
	searchFrom := 0
	for {
		idx := bytes.Index(source[searchFrom:], w)
		if idx < 0 {
			return 0, false
		}
		start := searchFrom + idx
		end := start + len(w)
		prevOK := start == 0 || !isIdentByte(source[start-1])
		nextOK := end == len(source) || !isIdentByte(source[end])
		if prevOK && nextOK {
			return start, true
		}
		searchFrom = end
	}
}

// FindScopedEnumMemberOffset finds `enum [class] qualifier { ... }` and
// returns the byte offset of symbol's first whole-word occurrence
// inside the body.
func FindScopedEnumMemberOffset(source []byte, qualifier, symbol string) (int, bool) {
	if qualifier == "" || symbol == "" {
		return 0, false
	}
	markers := []string{"enum class " + qualifier, "enum " + qualifier}
	for _, marker := range markers {
		m := []byte(marker)
		searchFrom := 0
		for {
			idx := bytes.Index(source[searchFrom:], m)
			if idx < 0 {
				break
			}
			markerStart := searchFrom + idx
			afterMarker := markerStart + len(m)
			openRel := bytes.IndexByte(source[afterMarker:], '{')
			if openRel < 0 {
				searchFrom = afterMarker
				continue
			}
			bodyStart := afterMarker + openRel + 1
			bodyEnd, ok := findMatchingBrace(source, bodyStart-1)
			if !ok {
				searchFrom = bodyStart
				continue
			}
			body := source[bodyStart:bodyEnd]
			if off, ok := FindWordBoundaryOffset(body, symbol); ok {
				return bodyStart + off, true
			}
			searchFrom = bodyEnd + 1
		}
	}
	return 0, false
}

func findMatchingBrace(source []byte, openBraceOffset int) (int, bool) {
	depth := 0
	for i := openBraceOffset; i < len(source); i++ {
		switch source[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
