package systemheader

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLooksLikeBuiltinFamilyMatchesAnExactName(t *testing.T) {
	if !LooksLikeBuiltinFamily("mem_flags") {
		t.Fatalf("LooksLikeBuiltinFamily(mem_flags) = false, want true")
	}
}

func TestLooksLikeBuiltinFamilyMatchesAKnownPrefix(t *testing.T) {
	if !LooksLikeBuiltinFamily("simd_sum_of_squares") {
		t.Fatalf("LooksLikeBuiltinFamily(simd_sum_of_squares) = false, want true")
	}
}

func TestLooksLikeBuiltinFamilyRejectsAnUnrelatedName(t *testing.T) {
	if LooksLikeBuiltinFamily("myCustomFunction") {
		t.Fatalf("LooksLikeBuiltinFamily(myCustomFunction) = true, want false")
	}
}

func TestIsSystemNamespaceRecognizesKnownNamespaces(t *testing.T) {
	if !IsSystemNamespace("metal") || !IsSystemNamespace("access") {
		t.Fatalf("IsSystemNamespace() = false for a known namespace, want true")
	}
	if IsSystemNamespace("myNamespace") {
		t.Fatalf("IsSystemNamespace(myNamespace) = true, want false")
	}
}

func TestFindWordBoundaryOffsetSkipsAPartialMatchInsideALongerIdentifier(t *testing.T) {
	src := []byte("float color_ramp; float color;")
	start, ok := FindWordBoundaryOffset(src, "color")
	if !ok {
		t.Fatalf("FindWordBoundaryOffset() ok = false, want true")
	}
	want := len("float color_ramp; float ")
	if start != want {
		t.Fatalf("FindWordBoundaryOffset() = %d, want %d (the standalone occurrence)", start, want)
	}
}

func TestFindWordBoundaryOffsetReturnsFalseWhenAbsent(t *testing.T) {
	if _, ok := FindWordBoundaryOffset([]byte("no match here"), "missing"); ok {
		t.Fatalf("FindWordBoundaryOffset() ok = true for an absent word")
	}
}

func TestFindWordBoundaryOffsetReturnsFalseForAnEmptyWord(t *testing.T) {
	if _, ok := FindWordBoundaryOffset([]byte("anything"), ""); ok {
		t.Fatalf("FindWordBoundaryOffset() ok = true for an empty word")
	}
}

func TestFindScopedEnumMemberOffsetLocatesAMemberInsideAnEnumClassBody(t *testing.T) {
	src := []byte("enum class access {\n    read,\n    write,\n    read_write\n};\n")
	off, ok := FindScopedEnumMemberOffset(src, "access", "write")
	if !ok {
		t.Fatalf("FindScopedEnumMemberOffset() ok = false, want true")
	}
	if src[off] != 'w' || string(src[off:off+5]) != "write" {
		t.Fatalf("FindScopedEnumMemberOffset() offset %d does not point at \"write\": %q", off, src[off:off+5])
	}
}

func TestFindScopedEnumMemberOffsetIgnoresAMemberOutsideTheMatchingEnumBody(t *testing.T) {
	src := []byte("enum class filter { nearest, linear };\nenum class access { read, write };\n")
	if _, ok := FindScopedEnumMemberOffset(src, "access", "linear"); ok {
		t.Fatalf("FindScopedEnumMemberOffset() ok = true for a member from a different enum body")
	}
}

func TestFindScopedEnumMemberOffsetReturnsFalseForAnUnknownQualifier(t *testing.T) {
	src := []byte("enum class access { read, write };\n")
	if _, ok := FindScopedEnumMemberOffset(src, "compare_func", "read"); ok {
		t.Fatalf("FindScopedEnumMemberOffset() ok = true for a qualifier with no matching enum")
	}
}

func TestCandidateHeadersFindsFixedBasenamesAndMetalPrefixedFiles(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "metal_stdlib"), "// stdlib")
	mustWrite(t, filepath.Join(root, "metal_extra_thing"), "// extra")
	mustWrite(t, filepath.Join(root, "unrelated.h"), "// unrelated")

	got := CandidateHeaders([]string{root})
	names := map[string]bool{}
	for _, p := range got {
		names[filepath.Base(p)] = true
	}
	if !names["metal_stdlib"] {
		t.Fatalf("CandidateHeaders() = %v, want metal_stdlib included", got)
	}
	if !names["metal_extra_thing"] {
		t.Fatalf("CandidateHeaders() = %v, want metal_extra_thing (metal-prefixed) included", got)
	}
	if names["unrelated.h"] {
		t.Fatalf("CandidateHeaders() = %v, want unrelated.h excluded", got)
	}
}

func TestCandidateHeadersDedupesARepeatedIncludePath(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "metal_stdlib"), "// stdlib")

	got := CandidateHeaders([]string{root, root})
	count := 0
	for _, p := range got {
		if filepath.Base(p) == "metal_stdlib" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("CandidateHeaders() listed metal_stdlib %d times, want exactly 1", count)
	}
}

func TestResolveSymbolFindsAWholeWordMatchInACandidateHeader(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "metal_stdlib"), "float simd_sum(float x);\n")

	target, ok := ResolveSymbol("simd_sum", []string{root})
	if !ok || len(target) != 1 {
		t.Fatalf("ResolveSymbol() = %v, %v, want a single location", target, ok)
	}
	if target[0].File != filepath.Join(root, "metal_stdlib") {
		t.Fatalf("ResolveSymbol() file = %q, want metal_stdlib", target[0].File)
	}
}

func TestResolveSymbolReportsFalseWhenNoCandidateHeaderContainsTheWord(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "metal_stdlib"), "float other_function(float x);\n")

	if _, ok := ResolveSymbol("missing_symbol", []string{root}); ok {
		t.Fatalf("ResolveSymbol() ok = true for a symbol absent from every header")
	}
}

func TestResolveQualifiedMemberFindsAScopedEnumMember(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "metal_types"), "enum class access {\n    read,\n    write\n};\n")

	target, ok := ResolveQualifiedMember("access", "write", []string{root})
	if !ok || len(target) != 1 {
		t.Fatalf("ResolveQualifiedMember() = %v, %v, want a single location", target, ok)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", path, err)
	}
}
