package definition

import (
	"testing"

	"github.com/metal-analyzer/metal-analyzer/internal/ast"
	"github.com/metal-analyzer/metal-analyzer/internal/document"
)

func TestDedupeDefsCollapsesSameSite(t *testing.T) {
	a := &ast.SymbolDef{Name: "f", File: "/a.metal", Line: 1, Col: 1}
	b := &ast.SymbolDef{Name: "f", File: "/a.metal", Line: 1, Col: 1}
	c := &ast.SymbolDef{Name: "f", File: "/a.metal", Line: 2, Col: 1}

	out := dedupeDefs([]*ast.SymbolDef{a, b, c})
	if len(out) != 2 {
		t.Fatalf("dedupeDefs() returned %d entries, want 2", len(out))
	}
}

func TestFilterValidDropsIncompleteSites(t *testing.T) {
	defs := []*ast.SymbolDef{
		{Name: "ok", File: "/a.metal", Line: 3},
		{Name: "no-file", File: "", Line: 3},
		{Name: "no-line", File: "/a.metal", Line: 0},
	}
	out := filterValid(defs)
	if len(out) != 1 || out[0].Name != "ok" {
		t.Fatalf("filterValid() = %+v, want only the complete entry", out)
	}
}

func TestDefToLocationConvertsToZeroBasedRange(t *testing.T) {
	def := &ast.SymbolDef{Name: "compute", File: "/a.metal", Line: 10, Col: 5}
	loc, ok := defToLocation(def)
	if !ok {
		t.Fatalf("defToLocation() ok = false, want true")
	}
	if loc.Range.Start.Line != 9 || loc.Range.Start.Character != 4 {
		t.Fatalf("Start = %+v, want line 9 character 4", loc.Range.Start)
	}
	if loc.Range.End.Character != 4+len("compute") {
		t.Fatalf("End.Character = %d, want %d", loc.Range.End.Character, 4+len("compute"))
	}
}

func TestDefToLocationRejectsIncompleteSite(t *testing.T) {
	if _, ok := defToLocation(&ast.SymbolDef{Name: "x"}); ok {
		t.Fatalf("defToLocation() ok = true for a def with no file/line, want false")
	}
}

func TestPathsMatchComparesBasenameAsFallback(t *testing.T) {
	if !pathsMatch("/project/src/a.metal", "/project/src/a.metal") {
		t.Fatalf("pathsMatch() = false for identical paths")
	}
	if !pathsMatch("/tmp/scratch-123/a.metal", "a.metal") {
		t.Fatalf("pathsMatch() = false for matching basenames across different directories")
	}
	if pathsMatch("/a/b.metal", "/a/c.metal") {
		t.Fatalf("pathsMatch() = true for different basenames")
	}
}

func TestSortByRankPrefersSameFileDefinition(t *testing.T) {
	same := &ast.SymbolDef{Name: "f", Kind: ast.KindFunctionDecl, File: "/a.metal", Line: 5, IsDefinition: true}
	other := &ast.SymbolDef{Name: "f", Kind: ast.KindFunctionDecl, File: "/b.metal", Line: 1, IsDefinition: true}
	defs := []*ast.SymbolDef{other, same}

	sortByRank(defs, "f", "/a.metal")

	if defs[0] != same {
		t.Fatalf("sortByRank() put %+v first, want the same-file definition first", defs[0])
	}
}

func TestTiedPrefixStopsAtFirstRankBreak(t *testing.T) {
	a := &ast.SymbolDef{Name: "f", Kind: ast.KindFunctionDecl, File: "/same.metal", Line: 1, IsDefinition: true}
	b := &ast.SymbolDef{Name: "f", Kind: ast.KindFunctionDecl, File: "/same.metal", Line: 2, IsDefinition: true}
	c := &ast.SymbolDef{Name: "f", Kind: ast.KindFunctionDecl, File: "/elsewhere.metal", Line: 1, IsDefinition: true}
	sorted := []*ast.SymbolDef{a, b, c}

	tied := tiedPrefix(sorted, "f", "/same.metal")
	if len(tied) != 2 {
		t.Fatalf("tiedPrefix() returned %d entries, want the two same-file defs tied ahead of the other-file one", len(tied))
	}
}

func TestResolveMacroDefinitionFindsNameOffset(t *testing.T) {
	doc := document.New("file:///a.metal", "#define MAX_LIGHTS   16\nfloat x;\n", 1)
	target, ok := resolveMacroDefinition(doc, "MAX_LIGHTS")
	if !ok {
		t.Fatalf("resolveMacroDefinition() ok = false, want true")
	}
	if len(target) != 1 || target[0].Range.Start.Line != 0 {
		t.Fatalf("target = %+v, want a single match on line 0", target)
	}
	wantCol := len("#define ")
	if target[0].Range.Start.Character != wantCol {
		t.Fatalf("Start.Character = %d, want %d", target[0].Range.Start.Character, wantCol)
	}
}

func TestResolveMacroDefinitionMisses(t *testing.T) {
	doc := document.New("file:///a.metal", "float x;\n", 1)
	if _, ok := resolveMacroDefinition(doc, "MAX_LIGHTS"); ok {
		t.Fatalf("resolveMacroDefinition() ok = true, want false when the macro isn't defined")
	}
}

func TestMatchesPositionRequiresTokenRangeContainment(t *testing.T) {
	if !matchesPosition("/a.metal", 10, 5, 4, "/a.metal", 10, 7) {
		t.Fatalf("matchesPosition() = false for a cursor inside the token span")
	}
	if matchesPosition("/a.metal", 10, 5, 4, "/a.metal", 10, 20) {
		t.Fatalf("matchesPosition() = true for a cursor well past the token span")
	}
	if matchesPosition("/a.metal", 10, 5, 4, "/b.metal", 10, 7) {
		t.Fatalf("matchesPosition() = true for a mismatched file")
	}
}

func TestResolvePreciseDefAcceptsParamDeclAtPrimarySite(t *testing.T) {
	defs := []ast.SymbolDef{
		{ID: "p1", Name: "x", Kind: ast.KindParmVarDecl, File: "/a.metal", Line: 3, Col: 10},
	}
	refs := []ast.RefSite{
		{File: "/a.metal", Line: 3, Col: 10, TokLen: 1, TargetID: "p1", TargetName: "x"},
	}
	idx := ast.Build(defs, refs)
	if _, ok := resolvePreciseDef(idx, "/a.metal", document.Position{Line: 2, Character: 9}, "x"); !ok {
		t.Fatalf("resolvePreciseDef() ok = false for the primary reference site, want true")
	}
}
