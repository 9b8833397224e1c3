package definition

import (
	"testing"

	"github.com/metal-analyzer/metal-analyzer/internal/ast"
	"github.com/metal-analyzer/metal-analyzer/internal/document"
	"github.com/metal-analyzer/metal-analyzer/internal/generation"
	"github.com/metal-analyzer/metal-analyzer/internal/project"
)

type fixedAcquirer struct {
	idx *ast.Index
	ok  bool
}

func (f fixedAcquirer) Acquire(fileKey string, doc *document.Document, includePaths []string, cancel generation.CancelFunc) (*ast.Index, bool) {
	return f.idx, f.ok
}

func TestRefSiteToLocationPrefersExpansionSite(t *testing.T) {
	ref := &ast.RefSite{
		File: "/macro-expanded.metal", Line: 1, Col: 1, TokLen: 3,
		Expansion: &ast.Location{File: "/real.metal", Line: 7, Col: 4, TokLen: 5},
	}
	loc, ok := refSiteToLocation(ref)
	if !ok {
		t.Fatalf("refSiteToLocation() ok = false, want true")
	}
	if loc.File != "/real.metal" || loc.Range.Start.Line != 6 {
		t.Fatalf("loc = %+v, want the expansion site at 0-based line 6", loc)
	}
}

func TestRefSiteToLocationFallsBackToPrimarySite(t *testing.T) {
	ref := &ast.RefSite{File: "/a.metal", Line: 3, Col: 2, TokLen: 4}
	loc, ok := refSiteToLocation(ref)
	if !ok {
		t.Fatalf("refSiteToLocation() ok = false, want true")
	}
	if loc.File != "/a.metal" || loc.Range.Start.Line != 2 {
		t.Fatalf("loc = %+v, want the primary site at 0-based line 2", loc)
	}
}

func TestGotoImplementationSortsAndReturnsEveryDefinition(t *testing.T) {
	defs := []ast.SymbolDef{
		{ID: "decl", Name: "shade", Kind: ast.KindFunctionDecl, File: "/other.metal", Line: 1, IsDefinition: false},
		{ID: "def", Name: "shade", Kind: ast.KindFunctionDecl, File: "/main.metal", Line: 5, IsDefinition: true},
	}
	idx := ast.Build(defs, nil)
	doc := document.New("file:///main.metal", "shade", 1)

	r := &Resolver{Acquirer: fixedAcquirer{idx: idx, ok: true}}
	target := r.GotoImplementation(Request{
		FileKey:  "/main.metal",
		Doc:      doc,
		Position: document.Position{Line: 0, Character: 0},
	})
	if len(target) == 0 {
		t.Fatalf("GotoImplementation() returned no locations")
	}
}

func TestPrepareRenameRejectsCrossFileDefinition(t *testing.T) {
	defs := []ast.SymbolDef{
		{ID: "d1", Name: "shade", Kind: ast.KindFunctionDecl, File: "/other.metal", Line: 5, Col: 1, IsDefinition: true},
	}
	refs := []ast.RefSite{
		{File: "/main.metal", Line: 1, Col: 1, TokLen: 5, TargetID: "d1", TargetName: "shade"},
	}
	idx := ast.Build(defs, refs)
	doc := document.New("file:///main.metal", "shade", 1)

	r := &Resolver{Acquirer: fixedAcquirer{idx: idx, ok: true}}
	_, ok := r.PrepareRename(Request{
		FileKey:  "/main.metal",
		Doc:      doc,
		Position: document.Position{Line: 0, Character: 0},
	})
	if ok {
		t.Fatalf("PrepareRename() ok = true for a definition in a different file, want false")
	}
}

func TestFindReferencesIncludesDeclarationWhenRequested(t *testing.T) {
	defs := []ast.SymbolDef{
		{ID: "d1", Name: "shade", Kind: ast.KindFunctionDecl, File: "/main.metal", Line: 1, Col: 1, IsDefinition: true},
	}
	refs := []ast.RefSite{
		{File: "/main.metal", Line: 1, Col: 1, TokLen: 5, TargetID: "d1", TargetName: "shade"},
	}
	idx := ast.Build(defs, refs)
	doc := document.New("file:///main.metal", "shade", 1)

	r := &Resolver{Acquirer: fixedAcquirer{idx: idx, ok: true}}
	target := r.FindReferences(Request{
		FileKey:  "/main.metal",
		Doc:      doc,
		Position: document.Position{Line: 0, Character: 0},
	}, true)

	if len(target) == 0 {
		t.Fatalf("FindReferences() returned no locations with includeDeclaration=true")
	}
}

func TestGotoTypeDefinitionFallsBackToEveryTypeFormingDefByNameWithoutAPreciseDef(t *testing.T) {
	defs := []ast.SymbolDef{
		{ID: "decl1", Name: "Light", Kind: ast.KindCXXRecordDecl, File: "/a.h", Line: 1, IsDefinition: false},
		{ID: "def1", Name: "Light", Kind: ast.KindCXXRecordDecl, File: "/a.metal", Line: 3, IsDefinition: true},
		{ID: "fn1", Name: "Light", Kind: ast.KindFunctionDecl, File: "/b.metal", Line: 9, IsDefinition: true},
	}
	idx := ast.Build(defs, nil)
	doc := document.New("file:///main.metal", "Light", 1)

	r := &Resolver{Acquirer: fixedAcquirer{idx: idx, ok: true}}
	target := r.GotoTypeDefinition(Request{
		FileKey:  "/main.metal",
		Doc:      doc,
		Position: document.Position{Line: 0, Character: 0},
	})

	if len(target) != 2 {
		t.Fatalf("GotoTypeDefinition() = %+v, want exactly the 2 type-forming defs named Light", target)
	}
	for _, loc := range target {
		if loc.File == "/b.metal" {
			t.Fatalf("GotoTypeDefinition() included the FunctionDecl candidate: %+v", target)
		}
	}
}

func TestFindReferencesAugmentsWithProjectWideByNameRefs(t *testing.T) {
	defs := []ast.SymbolDef{
		{ID: "d1", Name: "shade", Kind: ast.KindFunctionDecl, File: "/main.metal", Line: 1, Col: 1, IsDefinition: true},
	}
	refs := []ast.RefSite{
		{File: "/main.metal", Line: 1, Col: 1, TokLen: 5, TargetID: "d1", TargetName: "shade"},
	}
	idx := ast.Build(defs, refs)
	doc := document.New("file:///main.metal", "shade", 1)

	proj := project.New()
	// A by-name-only ref in another file, targeting an ID the current
	// file's index has no knowledge of (e.g. a macro-expanded overload).
	otherRefs := []ast.RefSite{
		{File: "/other.metal", Line: 10, Col: 2, TokLen: 5, TargetID: "unrelated-id", TargetName: "shade"},
	}
	proj.Update("/other.metal", ast.Build(nil, otherRefs))
	proj.Update("/main.metal", idx)

	r := &Resolver{Acquirer: fixedAcquirer{idx: idx, ok: true}, ProjectIndex: proj}
	target := r.FindReferences(Request{
		FileKey:  "/main.metal",
		Doc:      doc,
		Position: document.Position{Line: 0, Character: 0},
	}, false)

	foundOther := false
	for _, loc := range target {
		if loc.File == "/other.metal" {
			foundOther = true
		}
	}
	if !foundOther {
		t.Fatalf("FindReferences() = %+v, want the project-wide by-name ref from /other.metal included", target)
	}
}
