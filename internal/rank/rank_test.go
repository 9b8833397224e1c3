package rank

import (
	"testing"

	"github.com/metal-analyzer/metal-analyzer/internal/ast"
)

func TestTupleLessComparesLexicographically(t *testing.T) {
	a := Tuple{0, 1, 0, 0}
	b := Tuple{0, 0, 0, 0}
	if a.Less(b) {
		t.Fatalf("Tuple{0,1,0,0}.Less({0,0,0,0}) = true, want false")
	}
	if !b.Less(a) {
		t.Fatalf("Tuple{0,0,0,0}.Less({0,1,0,0}) = false, want true")
	}
}

func TestTupleEqualReportsAnExactMatch(t *testing.T) {
	a := Tuple{1, 0, 1, 0}
	b := Tuple{1, 0, 1, 0}
	if !a.Equal(b) {
		t.Fatalf("Tuple.Equal() = false for identical tuples")
	}
	if a.Equal(Tuple{0, 0, 1, 0}) {
		t.Fatalf("Tuple.Equal() = true for differing tuples")
	}
}

func TestIsSystemHeaderRecognizesAMetalDirectory(t *testing.T) {
	if !IsSystemHeader("/usr/lib/metal/metal_stdlib") {
		t.Fatalf("IsSystemHeader() = false for a /metal/ path, want true")
	}
}

func TestIsSystemHeaderRecognizesXcodeToolchainPaths(t *testing.T) {
	if !IsSystemHeader("/Applications/Xcode.app/Contents/Developer/usr/include/metal_stdlib") {
		t.Fatalf("IsSystemHeader() = false for an Xcode.app toolchain path, want true")
	}
}

func TestIsSystemHeaderRejectsAnOrdinaryProjectFile(t *testing.T) {
	if IsSystemHeader("/project/shaders/lighting.metal") {
		t.Fatalf("IsSystemHeader() = true for an ordinary project file")
	}
}

func TestOfRanksASameFileDefinitionAheadOfACrossFileDeclaration(t *testing.T) {
	sameFileDef := &ast.SymbolDef{File: "/a.metal", IsDefinition: true}
	crossFileDecl := &ast.SymbolDef{File: "/b.h", IsDefinition: false}

	rSame := Of("shade", sameFileDef, "/a.metal")
	rCross := Of("shade", crossFileDecl, "/a.metal")

	if !rSame.Less(rCross) {
		t.Fatalf("Of() same-file definition rank %v is not ahead of cross-file decl rank %v", rSame, rCross)
	}
}

func TestOfRanksADefinitionAheadOfADeclarationInTheSameFile(t *testing.T) {
	def := &ast.SymbolDef{File: "/a.metal", IsDefinition: true}
	decl := &ast.SymbolDef{File: "/a.metal", IsDefinition: false}

	if !Of("shade", def, "/a.metal").Less(Of("shade", decl, "/a.metal")) {
		t.Fatalf("Of() did not rank the definition ahead of the declaration")
	}
}

func TestOfRanksAParmVarBelowAnOrdinaryVar(t *testing.T) {
	parm := &ast.SymbolDef{File: "/a.metal", Kind: ast.KindParmVarDecl}
	ordinary := &ast.SymbolDef{File: "/a.metal", Kind: ast.KindVarDecl}

	if !Of("x", ordinary, "/a.metal").Less(Of("x", parm, "/a.metal")) {
		t.Fatalf("Of() did not rank the ordinary var ahead of the param var")
	}
}

func TestOfPrefersTheSystemHeaderHitForABuiltinShapedWord(t *testing.T) {
	inSystem := &ast.SymbolDef{File: "/Xcode.app/Contents/Developer/metal_stdlib"}
	inUserFile := &ast.SymbolDef{File: "/project/helpers.metal"}

	rSystem := Of("simd_sum", inSystem, "/project/shader.metal")
	rUser := Of("simd_sum", inUserFile, "/project/shader.metal")

	if !rSystem.Less(rUser) {
		t.Fatalf("Of() did not prefer the system-header hit for a builtin-shaped word: %v vs %v", rSystem, rUser)
	}
}

func TestOfPrefersAUserFileOverASystemHeaderForAnOrdinaryWord(t *testing.T) {
	inSystem := &ast.SymbolDef{File: "/Xcode.app/Contents/Developer/metal_stdlib"}
	inUserFile := &ast.SymbolDef{File: "/project/helpers.metal"}

	rSystem := Of("myHelper", inSystem, "/project/shader.metal")
	rUser := Of("myHelper", inUserFile, "/project/shader.metal")

	if !rUser.Less(rSystem) {
		t.Fatalf("Of() did not prefer the user file over a system header for an ordinary word: %v vs %v", rUser, rSystem)
	}
}

func TestOfTreatsABasenameMatchAsSameFileDespiteDifferingPaths(t *testing.T) {
	def := &ast.SymbolDef{File: "/other/root/a.metal", IsDefinition: true}
	other := &ast.SymbolDef{File: "/other/root/b.metal", IsDefinition: true}

	rSame := Of("shade", def, "/workspace/a.metal")
	rOther := Of("shade", other, "/workspace/a.metal")

	if !rSame.Less(rOther) {
		t.Fatalf("Of() did not treat a basename match as same-file: %v vs %v", rSame, rOther)
	}
}
