// Package definition implements the nine-tier ranked resolver that
// answers "what does the identifier under the cursor point to?"
// (spec.md ยง4.7). It is the core of the navigation subsystem: every
// other navigation operation (declaration, type definition,
// implementation, references, rename) reuses the same AST index this
// package acquires and ranks.
package definition

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/metal-analyzer/metal-analyzer/internal/ast"
	"github.com/metal-analyzer/metal-analyzer/internal/document"
	"github.com/metal-analyzer/metal-analyzer/internal/generation"
	"github.com/metal-analyzer/metal-analyzer/internal/graph"
	"github.com/metal-analyzer/metal-analyzer/internal/navigation"
	"github.com/metal-analyzer/metal-analyzer/internal/project"
	"github.com/metal-analyzer/metal-analyzer/internal/rank"
	"github.com/metal-analyzer/metal-analyzer/internal/symboltext"
	"github.com/metal-analyzer/metal-analyzer/internal/syntax"
	"github.com/metal-analyzer/metal-analyzer/internal/systemheader"
)

// IndexAcquirer obtains (tier 3) an AST index for a file, using
// whichever of in-memory/disk/compiler sources is cheapest. Concurrency
// control (the per-file build mutex) is the acquirer's responsibility;
// the resolver only calls it once per request.
type IndexAcquirer interface {
	Acquire(fileKey string, doc *document.Document, includePaths []string, cancel generation.CancelFunc) (*ast.Index, bool)
}

// Request bundles everything one navigation call needs. FileKey is the
// key used for index acquisition and project index and graph lookups,
// exactly as the caller supplies it: the LSP server passes the document
// URI with its file:// prefix removed, and the MCP bridge passes its
// path argument. No canonicalization is applied to it, so it may differ
// from Doc.URI's raw text.
type Request struct {
	FileKey      string
	Doc          *document.Document
	IncludePaths []string
	Position     document.Position
	Cancel       generation.CancelFunc
}

// Resolver binds the cross-file project index, include graph, and an
// AST index acquirer to answer single-file and project-wide queries.
type Resolver struct {
	Acquirer             IndexAcquirer
	ProjectIndex         *project.Index
	ProjectGraph         *graph.Graph
	ProjectGraphDepth    int
	ProjectGraphMaxNodes int
}

func cancelled(cancel generation.CancelFunc) bool {
	return cancel != nil && cancel()
}

// Provide runs tiers 0 through 8 in order and returns the first
// definitive answer.
func (r *Resolver) Provide(req Request) navigation.Target {
	tree := req.Doc.Tree
	offset := req.Doc.OffsetOf(req.Position)

	if inc, ok := syntax.IncludeAtPosition(tree, offset); ok {
		if target, ok := r.resolveInclude(req, inc); ok {
			return target
		}
		return nil
	}

	word := syntax.NavigationWordAtPosition(tree, offset)
	if word == "" || syntax.NonNavigableCastWords[word] {
		return nil
	}

	if cancelled(req.Cancel) {
		return nil
	}
	if target, ok := r.resolveLocalTemplateParameter(req, offset, word); ok {
		return target
	}

	if cancelled(req.Cancel) {
		return nil
	}
	if target, ok := r.resolveFastSystemSymbol(req, word); ok {
		return target
	}

	if cancelled(req.Cancel) {
		return nil
	}
	idx, haveIndex := r.Acquirer.Acquire(req.FileKey, req.Doc, req.IncludePaths, req.Cancel)
	if haveIndex {
		if cancelled(req.Cancel) {
			return nil
		}
		if def, ok := resolvePreciseDef(idx, req.FileKey, req.Position, word); ok {
			if loc, ok := defToLocation(def); ok {
				return navigation.Single(loc)
			}
		}

		if cancelled(req.Cancel) {
			return nil
		}
		if target, ok := r.resolveByName(req, idx, word); ok {
			return target
		}
	}

	if cancelled(req.Cancel) {
		return nil
	}
	if target, ok := r.resolveFromProjectIndex(req, word); ok {
		return target
	}

	if cancelled(req.Cancel) {
		return nil
	}
	if target, ok := systemheader.ResolveSymbol(word, req.IncludePaths); ok && looksLikeNavigableBuiltin(word) {
		return target
	}

	if cancelled(req.Cancel) {
		return nil
	}
	if target, ok := resolveMacroDefinition(req.Doc, word); ok {
		return target
	}

	return nil
}

// looksLikeNavigableBuiltin is tier 7's builtin gate. The full
// completion builtin table is out of scope for this subsystem (it
// belongs to the completion engine); navigation's own fast-path symbol
// family recognizer stands in as a reduced substitute so tier 7 still
// has a concrete gate to check.
func looksLikeNavigableBuiltin(word string) bool {
	return systemheader.LooksLikeBuiltinFamily(word)
}

// TIER 0.
func (r *Resolver) resolveInclude(req Request, inc syntax.IncludePath) (navigation.Target, bool) {
	check := func(path string) (navigation.Target, bool) {
		if fileExists(path) {
			return navigation.Single(navigation.ZeroRangeLocation(path)), true
		}
		return nil, false
	}

	for _, dir := range req.IncludePaths {
		if target, ok := check(filepath.Join(dir, inc.Path)); ok {
			return target, true
		}
		if inc.IsAngled {
			if target, ok := check(filepath.Join(dir, "metal", inc.Path)); ok {
				return target, true
			}
		}
	}
	if !inc.IsAngled {
		if dir, ok := ownerDir(req.Doc.URI); ok {
			if target, ok := check(filepath.Join(dir, inc.Path)); ok {
				return target, true
			}
		}
	}
	return nil, false
}

// TIER 1.
func (r *Resolver) resolveLocalTemplateParameter(req Request, offset uint32, word string) (navigation.Target, bool) {
	list := syntax.EnclosingTemplateParamList(req.Doc.Tree, offset)
	if list == nil {
		return nil, false
	}
	names := syntax.TemplateParamNames(list, req.Doc.Tree.Source())
	matchCount := 0
	for _, n := range names {
		if n == word {
			matchCount++
		}
	}
	if matchCount == 0 {
		return nil, false
	}
	if matchCount > 1 {
		// Ambiguous: stop the pipeline here rather than falling through
		// to the AST tiers for a name that's shadowed locally.
		return nil, true
	}
	ident := syntax.TemplateParamIdentByName(list, req.Doc.Tree.Source(), word)
	if ident == nil {
		return nil, false
	}
	start := req.Doc.PositionOf(ident.StartByte())
	end := req.Doc.PositionOf(ident.EndByte())
	loc := navigation.Location{
		File: req.Doc.URI,
		Range: navigation.Range{
			Start: navigation.Position{Line: start.Line, Character: start.Character},
			End:   navigation.Position{Line: end.Line, Character: end.Character},
		},
	}
	return navigation.Single(loc), true
}

// TIER 2.
func (r *Resolver) resolveFastSystemSymbol(req Request, word string) (navigation.Target, bool) {
	chars, cursor, ok := lineCharsAt(req.Doc, req.Position)
	if ok {
		if qualifier, ok := symboltext.ExtractNamespaceQualifierBeforeWord(chars, cursor, word); ok {
			if systemheader.IsSystemNamespace(qualifier) {
				if target, ok := systemheader.ResolveQualifiedMember(qualifier, word, req.IncludePaths); ok {
					return target, true
				}
			}
		}
	}

	if !shouldFastLookupSystemSymbol(chars, cursor, word) {
		return nil, false
	}
	return systemheader.ResolveSymbol(word, req.IncludePaths)
}

func shouldFastLookupSystemSymbol(chars []rune, cursor int, word string) bool {
	if systemheader.LooksLikeBuiltinFamily(word) {
		return true
	}
	if chars == nil {
		return false
	}
	if qualifier, ok := symboltext.ExtractNamespaceQualifierBeforeWord(chars, cursor, word); ok {
		return systemheader.IsSystemNamespace(qualifier)
	}
	return false
}

// TIER 4.
func resolvePreciseDef(idx *ast.Index, sourceFile string, pos document.Position, word string) (*ast.SymbolDef, bool) {
	cursorLine := pos.Line + 1
	cursorCol := pos.Character + 1

	for i := range idx.Refs {
		ref := &idx.Refs[i]
		if ref.TargetName != word {
			continue
		}
		site, ok := matchRefSite(ref, sourceFile, cursorLine, cursorCol)
		if !ok {
			continue
		}
		def, ok := idx.DefByID(ref.TargetID)
		if !ok {
			continue
		}
		if site != matchPrimary && def.Kind == ast.KindParmVarDecl {
			continue
		}
		return def, true
	}
	return nil, false
}

type matchSite int

const (
	matchPrimary matchSite = iota
	matchExpansion
	matchSpelling
)

func matchRefSite(ref *ast.RefSite, sourceFile string, cursorLine, cursorCol int) (matchSite, bool) {
	if matchesPosition(ref.File, ref.Line, ref.Col, ref.TokLen, sourceFile, cursorLine, cursorCol) {
		return matchPrimary, true
	}
	if ref.Expansion != nil && matchesPosition(ref.Expansion.File, ref.Expansion.Line, ref.Expansion.Col, ref.Expansion.TokLen, sourceFile, cursorLine, cursorCol) {
		return matchExpansion, true
	}
	if ref.Spelling != nil && matchesPosition(ref.Spelling.File, ref.Spelling.Line, ref.Spelling.Col, ref.Spelling.TokLen, sourceFile, cursorLine, cursorCol) {
		return matchSpelling, true
	}
	return 0, false
}

func matchesPosition(file string, line, col, tokLen int, sourceFile string, cursorLine, cursorCol int) bool {
	if !pathsMatch(file, sourceFile) {
		return false
	}
	if line != cursorLine {
		return false
	}
	tokenEnd := col + tokLen
	return cursorCol >= col && cursorCol <= tokenEnd
}

// TIER 5.
func (r *Resolver) resolveByName(req Request, idx *ast.Index, word string) (navigation.Target, bool) {
	all := idx.DefsByName(word)
	candidates := filterValid(all)
	if len(candidates) == 0 {
		return nil, false
	}
	deduped := dedupeDefs(candidates)
	if len(deduped) == 0 {
		return nil, false
	}
	sortByRank(deduped, word, req.FileKey)

	tied := tiedPrefix(deduped, word, req.FileKey)
	if len(tied) == 1 {
		if loc, ok := defToLocation(tied[0]); ok {
			return navigation.Single(loc), true
		}
		return nil, false
	}

	chars, cursor, haveChars := lineCharsAt(req.Doc, req.Position)
	if haveChars {
		if winner, ok := disambiguateMemberTie(idx, tied, req.FileKey, chars, cursor, req.Position.Line+1, word); ok {
			if loc, ok := defToLocation(winner); ok {
				return navigation.Single(loc), true
			}
		}
	}
	if winner, ok := disambiguateParameterTie(tied, req.FileKey, req.Position.Line+1); ok {
		if loc, ok := defToLocation(winner); ok {
			return navigation.Single(loc), true
		}
	}
	return nil, false
}

// TIER 6.
func (r *Resolver) resolveFromProjectIndex(req Request, word string) (navigation.Target, bool) {
	if r.ProjectIndex == nil {
		return nil, false
	}
	var defs []*ast.SymbolDef
	if r.ProjectGraph != nil && req.FileKey != "" {
		scope := r.ProjectGraph.ScopedReachable(req.FileKey, r.ProjectGraphDepth, r.ProjectGraphMaxNodes)
		for _, hit := range r.ProjectIndex.LookupByName(word) {
			if _, ok := scope[hit.File]; ok {
				defs = append(defs, hit.Def)
			}
		}
	}
	if len(defs) == 0 {
		for _, hit := range r.ProjectIndex.LookupByName(word) {
			defs = append(defs, hit.Def)
		}
	}
	if len(defs) == 0 {
		return nil, false
	}

	var otherFile []*ast.SymbolDef
	for _, d := range defs {
		if !pathsMatch(d.File, req.FileKey) {
			otherFile = append(otherFile, d)
		}
	}
	pool := defs
	if len(otherFile) > 0 {
		pool = otherFile
	}

	deduped := dedupeDefs(filterValid(pool))
	if len(deduped) == 0 {
		return nil, false
	}
	sortByRank(deduped, word, req.FileKey)

	tied := tiedPrefix(deduped, word, req.FileKey)
	if len(tied) == 1 {
		if loc, ok := defToLocation(tied[0]); ok {
			return navigation.Single(loc), true
		}
		return nil, false
	}
	if winner, ok := disambiguateParameterTie(tied, req.FileKey, req.Position.Line+1); ok {
		if loc, ok := defToLocation(winner); ok {
			return navigation.Single(loc), true
		}
	}
	return nil, false
}

// TIER 8.
func resolveMacroDefinition(doc *document.Document, word string) (navigation.Target, bool) {
	lines := strings.Split(doc.Text, "\n")
	needle := "#define " + word
	for i, line := range lines {
		idx := strings.Index(line, needle)
		if idx < 0 {
			continue
		}
		nameStart := idx + len("#define ")
		for nameStart < len(line) && (line[nameStart] == ' ' || line[nameStart] == '\t') {
			nameStart++
		}
		loc := navigation.Location{
			File: doc.URI,
			Range: navigation.Range{
				Start: navigation.Position{Line: i, Character: nameStart},
				End:   navigation.Position{Line: i, Character: nameStart + len(word)},
			},
		}
		return navigation.Single(loc), true
	}
	return nil, false
}

func filterValid(defs []*ast.SymbolDef) []*ast.SymbolDef {
	var out []*ast.SymbolDef
	for _, d := range defs {
		if d.File != "" && d.Line > 0 {
			out = append(out, d)
		}
	}
	return out
}

func dedupeDefs(defs []*ast.SymbolDef) []*ast.SymbolDef {
	type key struct {
		file string
		line int
		col  int
	}
	seen := make(map[key]bool, len(defs))
	var out []*ast.SymbolDef
	for _, d := range defs {
		k := key{d.File, d.Line, d.Col}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, d)
	}
	return out
}

func sortByRank(defs []*ast.SymbolDef, word, sourceFile string) {
	sort.SliceStable(defs, func(i, j int) bool {
		a, b := defs[i], defs[j]
		ra, rb := rank.Of(word, a, sourceFile), rank.Of(word, b, sourceFile)
		if !ra.Equal(rb) {
			return ra.Less(rb)
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Col < b.Col
	})
}

func tiedPrefix(sorted []*ast.SymbolDef, word, sourceFile string) []*ast.SymbolDef {
	if len(sorted) == 0 {
		return nil
	}
	best := rank.Of(word, sorted[0], sourceFile)
	var tied []*ast.SymbolDef
	for _, d := range sorted {
		if rank.Of(word, d, sourceFile).Equal(best) {
			tied = append(tied, d)
		} else {
			break
		}
	}
	return tied
}

func defToLocation(def *ast.SymbolDef) (navigation.Location, bool) {
	if def.File == "" || def.Line <= 0 {
		return navigation.Location{}, false
	}
	line := def.Line - 1
	col := def.Col - 1
	if col < 0 {
		col = 0
	}
	nameLen := len([]rune(def.Name))
	return navigation.Location{
		File: def.File,
		Range: navigation.Range{
			Start: navigation.Position{Line: line, Character: col},
			End:   navigation.Position{Line: line, Character: col + nameLen},
		},
	}, true
}

func lineCharsAt(doc *document.Document, pos document.Position) ([]rune, int, bool) {
	lines := strings.Split(doc.Text, "\n")
	if pos.Line < 0 || pos.Line >= len(lines) {
		return nil, 0, false
	}
	lineStart := doc.OffsetOf(document.Position{Line: pos.Line, Character: 0})
	byteCol := int(doc.OffsetOf(pos) - lineStart)
	return symboltext.LineCharsAndCursor(lines, pos.Line, byteCol)
}

func ownerDir(uri string) (string, bool) {
	path, ok := filePathFromURI(uri)
	if !ok {
		return "", false
	}
	return filepath.Dir(path), true
}

func pathsMatch(a, b string) bool {
	if a == b {
		return true
	}
	return filepath.Base(a) == filepath.Base(b) && filepath.Base(a) != "."
}
