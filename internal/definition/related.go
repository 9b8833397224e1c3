package definition

import (
	"github.com/metal-analyzer/metal-analyzer/internal/ast"
	"github.com/metal-analyzer/metal-analyzer/internal/navigation"
	"github.com/metal-analyzer/metal-analyzer/internal/rank"
	"github.com/metal-analyzer/metal-analyzer/internal/syntax"
)

// GotoDeclaration prefers a non-definition decl of the same name over
// Provide's definition-biased result, falling back to Provide when no
// separate declaration exists.
func (r *Resolver) GotoDeclaration(req Request) navigation.Target {
	word := cursorWord(req)
	if word == "" {
		return nil
	}
	idx, ok := r.Acquirer.Acquire(req.FileKey, req.Doc, req.IncludePaths, req.Cancel)
	if ok {
		if decls := idx.Declarations(word); len(decls) > 0 {
			sortByRank(decls, word, req.FileKey)
			if loc, ok := defToLocation(decls[0]); ok {
				return navigation.Single(loc)
			}
		}
	}
	return r.Provide(req)
}

// GotoTypeDefinition resolves the cursor word to a definition, then
// asks the AST index for that definition's own type (spec.md ยง4.7
// type-definition operation; grounded on ast_index.rs's
// get_type_definition). When the cursor word doesn't resolve to a
// precise definition, or that definition's type can't be resolved to a
// single best candidate, it falls back to every type-forming def
// sharing the word's name (provider.rs's candidates.filter(kind โˆˆ
// {CXXRecordDecl,TypedefDecl,TypeAliasDecl,EnumDecl}) โ†’ from_locations).
func (r *Resolver) GotoTypeDefinition(req Request) navigation.Target {
	word := cursorWord(req)
	if word == "" {
		return nil
	}
	idx, ok := r.Acquirer.Acquire(req.FileKey, req.Doc, req.IncludePaths, req.Cancel)
	if !ok {
		return nil
	}
	if def, ok := resolvePreciseDef(idx, req.FileKey, req.Position, word); ok {
		if typeDef, ok := idx.TypeDefinition(def, rank.IsSystemHeader); ok {
			if loc, ok := defToLocation(typeDef); ok {
				return navigation.Single(loc)
			}
		}
	}
	return typeFormingDefsByName(idx, word)
}

func typeFormingDefsByName(idx *ast.Index, word string) navigation.Target {
	var locs []navigation.Location
	for _, d := range idx.DefsByName(word) {
		if !ast.IsTypeFormingKind(d.Kind) {
			continue
		}
		if loc, ok := defToLocation(d); ok {
			locs = append(locs, loc)
		}
	}
	return navigation.FromLocations(locs)
}

// GotoImplementation returns every definition (as opposed to forward
// declaration) of the cursor word, preferring same-file hits.
func (r *Resolver) GotoImplementation(req Request) navigation.Target {
	word := cursorWord(req)
	if word == "" {
		return nil
	}
	idx, ok := r.Acquirer.Acquire(req.FileKey, req.Doc, req.IncludePaths, req.Cancel)
	if !ok {
		return nil
	}
	impls := idx.Implementations(word)
	if len(impls) == 0 {
		return nil
	}
	sortByRank(impls, word, req.FileKey)
	var locs []navigation.Location
	for _, d := range impls {
		if loc, ok := defToLocation(d); ok {
			locs = append(locs, loc)
		}
	}
	return navigation.FromLocations(locs)
}

// FindReferences returns every reference site targeting the cursor
// word's resolved definition, within the current file's AST index plus
// (when a project index is wired) every other indexed file, augmented
// by the project index's by-name reference fanout (spec.md ยง4.7/ยง9;
// grounded on provider.rs's project_index.find_references_by_name call,
// which catches refs an exact-ID walk misses, e.g. an overload or a
// macro-expanded call site recorded under a different target ID).
func (r *Resolver) FindReferences(req Request, includeDeclaration bool) navigation.Target {
	word := cursorWord(req)
	if word == "" {
		return nil
	}
	idx, ok := r.Acquirer.Acquire(req.FileKey, req.Doc, req.IncludePaths, req.Cancel)
	if !ok {
		return nil
	}
	def, ok := resolvePreciseDef(idx, req.FileKey, req.Position, word)
	if !ok {
		candidates := filterValid(idx.DefsByName(word))
		if len(candidates) == 0 {
			return nil
		}
		sortByRank(candidates, word, req.FileKey)
		def = candidates[0]
	}

	seen := make(map[navigation.Location]bool)
	var locs []navigation.Location
	addLoc := func(loc navigation.Location, ok bool) {
		if !ok || seen[loc] {
			return
		}
		seen[loc] = true
		locs = append(locs, loc)
	}

	for _, ref := range idx.RefsTo(def.ID) {
		addLoc(refSiteToLocation(ref))
	}
	if r.ProjectIndex != nil {
		for _, file := range r.ProjectIndex.Files() {
			if file == req.FileKey {
				continue
			}
			otherIdx, ok := r.ProjectIndex.ForFile(file)
			if !ok {
				continue
			}
			for _, ref := range otherIdx.RefsTo(def.ID) {
				addLoc(refSiteToLocation(ref))
			}
		}
		for _, hit := range r.ProjectIndex.FindReferencesByName(def.Name) {
			addLoc(refSiteToLocation(hit.Ref))
		}
	}
	if includeDeclaration {
		addLoc(defToLocation(def))
	}
	return navigation.FromLocations(locs)
}

// PrepareRename reports the renameable range at the cursor, or false
// when the word under the cursor isn't a navigable symbol (e.g. it
// resolves only through the system-header fast path).
func (r *Resolver) PrepareRename(req Request) (navigation.Location, bool) {
	word := cursorWord(req)
	if word == "" {
		return navigation.Location{}, false
	}
	idx, ok := r.Acquirer.Acquire(req.FileKey, req.Doc, req.IncludePaths, req.Cancel)
	if !ok {
		return navigation.Location{}, false
	}
	def, ok := resolvePreciseDef(idx, req.FileKey, req.Position, word)
	if !ok {
		return navigation.Location{}, false
	}
	if !pathsMatch(def.File, req.FileKey) {
		return navigation.Location{}, false
	}
	return defToLocation(def)
}

func cursorWord(req Request) string {
	offset := req.Doc.OffsetOf(req.Position)
	return syntax.NavigationWordAtPosition(req.Doc.Tree, offset)
}

func refSiteToLocation(ref *ast.RefSite) (navigation.Location, bool) {
	loc := ref.Expansion
	if loc == nil {
		loc = &ast.Location{File: ref.File, Line: ref.Line, Col: ref.Col, TokLen: ref.TokLen}
	}
	if loc.File == "" || loc.Line <= 0 {
		return navigation.Location{}, false
	}
	line := loc.Line - 1
	col := loc.Col - 1
	if col < 0 {
		col = 0
	}
	return navigation.Location{
		File: loc.File,
		Range: navigation.Range{
			Start: navigation.Position{Line: line, Character: col},
			End:   navigation.Position{Line: line, Character: col + loc.TokLen},
		},
	}, true
}
