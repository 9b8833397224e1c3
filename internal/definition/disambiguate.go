package definition

import (
	"sort"
	"strings"

	"github.com/metal-analyzer/metal-analyzer/internal/ast"
	"github.com/metal-analyzer/metal-analyzer/internal/symboltext"
)

// disambiguateMemberTie narrows a tied rank-5 candidate set using the
// member-access receiver at the cursor (`receiver.word` or
// `receiver->word`): it infers the receiver's local type, keeps only
// candidates whose enclosing record matches that type by short name,
// then (if several methods remain) picks by call-site arity and
// constness (symbol_rank.rs's disambiguate_member_tie).
func disambiguateMemberTie(idx *ast.Index, tied []*ast.SymbolDef, sourceFile string, chars []rune, cursor, cursorLine int, word string) (*ast.SymbolDef, bool) {
	receiver, ok := symboltext.ExtractMemberReceiverIdentifier(chars, cursor, word)
	if !ok {
		return nil, false
	}
	cursorCol := cursor + 1
	typeName := inferLocalIdentifierTypeName(idx, sourceFile, cursorLine, cursorCol, receiver)
	if typeName == "" {
		return nil, false
	}
	wantShort := shortTypeName(typeName)

	var matched []*ast.SymbolDef
	for _, d := range tied {
		if d.Kind != ast.KindFieldDecl && d.Kind != ast.KindCXXMethodDecl {
			continue
		}
		recordName := enclosingRecordName(idx, d.File, d.Line)
		if recordName != "" && shortTypeName(recordName) == wantShort {
			matched = append(matched, d)
		}
	}
	if len(matched) == 0 {
		return nil, false
	}
	if len(matched) == 1 {
		return matched[0], true
	}

	argCount, haveArgs := symboltext.ExtractCallArgumentCount(chars, cursor, word)
	return selectMethodOverloadForMember(matched, argCount, haveArgs)
}

// disambiguateParameterTie narrows a tied candidate set to same-file
// parameter and template-parameter declarations, preferring the one
// with the largest line at or before the cursor
// (fallback_lookup.rs's disambiguate_parameter_tie).
func disambiguateParameterTie(tied []*ast.SymbolDef, sourceFile string, cursorLine int) (*ast.SymbolDef, bool) {
	var candidates []*ast.SymbolDef
	for _, d := range tied {
		if !isParameterLikeKind(d.Kind) {
			continue
		}
		if pathsMatch(d.File, sourceFile) && d.Line <= cursorLine {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	best := candidates[0]
	for _, d := range candidates[1:] {
		if d.Line > best.Line || (d.Line == best.Line && d.Col > best.Col) {
			best = d
		}
	}
	return best, true
}

// isParameterLikeKind reports whether kind is one
// disambiguateParameterTie considers: an ordinary function parameter or
// either flavor of template parameter.
func isParameterLikeKind(kind ast.Kind) bool {
	switch kind {
	case ast.KindParmVarDecl, ast.KindTemplateTypeParmDecl, ast.KindNonTypeTemplateParmDecl:
		return true
	default:
		return false
	}
}

// inferLocalIdentifierTypeName looks backward from the cursor for the
// nearest same-file parameter/variable/field declaration named
// identifier and returns its recorded type name.
func inferLocalIdentifierTypeName(idx *ast.Index, file string, cursorLine, cursorCol int, identifier string) string {
	var candidates []*ast.SymbolDef
	for _, d := range idx.DefsInFile(file) {
		if d.Name != identifier {
			continue
		}
		switch d.Kind {
		case ast.KindParmVarDecl, ast.KindVarDecl, ast.KindFieldDecl:
		default:
			continue
		}
		if d.Line < cursorLine || (d.Line == cursorLine && d.Col <= cursorCol) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Line != b.Line {
			return a.Line > b.Line
		}
		return a.Col > b.Col
	})
	return candidates[0].TypeName
}

// enclosingRecordName returns the name of the nearest record-like
// declaration in file whose line is at or before line.
func enclosingRecordName(idx *ast.Index, file string, line int) string {
	var best *ast.SymbolDef
	for _, d := range idx.DefsInFile(file) {
		switch d.Kind {
		case ast.KindCXXRecordDecl, ast.KindClassTemplateSpecializationDecl:
		default:
			continue
		}
		if d.Line <= line && (best == nil || d.Line > best.Line) {
			best = d
		}
	}
	if best == nil {
		return ""
	}
	return best.Name
}

// selectMethodOverloadForMember picks among tied methods by matching
// the call-site argument count to the method's recorded parameter
// count (encoded in QualType as a function type), falling back to
// constness preference (non-const before const) when counts don't
// disambiguate.
func selectMethodOverloadForMember(matched []*ast.SymbolDef, argCount int, haveArgs bool) (*ast.SymbolDef, bool) {
	if haveArgs {
		var byArity []*ast.SymbolDef
		for _, d := range matched {
			if methodParameterCount(d) == argCount {
				byArity = append(byArity, d)
			}
		}
		if len(byArity) == 1 {
			return byArity[0], true
		}
		if len(byArity) > 1 {
			matched = byArity
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return methodConstnessRank(matched[i]) < methodConstnessRank(matched[j])
	})
	return matched[0], true
}

// methodConstnessRank prefers non-const methods (rank 0) over const
// methods (rank 1) when a call site gives no other signal.
func methodConstnessRank(d *ast.SymbolDef) int {
	if strings.Contains(d.QualType, ") const") {
		return 1
	}
	return 0
}

// methodParameterCount counts comma-separated parameter types inside
// the first balanced-paren group of the method's recorded qualified
// type, or -1 if it cannot be determined.
func methodParameterCount(d *ast.SymbolDef) int {
	open := strings.IndexByte(d.QualType, '(')
	if open < 0 {
		return -1
	}
	depth := 0
	var params []rune
	for _, r := range d.QualType[open:] {
		switch r {
		case '(':
			depth++
			if depth == 1 {
				continue
			}
		case ')':
			depth--
			if depth == 0 {
				goto done
			}
		}
		if depth >= 1 {
			params = append(params, r)
		}
	}
done:
	body := strings.TrimSpace(string(params))
	if body == "" || body == "void" {
		return 0
	}
	depth = 0
	count := 1
	for _, r := range body {
		switch r {
		case '(', '<':
			depth++
		case ')', '>':
			depth--
		case ',':
			if depth == 0 {
				count++
			}
		}
	}
	return count
}

// shortTypeName strips namespace qualifiers and template arguments,
// leaving the leaf type name used for member-tie comparisons.
func shortTypeName(typeName string) string {
	name := typeName
	if idx := strings.IndexByte(name, '<'); idx >= 0 {
		name = name[:idx]
	}
	if idx := strings.LastIndex(name, "::"); idx >= 0 {
		name = name[idx+2:]
	}
	return strings.TrimSpace(name)
}
