package ast

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// rawLoc mirrors the compiler's source-location JSON shape: a bare
// file/line/col/tokLen quad, optionally nested with spelling/expansion
// alternates when the location originates inside a macro (spec.md
// ยง4.4's "Clang-like triad").
type rawLoc struct {
	File         string  `json:"file"`
	Line         int     `json:"line"`
	Col          int     `json:"col"`
	TokLen       int     `json:"tokLen"`
	SpellingLoc  *rawLoc `json:"spellingLoc"`
	ExpansionLoc *rawLoc `json:"expansionLoc"`
}

// bare resolves the first usable concrete location: spelling, then
// expansion, then itself, mirroring the indexer's declaration-location
// preference (macro-generated declarations should point at the macro
// body text).
func (l *rawLoc) bare() *rawLoc {
	if l == nil {
		return nil
	}
	if l.SpellingLoc != nil && l.SpellingLoc.Line > 0 {
		return l.SpellingLoc
	}
	if l.ExpansionLoc != nil && l.ExpansionLoc.Line > 0 {
		return l.ExpansionLoc
	}
	if l.Line > 0 {
		return l
	}
	return nil
}

type rawRange struct {
	Begin *rawLoc `json:"begin"`
	End   *rawLoc `json:"end"`
}

type rawType struct {
	QualType string `json:"qualType"`
}

type rawReferencedDecl struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// rawNode is a single node in the compiler's AST JSON dump. Fields not
// relevant to a node's kind are simply left zero.
type rawNode struct {
	ID               string             `json:"id"`
	Kind             string             `json:"kind"`
	Name             string             `json:"name"`
	Loc              *rawLoc            `json:"loc"`
	Range            *rawRange          `json:"range"`
	Type             *rawType           `json:"type"`
	IsImplicit       bool               `json:"isImplicit"`
	CompleteDefinition bool             `json:"completeDefinition"`
	StorageClass     string             `json:"storageClass"`
	Init             json.RawMessage    `json:"init"`
	ReferencedDecl   *rawReferencedDecl `json:"referencedDecl"`
	Inner            []rawNode          `json:"inner"`
}

// declKinds is the closed set of declaration node kinds the indexer
// turns into SymbolDef entries.
var declKinds = map[string]Kind{
	"FunctionDecl":                    KindFunctionDecl,
	"CXXRecordDecl":                   KindCXXRecordDecl,
	"CXXMethodDecl":                   KindCXXMethodDecl,
	"FieldDecl":                       KindFieldDecl,
	"ParmVarDecl":                     KindParmVarDecl,
	"VarDecl":                         KindVarDecl,
	"TypedefDecl":                     KindTypedefDecl,
	"TypeAliasDecl":                   KindTypeAliasDecl,
	"EnumDecl":                        KindEnumDecl,
	"EnumConstantDecl":                KindEnumConstantDecl,
	"NamespaceDecl":                   KindNamespaceDecl,
	"ClassTemplateDecl":               KindClassTemplateDecl,
	"ClassTemplateSpecializationDecl": KindClassTemplateSpecializationDecl,
	"FunctionTemplateDecl":            KindFunctionTemplateDecl,
	"TemplateTypeParmDecl":            KindTemplateTypeParmDecl,
	"NonTypeTemplateParmDecl":         KindNonTypeTemplateParmDecl,
	"UsingDecl":                       KindUsingDecl,
}

// refKinds is the closed set of reference-expression node kinds the
// indexer turns into RefSite entries.
var refKinds = map[string]bool{
	"DeclRefExpr": true,
	"MemberExpr":  true,
}

// valueDeclKinds is the subset of declKinds whose TypeName is derived
// from the normalized leaf of their QualType (spec.md ยง3).
var valueDeclKinds = map[string]bool{
	"VarDecl":     true,
	"FieldDecl":   true,
	"ParmVarDecl": true,
}

// alwaysDefinitionKinds never distinguish a forward declaration from a
// definition in the compiler's model; they are treated as definitions.
var alwaysDefinitionKinds = map[string]bool{
	"TypedefDecl":              true,
	"TypeAliasDecl":            true,
	"UsingDecl":                true,
	"NamespaceDecl":            true,
	"EnumConstantDecl":         true,
	"TemplateTypeParmDecl":     true,
	"NonTypeTemplateParmDecl":  true,
	"ParmVarDecl":              true,
}

// Decode parses one compiler AST JSON dump into its root node.
func Decode(data []byte) (*rawNode, error) {
	var root rawNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "ast: decoding compiler JSON dump")
	}
	return &root, nil
}

// BuildFromJSON walks the decoded compiler AST, collects defs and refs,
// rewrites any location matching tmpFiles to originalFile, and returns
// the built Index (spec.md ยง4.4).
func BuildFromJSON(root *rawNode, tmpFiles []string, originalFile string) *Index {
	var defs []SymbolDef
	var refs []RefSite
	walk(root, &defs, &refs)

	if originalFile != "" {
		for i := range defs {
			if pathIn(defs[i].File, tmpFiles) {
				defs[i].File = originalFile
			}
		}
		for i := range refs {
			if pathIn(refs[i].File, tmpFiles) {
				refs[i].File = originalFile
			}
			if refs[i].Expansion != nil && pathIn(refs[i].Expansion.File, tmpFiles) {
				refs[i].Expansion.File = originalFile
			}
			if refs[i].Spelling != nil && pathIn(refs[i].Spelling.File, tmpFiles) {
				refs[i].Spelling.File = originalFile
			}
		}
	}

	return Build(defs, refs)
}

func pathIn(path string, candidates []string) bool {
	for _, c := range candidates {
		if path == c {
			return true
		}
	}
	return false
}

func walk(n *rawNode, defs *[]SymbolDef, refs *[]RefSite) {
	if n == nil {
		return
	}
	if kind, ok := declKinds[n.Kind]; ok {
		collectDecl(n, kind, defs)
	} else if refKinds[n.Kind] {
		collectRef(n, refs)
	}
	for i := range n.Inner {
		walk(&n.Inner[i], defs, refs)
	}
}

func collectDecl(n *rawNode, kind Kind, defs *[]SymbolDef) {
	if n.Name == "" || n.IsImplicit {
		return
	}
	loc := n.Loc.bare()
	if loc == nil || loc.Line <= 0 {
		return
	}

	qualType := ""
	if n.Type != nil {
		qualType = n.Type.QualType
	}
	typeName := ""
	if valueDeclKinds[string(kind)] {
		typeName = normalizeTypeName(qualType)
	}

	*defs = append(*defs, SymbolDef{
		ID:           n.ID,
		Name:         n.Name,
		Kind:         kind,
		File:         loc.File,
		Line:         loc.Line,
		Col:          loc.Col,
		IsDefinition: isDefinition(n, string(kind)),
		TypeName:     typeName,
		QualType:     qualType,
	})
}

func collectRef(n *rawNode, refs *[]RefSite) {
	if n.ReferencedDecl == nil {
		return
	}
	srcLoc := n.Loc
	if n.Range != nil && n.Range.Begin != nil {
		srcLoc = n.Range.Begin
	}
	bare := srcLoc.bare()
	if bare == nil || bare.Line <= 0 || bare.File == "" {
		return
	}

	toLocation := func(l *rawLoc) *Location {
		if l == nil || l.Line == 0 || l.File == "" {
			return nil
		}
		return &Location{File: l.File, Line: l.Line, Col: l.Col, TokLen: l.TokLen}
	}

	var expansion, spelling *Location
	if srcLoc != nil {
		expansion = toLocation(srcLoc.ExpansionLoc)
		spelling = toLocation(srcLoc.SpellingLoc)
	}

	*refs = append(*refs, RefSite{
		File:       bare.File,
		Line:       bare.Line,
		Col:        bare.Col,
		TokLen:     bare.TokLen,
		TargetID:   n.ReferencedDecl.ID,
		TargetName: n.ReferencedDecl.Name,
		TargetKind: Kind(n.ReferencedDecl.Kind),
		Expansion:  expansion,
		Spelling:   spelling,
	})
}

// isDefinition decides whether n is a definition rather than a forward
// declaration, for the kinds where the compiler JSON distinguishes the
// two: CXXRecordDecl/EnumDecl via completeDefinition, FunctionDecl and
// CXXMethodDecl via the presence of a body (a CompoundStmt child),
// VarDecl via a non-extern storage class or the presence of an
// initializer. Kinds where the distinction doesn't apply are always
// treated as definitions.
func isDefinition(n *rawNode, kind string) bool {
	if alwaysDefinitionKinds[kind] {
		return true
	}
	switch kind {
	case "CXXRecordDecl", "EnumDecl", "ClassTemplateDecl", "ClassTemplateSpecializationDecl":
		return n.CompleteDefinition
	case "FunctionDecl", "CXXMethodDecl", "FunctionTemplateDecl":
		for i := range n.Inner {
			if n.Inner[i].Kind == "CompoundStmt" {
				return true
			}
		}
		return false
	case "VarDecl", "FieldDecl":
		if n.StorageClass == "extern" && len(n.Init) == 0 {
			return false
		}
		return true
	default:
		return true
	}
}

// normalizeTypeName reduces a full qualified type string to its leaf
// type name: strips pointer/reference/const/volatile decorations and
// namespace qualification, keeping the innermost identifier.
func normalizeTypeName(qualType string) string {
	s := qualType
	for {
		trimmed := trimSuffixAny(s, []string{" *", "*", " &", "&", " const", " volatile"})
		if trimmed == s {
			break
		}
		s = trimmed
	}
	s = trimPrefixAny(s, []string{"const ", "volatile ", "struct ", "class ", "enum "})
	s = lastAfter(s, "::")
	s = firstBefore(s, "<")
	return s
}

func trimSuffixAny(s string, suffixes []string) string {
	for _, suf := range suffixes {
		if len(s) > len(suf) && s[len(s)-len(suf):] == suf {
			return s[:len(s)-len(suf)]
		}
	}
	return s
}

func trimPrefixAny(s string, prefixes []string) string {
	for _, p := range prefixes {
		if len(s) > len(p) && s[:len(p)] == p {
			return s[len(p):]
		}
	}
	return s
}

func lastAfter(s, sep string) string {
	idx := -1
	for i := 0; i+len(sep) <= len(s); i++ {
		if s[i:i+len(sep)] == sep {
			idx = i
		}
	}
	if idx < 0 {
		return s
	}
	return s[idx+len(sep):]
}

func firstBefore(s, sep string) string {
	idx := indexOf(s, sep)
	if idx < 0 {
		return s
	}
	return s[:idx]
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
