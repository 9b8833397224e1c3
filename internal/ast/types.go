// Package ast holds the per-translation-unit index extracted from a
// compiler AST dump: definitions, references, and the derived lookup
// maps the resolver walks (spec.md ยง3, ยง4.4).
package ast

// Kind mirrors the closed set of compiler AST node names a SymbolDef
// can carry.
type Kind string

const (
	KindFunctionDecl                     Kind = "FunctionDecl"
	KindCXXRecordDecl                    Kind = "CXXRecordDecl"
	KindCXXMethodDecl                    Kind = "CXXMethodDecl"
	KindFieldDecl                        Kind = "FieldDecl"
	KindParmVarDecl                      Kind = "ParmVarDecl"
	KindVarDecl                          Kind = "VarDecl"
	KindTypedefDecl                      Kind = "TypedefDecl"
	KindTypeAliasDecl                    Kind = "TypeAliasDecl"
	KindEnumDecl                         Kind = "EnumDecl"
	KindEnumConstantDecl                 Kind = "EnumConstantDecl"
	KindNamespaceDecl                    Kind = "NamespaceDecl"
	KindClassTemplateDecl                Kind = "ClassTemplateDecl"
	KindClassTemplateSpecializationDecl  Kind = "ClassTemplateSpecializationDecl"
	KindFunctionTemplateDecl             Kind = "FunctionTemplateDecl"
	KindTemplateTypeParmDecl             Kind = "TemplateTypeParmDecl"
	KindNonTypeTemplateParmDecl          Kind = "NonTypeTemplateParmDecl"
	KindUsingDecl                        Kind = "UsingDecl"
)

// SymbolDef is one declaration-or-definition site extracted from the
// compiler AST dump.
type SymbolDef struct {
	ID           string
	Name         string
	Kind         Kind
	File         string
	Line         int // 1-based, as reported by the compiler
	Col          int // 1-based
	IsDefinition bool
	// TypeName is set only for VarDecl/FieldDecl/ParmVarDecl and holds
	// the normalized leaf type name.
	TypeName string
	// QualType holds the full qualified type string, when known.
	QualType string
}

// Location is a bare file/line/col triple, used for the expansion and
// spelling coordinates of a macro-originated reference.
type Location struct {
	File   string
	Line   int
	Col    int
	TokLen int
}

// RefSite is a reference the compiler resolved to TargetID.
type RefSite struct {
	File       string
	Line       int
	Col        int
	TokLen     int
	TargetID   string
	TargetName string
	TargetKind Kind
	// Expansion and Spelling hold alternate locations when the
	// reference originates inside a macro expansion (Clang-style
	// primary/expansion/spelling triad). Nil when not applicable.
	Expansion *Location
	Spelling  *Location
}
