// Package syntax implements a lossless lexer and a tolerant,
// error-recovering parser for the Metal Shading Language, producing a
// red-green concrete syntax tree (CST).
package syntax

import "strconv"

// Kind tags every token and node in the CST. It is a closed set so that
// callers can switch exhaustively without a default case silently
// swallowing new syntax.
type Kind uint16

const (
	KindEOF Kind = iota

	// Trivia
	KindWhitespace
	KindLineComment
	KindBlockComment
	KindNewline

	// Literals and identifiers
	KindIdent
	KindIntLiteral
	KindFloatLiteral
	KindStringLiteral
	KindCharLiteral

	// Punctuation
	KindLParen
	KindRParen
	KindLBrace
	KindRBrace
	KindLBracket
	KindRBracket
	KindLAttr  // [[
	KindRAttr  // ]]
	KindSemi
	KindComma
	KindColon
	KindColonColon
	KindDot
	KindArrow
	KindQuestion
	KindEllipsis

	// Operators
	KindPlus
	KindMinus
	KindStar
	KindSlash
	KindPercent
	KindAmp
	KindAmpAmp
	KindPipe
	KindPipePipe
	KindCaret
	KindTilde
	KindBang
	KindEq
	KindEqEq
	KindBangEq
	KindLt
	KindLtEq
	KindLtLt
	KindGt
	KindGtEq
	KindGtGt
	KindPlusEq
	KindMinusEq
	KindStarEq
	KindSlashEq
	KindPercentEq
	KindAmpEq
	KindPipeEq
	KindCaretEq
	KindLtLtEq
	KindGtGtEq
	KindPlusPlus
	KindMinusMinus

	// Keywords -- control flow
	KindIf
	KindElse
	KindFor
	KindWhile
	KindDo
	KindSwitch
	KindCase
	KindDefault
	KindBreak
	KindContinue
	KindReturn
	KindDiscard

	// Keywords -- declarations
	KindStruct
	KindClass
	KindEnum
	KindNamespace
	KindTypedef
	KindUsing
	KindTemplate
	KindTypename
	KindConst
	KindStatic
	KindInline
	KindVirtual
	KindOperator

	// MSL address-space qualifiers
	KindDevice
	KindThreadgroup
	KindConstant
	KindThread
	KindRayData
	KindVisible

	// MSL stage qualifiers
	KindKernel
	KindVertex
	KindFragment
	KindMesh
	KindObject

	// MSL scalar type keywords
	KindHalf
	KindBfloat

	// Casts (non-navigable per the resolver's tier 0 filter)
	KindStaticCast
	KindDynamicCast
	KindReinterpretCast
	KindConstCast

	// Preprocessor
	KindHash
	KindPPInclude
	KindPPDefine
	KindPPUndef
	KindPPIf
	KindPPIfdef
	KindPPIfndef
	KindPPElse
	KindPPElif
	KindPPEndif
	KindPPPragma
	KindPPLine
	KindPPError
	KindPPOther

	KindError // unrecognized byte, consumed for forward progress

	// Nodes (non-terminal)
	KindTranslationUnit
	KindPreprocDirective
	KindAttribute
	KindFunctionDef
	KindStructDef
	KindClassDef
	KindEnumDef
	KindNamespaceDef
	KindTypedefDef
	KindUsingDef
	KindTemplateDef
	KindTemplateParamList
	KindTemplateParam
	KindParamList
	KindParam
	KindBlock
	KindStatement
	KindExprStatement
	KindDeclStatement
	KindExpr
	KindCallExpr
	KindMemberExpr
	KindTypeRef
	KindQualifiedName
	KindDeclarator
	KindInitDeclarator
)

var kindNames = map[Kind]string{
	KindEOF:              "EOF",
	KindWhitespace:       "Whitespace",
	KindLineComment:      "LineComment",
	KindBlockComment:     "BlockComment",
	KindNewline:          "Newline",
	KindIdent:            "Ident",
	KindIntLiteral:       "IntLiteral",
	KindFloatLiteral:     "FloatLiteral",
	KindStringLiteral:    "StringLiteral",
	KindCharLiteral:      "CharLiteral",
	KindLParen:           "LParen",
	KindRParen:           "RParen",
	KindLBrace:           "LBrace",
	KindRBrace:           "RBrace",
	KindLBracket:         "LBracket",
	KindRBracket:         "RBracket",
	KindLAttr:            "LAttr",
	KindRAttr:            "RAttr",
	KindSemi:             "Semi",
	KindComma:            "Comma",
	KindColon:            "Colon",
	KindColonColon:       "ColonColon",
	KindDot:              "Dot",
	KindArrow:            "Arrow",
	KindStar:             "Star",
	KindAmp:              "Amp",
	KindAmpAmp:           "AmpAmp",
	KindError:            "Error",
	KindTranslationUnit:  "TranslationUnit",
	KindPreprocDirective: "PreprocDirective",
	KindAttribute:        "Attribute",
	KindFunctionDef:      "FunctionDef",
	KindStructDef:        "StructDef",
	KindClassDef:         "ClassDef",
	KindEnumDef:          "EnumDef",
	KindNamespaceDef:     "NamespaceDef",
	KindTypedefDef:       "TypedefDef",
	KindUsingDef:         "UsingDef",
	KindTemplateDef:      "TemplateDef",
	KindTemplateParamList: "TemplateParamList",
	KindTemplateParam:    "TemplateParam",
	KindParamList:        "ParamList",
	KindParam:            "Param",
	KindBlock:            "Block",
	KindStatement:        "Statement",
	KindExprStatement:    "ExprStatement",
	KindDeclStatement:    "DeclStatement",
	KindExpr:             "Expr",
	KindCallExpr:         "CallExpr",
	KindMemberExpr:       "MemberExpr",
	KindTypeRef:          "TypeRef",
	KindQualifiedName:    "QualifiedName",
	KindDeclarator:       "Declarator",
	KindInitDeclarator:   "InitDeclarator",
}

// String returns a human-readable name for the kind, used by tests and
// debug dumps. Unknown kinds fall back to a numeric form.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsTrivia reports whether tokens of this kind carry no semantic content
// (whitespace, newlines and comments). The lexer still emits them so the
// token stream stays lossless; the parser's lookahead skips them.
func (k Kind) IsTrivia() bool {
	switch k {
	case KindWhitespace, KindLineComment, KindBlockComment, KindNewline:
		return true
	default:
		return false
	}
}

// keywords maps the closed keyword vocabulary (including MSL-specific
// address-space and stage qualifiers) to their kind.
var keywords = map[string]Kind{
	"if": KindIf, "else": KindElse, "for": KindFor, "while": KindWhile,
	"do": KindDo, "switch": KindSwitch, "case": KindCase, "default": KindDefault,
	"break": KindBreak, "continue": KindContinue, "return": KindReturn,
	"discard_fragment": KindDiscard,
	"struct": KindStruct, "class": KindClass, "enum": KindEnum,
	"namespace": KindNamespace, "typedef": KindTypedef, "using": KindUsing,
	"template": KindTemplate, "typename": KindTypename, "const": KindConst,
	"static": KindStatic, "inline": KindInline, "virtual": KindVirtual,
	"operator": KindOperator,

	"device": KindDevice, "threadgroup": KindThreadgroup,
	"constant": KindConstant, "thread": KindThread,
	"ray_data": KindRayData, "visible": KindVisible,

	"kernel": KindKernel, "vertex": KindVertex, "fragment": KindFragment,
	"mesh": KindMesh, "object": KindObject,

	"half": KindHalf, "bfloat": KindBfloat,

	"static_cast": KindStaticCast, "dynamic_cast": KindDynamicCast,
	"reinterpret_cast": KindReinterpretCast, "const_cast": KindConstCast,
}

// LookupKeyword returns the keyword kind for an identifier-shaped word,
// or (0, false) if it is an ordinary identifier.
func LookupKeyword(word string) (Kind, bool) {
	k, ok := keywords[word]
	return k, ok
}

// NonNavigableCastWords are the cast keywords tier 0 of the resolver
// rejects immediately (spec.md ยง4.7): they are keywords, not symbols.
var NonNavigableCastWords = map[string]bool{
	"static_cast":      true,
	"dynamic_cast":     true,
	"reinterpret_cast": true,
	"const_cast":       true,
}

// ppDirectives maps a preprocessor directive keyword (the word following
// `#`) to its specific node kind. Unknown directives become KindPPOther.
var ppDirectives = map[string]Kind{
	"include": KindPPInclude,
	"define":  KindPPDefine,
	"undef":   KindPPUndef,
	"if":      KindPPIf,
	"ifdef":   KindPPIfdef,
	"ifndef":  KindPPIfndef,
	"else":    KindPPElse,
	"elif":    KindPPElif,
	"endif":   KindPPEndif,
	"pragma":  KindPPPragma,
	"line":    KindPPLine,
	"error":   KindPPError,
}

// LookupPPDirective resolves a directive word to its node kind.
func LookupPPDirective(word string) Kind {
	if k, ok := ppDirectives[word]; ok {
		return k
	}
	return KindPPOther
}
