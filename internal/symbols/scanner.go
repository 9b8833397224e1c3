// Package symbols scans a document's CST for a flat list of declared
// symbols (functions, structs, classes, enums, namespaces, typedefs,
// using-aliases) without running the compiler. It backs document and
// workspace symbol requests and feeds the cross-file Index.
package symbols

import (
	"strings"

	"github.com/metal-analyzer/metal-analyzer/internal/document"
	"github.com/metal-analyzer/metal-analyzer/internal/syntax"
)

// Kind mirrors the closed set of CST-recognizable declaration shapes.
// It is coarser than ast.SymbolDef.Kind, which mirrors the compiler's
// AST node names exactly.
type Kind string

const (
	KindFunction  Kind = "Function"
	KindStruct    Kind = "Struct"
	KindClass     Kind = "Class"
	KindEnum      Kind = "Enum"
	KindNamespace Kind = "Namespace"
	KindTypedef   Kind = "Typedef"
	KindUsing     Kind = "Using"
)

// Symbol is one CST-scanned declaration.
type Symbol struct {
	Name      string
	Kind      Kind
	URI       string
	Line      int // 0-based
	Character int
	// DocComment holds the text of a contiguous run of leading `///`
	// line comments immediately preceding the declaration, stripped of
	// the `///` marker, joined with newlines. Empty if none.
	DocComment string
}

// Scan walks a document's CST and returns every top-level (and
// namespace-nested) declaration it can name syntactically.
func Scan(doc *document.Document) []Symbol {
	if doc == nil || doc.Tree == nil {
		return nil
	}
	var out []Symbol
	scanChildren(doc, doc.Tree.RootNode(), &out)
	return out
}

func scanChildren(doc *document.Document, n *syntax.Node, out *[]Symbol) {
	if n == nil {
		return
	}
	for _, c := range n.Children() {
		scanNode(doc, c, out)
	}
}

func scanNode(doc *document.Document, n *syntax.Node, out *[]Symbol) {
	switch n.Kind() {
	case syntax.KindFunctionDef:
		emit(doc, n, KindFunction, out)
	case syntax.KindStructDef:
		emit(doc, n, KindStruct, out)
	case syntax.KindClassDef:
		emit(doc, n, KindClass, out)
	case syntax.KindEnumDef:
		emit(doc, n, KindEnum, out)
	case syntax.KindTypedefDef:
		emit(doc, n, KindTypedef, out)
	case syntax.KindUsingDef:
		emit(doc, n, KindUsing, out)
	case syntax.KindNamespaceDef:
		sym, ok := nameOf(doc, n, KindNamespace)
		if ok {
			*out = append(*out, sym)
		}
		for _, c := range n.Children() {
			if c.Kind() == syntax.KindBlock {
				scanChildren(doc, c, out)
			}
		}
	case syntax.KindTemplateDef:
		scanChildren(doc, n, out)
	}
}

func emit(doc *document.Document, n *syntax.Node, kind Kind, out *[]Symbol) {
	sym, ok := nameOf(doc, n, kind)
	if !ok {
		return
	}
	sym.DocComment = leadingDocComment(doc, n)
	*out = append(*out, sym)
}

// nameOf finds the declarator identifier directly (non-recursively,
// skipping nested param/template lists) inside n and reports its
// position as the symbol's location. A `using` alias names itself with
// the first identifier after the keyword (`using Color = float3`), so
// every other kind takes the last identifier seen before the param
// list, since a return type or aliased type is itself an identifier
// preceding the declarator name (`float3 compute(...)`, `typedef
// float3 Color`).
func nameOf(doc *document.Document, n *syntax.Node, kind Kind) (Symbol, bool) {
	// parseTopLevelItem splices leading trivia onto a declaration by
	// re-wrapping it as a single child of its own kind; unwrap that one
	// level before scanning for the declarator name.
	for _, c := range n.Children() {
		if c.IsTrivia() {
			continue
		}
		if c.Kind() == n.Kind() {
			return nameOf(doc, c, kind)
		}
		break
	}

	toSymbol := func(c *syntax.Node) Symbol {
		pos := doc.PositionOf(c.StartByte())
		return Symbol{
			Name:      c.Text([]byte(doc.Text)),
			Kind:      kind,
			URI:       doc.URI,
			Line:      pos.Line,
			Character: pos.Character,
		}
	}

	var last *syntax.Node
	for _, c := range n.Children() {
		switch c.Kind() {
		case syntax.KindIdent:
			if kind == KindUsing {
				return toSymbol(c), true
			}
			last = c
		case syntax.KindAttribute:
			continue
		case syntax.KindParamList:
			// A param list appearing before the declarator name means
			// we've gone past it without finding an identifier (e.g. an
			// anonymous struct); stop scanning this decl.
			goto done
		}
	}
done:
	if last == nil {
		return Symbol{}, false
	}
	return toSymbol(last), true
}

// leadingDocComment collects the contiguous run of `///` line comments
// immediately preceding the declaration, stripped of the marker and
// joined with newlines. parseTopLevelItem splices a declaration's
// leading trivia onto its own node as leading children (rather than as
// preceding siblings), so this scans n's own children from the start
// instead of walking n's siblings. Any non-`///` comment breaks the
// run, discarding whatever was collected before it.
func leadingDocComment(doc *document.Document, n *syntax.Node) string {
	var lines []string
	for _, c := range n.Children() {
		switch c.Kind() {
		case syntax.KindWhitespace, syntax.KindNewline:
			continue
		case syntax.KindLineComment:
			text := c.Text([]byte(doc.Text))
			if !strings.HasPrefix(text, "///") {
				lines = nil
				continue
			}
			lines = append(lines, strings.TrimPrefix(strings.TrimPrefix(text, "///"), " "))
		default:
			return strings.Join(lines, "\n")
		}
	}
	return strings.Join(lines, "\n")
}
