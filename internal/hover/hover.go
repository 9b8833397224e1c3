// Package hover renders symbol information for the cursor position:
// a signature snippet, a preceding `///` doc comment block, and a
// "Defined in" location list (spec.md ยง4.9). Grounded on
// original_source/.../hover/provider.rs (format_symbol_hover,
// qual_type_to_return_type) and hover/user_symbol.rs (doc-comment
// scan, "Defined in" list with a five-location cap).
package hover

import (
	"bytes"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"

	"github.com/metal-analyzer/metal-analyzer/internal/ast"
)

const maxLocationsShown = 5

// Hover is one hover response: Markdown is what an LSP client renders
// directly; HTML is a goldmark+chroma rendering of the same content.
type Hover struct {
	Markdown string
	HTML     string
}

// Location is a bare definition site, independent of internal/navigation
// so this package has no dependency on the resolver.
type Location struct {
	File string
	Line int // 0-based
}

// FromSymbolDef formats hover content for a single AST definition,
// mirroring provider.rs's format_symbol_hover. It returns false for
// kinds that carry no useful type information.
func FromSymbolDef(def *ast.SymbolDef) (Hover, bool) {
	if def.QualType == "" {
		return Hover{}, false
	}

	var snippet string
	switch def.Kind {
	case ast.KindFunctionDecl, ast.KindCXXMethodDecl:
		snippet = returnType(def.QualType) + " " + def.Name
	case ast.KindVarDecl, ast.KindFieldDecl, ast.KindParmVarDecl:
		snippet = def.Name + ": " + def.QualType
	case ast.KindTypedefDecl, ast.KindTypeAliasDecl:
		snippet = "typedef " + def.Name + " = " + def.QualType
	case ast.KindEnumConstantDecl:
		snippet = def.Name + " (enum constant)"
	default:
		return Hover{}, false
	}

	var md strings.Builder
	md.WriteString("```metal\n")
	md.WriteString(snippet)
	md.WriteString("\n```\n")

	if filename := basename(def.File); filename != "" {
		md.WriteString("\n*Defined in `")
		md.WriteString(filename)
		md.WriteString(":")
		md.WriteString(itoa(def.Line))
		md.WriteString("`*\n")
	}

	return render(md.String()), true
}

// FromUserSymbol builds hover content from raw source text when no
// qualified-type information is available: a source-line snippet, any
// `///` doc comment immediately preceding it, and a capped "Defined in"
// list. Mirrors hover/user_symbol.rs's make_hover_from_user_symbol.
func FromUserSymbol(word string, sourceLines []string, defLine int, locations []Location) Hover {
	var md strings.Builder
	foundSnippet := false

	if defLine >= 0 && defLine < len(sourceLines) {
		line := strings.TrimSpace(sourceLines[defLine])
		md.WriteString("```metal\n")
		md.WriteString(line)
		md.WriteString("\n```\n")
		foundSnippet = true

		if doc := precedingDocComment(sourceLines, defLine); doc != "" {
			md.WriteString("\n---\n\n")
			md.WriteString(doc)
			md.WriteString("\n")
		}
	}

	if !foundSnippet {
		md.WriteString("**" + word + "**\n\n")
	}

	md.WriteString("\nDefined in:\n")
	shown := locations
	if len(shown) > maxLocationsShown {
		shown = shown[:maxLocationsShown]
	}
	for _, loc := range shown {
		md.WriteString("- `")
		md.WriteString(basename(loc.File))
		md.WriteString(":")
		md.WriteString(itoa(loc.Line + 1))
		md.WriteString("`\n")
	}
	if len(locations) > maxLocationsShown {
		md.WriteString("- *...and ")
		md.WriteString(itoa(len(locations) - maxLocationsShown))
		md.WriteString(" more*\n")
	}

	return render(md.String())
}

// precedingDocComment walks upward from the line before defLine
// collecting contiguous `///`-prefixed lines, tolerating attribute
// lines (`[[...]]`) and `template` lines in between, exactly as
// user_symbol.rs's scan does.
func precedingDocComment(lines []string, defLine int) string {
	var comments []string
	cur := defLine
	for cur > 0 {
		cur--
		l := strings.TrimSpace(lines[cur])
		if rest, ok := strings.CutPrefix(l, "///"); ok {
			comments = append(comments, strings.TrimSpace(rest))
			continue
		}
		if len(comments) > 0 {
			break
		}
		if strings.HasPrefix(l, "[") || strings.HasPrefix(l, "template") || l == "" {
			continue
		}
		break
	}
	if len(comments) == 0 {
		return ""
	}
	for i, j := 0, len(comments)-1; i < j; i, j = i+1, j-1 {
		comments[i], comments[j] = comments[j], comments[i]
	}
	return strings.Join(comments, "\n")
}

func returnType(qualType string) string {
	if i := strings.IndexByte(qualType, '('); i >= 0 {
		return strings.TrimSpace(qualType[:i])
	}
	return qualType
}

// render converts markdown to an HTML fragment via goldmark, with
// chroma syntax highlighting applied to any ```metal fenced block
// beforehand (goldmark has no Metal lexer of its own).
func render(markdown string) Hover {
	highlighted := highlightMetalFences(markdown)
	var buf bytes.Buffer
	html := ""
	if err := goldmark.Convert([]byte(highlighted), &buf); err == nil {
		html = buf.String()
	}
	return Hover{Markdown: markdown, HTML: html}
}

func highlightMetalFences(markdown string) string {
	const fence = "```metal\n"
	start := strings.Index(markdown, fence)
	if start < 0 {
		return markdown
	}
	bodyStart := start + len(fence)
	end := strings.Index(markdown[bodyStart:], "```")
	if end < 0 {
		return markdown
	}
	code := markdown[bodyStart : bodyStart+end]

	lexer := lexers.Get("cpp")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	style := styles.Get("github")
	if style == nil {
		style = styles.Fallback
	}
	formatter := chromahtml.New(chromahtml.WithClasses(true))

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return markdown
	}
	var highlighted bytes.Buffer
	if err := formatter.Format(&highlighted, style, iterator); err != nil {
		return markdown
	}

	return markdown[:start] + highlighted.String() + markdown[bodyStart+end+3:]
}

func basename(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
