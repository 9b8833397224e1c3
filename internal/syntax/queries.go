package syntax

import "strings"

// TokenAt returns the leaf token whose span contains the byte offset.
// When two tokens meet exactly at offset, the more identifier-like of
// the two candidates is preferred, so a cursor sitting right after an
// identifier still resolves to it rather than to the following
// punctuation.
func TokenAt(tree *Tree, offset uint32) *Node {
	root := tree.RootNode()
	if root == nil {
		return nil
	}
	leaf := root.LeafAt(offset)
	if leaf == nil {
		return nil
	}
	if offset == leaf.startByte && leaf.startByte == leaf.endByte {
		return leaf
	}
	if offset == leaf.startByte || offset == leaf.endByte {
		// Boundary: check whether the previous leaf is more
		// identifier-like than the one LeafAt chose.
		if prev := previousLeaf(root, leaf); prev != nil && isIdentifierLike(prev.kind) && !isIdentifierLike(leaf.kind) {
			return prev
		}
	}
	return leaf
}

func isIdentifierLike(k Kind) bool {
	switch k {
	case KindIdent, KindIntLiteral, KindFloatLiteral:
		return true
	default:
		return false
	}
}

// previousLeaf returns the leaf immediately preceding n in source
// order, or nil if n is the first leaf.
func previousLeaf(root *Node, n *Node) *Node {
	var leaves []*Node
	root.Walk(func(cur *Node) bool {
		if cur.IsLeaf() {
			leaves = append(leaves, cur)
		}
		return true
	})
	for i, l := range leaves {
		if l == n && i > 0 {
			return leaves[i-1]
		}
	}
	return nil
}

// WordAtPosition returns the identifier text at offset, or "" if the
// token there isn't an identifier.
func WordAtPosition(tree *Tree, offset uint32) string {
	tok := TokenAt(tree, offset)
	if tok == nil || tok.kind != KindIdent {
		return ""
	}
	return tok.Text(tree.Source())
}

// NavigationWordAtPosition is like WordAtPosition but additionally
// falls back to a text scan when the cursor sits on pointer/reference
// punctuation or an error token, so `Type*` with the cursor on `*`
// still resolves to `Type` (spec.md ยง4.2).
func NavigationWordAtPosition(tree *Tree, offset uint32) string {
	if w := WordAtPosition(tree, offset); w != "" {
		return w
	}
	tok := TokenAt(tree, offset)
	if tok == nil {
		return ""
	}
	switch tok.kind {
	case KindStar, KindAmp, KindAmpAmp, KindError:
		return scanWordLeftOf(tree.Source(), tok.startByte)
	default:
		return ""
	}
}

// scanWordLeftOf walks left from byte offset over whitespace/qualifiers
// to find the nearest preceding identifier's text.
func scanWordLeftOf(source []byte, offset uint32) string {
	i := int(offset)
	for i > 0 {
		c := source[i-1]
		if c == ' ' || c == '\t' || c == '*' || c == '&' {
			i--
			continue
		}
		break
	}
	end := i
	for i > 0 && isIdentByte(source[i-1]) {
		i--
	}
	if i == end {
		return ""
	}
	return string(source[i:end])
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// IncludePath is a resolved #include directive's payload.
type IncludePath struct {
	Path       string
	IsAngled   bool // <...> vs "..."
	StartByte  uint32
	EndByte    uint32
}

// IncludeAtPosition walks ancestors of the token at offset for a
// preprocessor-include node and extracts the quoted or angled path. It
// falls back to a raw line scan when the CST's recovery swallowed the
// directive oddly.
func IncludeAtPosition(tree *Tree, offset uint32) (IncludePath, bool) {
	tok := TokenAt(tree, offset)
	if tok == nil {
		return IncludePath{}, false
	}
	for _, anc := range tok.Ancestors() {
		if anc.kind == KindPreprocDirective {
			if inc, ok := extractIncludeFromDirective(anc, tree.Source()); ok {
				return inc, true
			}
			return IncludePath{}, false
		}
	}
	return scanIncludeLine(tree.Source(), offset)
}

func extractIncludeFromDirective(directive *Node, source []byte) (IncludePath, bool) {
	var sawInclude bool
	result := IncludePath{}
	found := false
	directive.Walk(func(n *Node) bool {
		if !n.IsLeaf() {
			return true
		}
		switch n.kind {
		case KindIdent:
			if n.Text(source) == "include" {
				sawInclude = true
			}
		case KindStringLiteral:
			if sawInclude && !found {
				text := n.Text(source)
				result = IncludePath{Path: strings.Trim(text, "\""), StartByte: n.startByte + 1, EndByte: n.endByte - 1}
				found = true
			}
		case KindLt:
			if sawInclude && !found {
				// Angled include: scan forward for the matching '>' text.
			}
		}
		return true
	})
	if found {
		return result, true
	}
	// Angled form: reconstruct from raw directive text.
	text := directive.Text(source)
	if li := strings.Index(text, "<"); li >= 0 {
		if gi := strings.Index(text[li:], ">"); gi >= 0 {
			path := text[li+1 : li+gi]
			return IncludePath{Path: path, IsAngled: true, StartByte: directive.startByte + uint32(li) + 1, EndByte: directive.startByte + uint32(li+gi)}, true
		}
	}
	return IncludePath{}, false
}

func scanIncludeLine(source []byte, offset uint32) (IncludePath, bool) {
	start := int(offset)
	for start > 0 && source[start-1] != '\n' {
		start--
	}
	end := int(offset)
	for end < len(source) && source[end] != '\n' {
		end++
	}
	line := string(source[start:end])
	if !strings.Contains(line, "#include") {
		return IncludePath{}, false
	}
	if li := strings.Index(line, "\""); li >= 0 {
		if ri := strings.Index(line[li+1:], "\""); ri >= 0 {
			path := line[li+1 : li+1+ri]
			return IncludePath{Path: path, StartByte: uint32(start + li + 1), EndByte: uint32(start + li + 1 + ri)}, true
		}
	}
	if li := strings.Index(line, "<"); li >= 0 {
		if ri := strings.Index(line[li+1:], ">"); ri >= 0 {
			path := line[li+1 : li+1+ri]
			return IncludePath{Path: path, IsAngled: true, StartByte: uint32(start + li + 1), EndByte: uint32(start + li + 1 + ri)}, true
		}
	}
	return IncludePath{}, false
}

// AttributeAtPosition returns the full `[[...]]` attribute text
// enclosing offset, if any.
func AttributeAtPosition(tree *Tree, offset uint32) (string, bool) {
	tok := TokenAt(tree, offset)
	if tok == nil {
		return "", false
	}
	for _, anc := range tok.Ancestors() {
		if anc.kind == KindAttribute {
			return anc.Text(tree.Source()), true
		}
	}
	return "", false
}

// EnclosingTemplateParamList returns the nearest preceding sibling at
// the same depth that is a template parameter list, used by resolver
// tier 1 (local template parameter lookup). It returns nil if the node
// at offset isn't directly inside a TemplateDef.
func EnclosingTemplateParamList(tree *Tree, offset uint32) *Node {
	tok := TokenAt(tree, offset)
	if tok == nil {
		return nil
	}
	for _, anc := range tok.Ancestors() {
		if anc.kind == KindTemplateDef {
			for _, c := range anc.children {
				if c.kind == KindTemplateParamList {
					return c
				}
			}
			return nil
		}
	}
	return nil
}

// TemplateParamNames returns the identifier names declared directly in
// a template parameter list (one per KindTemplateParam child).
func TemplateParamNames(list *Node, source []byte) []string {
	if list == nil {
		return nil
	}
	var names []string
	for _, c := range list.children {
		if c.kind != KindTemplateParam {
			continue
		}
		for _, leaf := range c.children {
			if leaf.kind == KindIdent {
				names = append(names, leaf.Text(source))
			}
		}
	}
	return names
}

// TemplateParamIdentByName returns the identifier leaf node naming a
// single template parameter in list, for use as a navigation target.
func TemplateParamIdentByName(list *Node, source []byte, name string) *Node {
	if list == nil {
		return nil
	}
	for _, c := range list.children {
		if c.kind != KindTemplateParam {
			continue
		}
		for _, leaf := range c.children {
			if leaf.kind == KindIdent && leaf.Text(source) == name {
				return leaf
			}
		}
	}
	return nil
}
