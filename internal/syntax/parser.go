package syntax

// Parser builds a tolerant CST over a token stream. It never fails: an
// unexpected token is wrapped into an error node and consumed so the
// parser always makes progress (spec.md ยง8 Progress law).
type Parser struct {
	toks []Token // every lexed token, trivia included, ending with KindEOF
	pos  int
}

// Parse lexes and parses source into a Tree.
func Parse(source []byte) *Tree {
	toks := Tokenize(source)
	p := &Parser{toks: toks}
	root := p.parseTranslationUnit()
	return NewTree(root, source, toks)
}

func (p *Parser) atEnd() bool { return p.pos >= len(p.toks) || p.toks[p.pos].Kind == KindEOF }

// peek returns the next non-trivia token without consuming trivia.
func (p *Parser) peek() Token {
	i := p.pos
	for i < len(p.toks) && p.toks[i].Kind.IsTrivia() {
		i++
	}
	if i >= len(p.toks) {
		return Token{Kind: KindEOF}
	}
	return p.toks[i]
}

// peekN looks ahead n significant tokens (0 = next).
func (p *Parser) peekN(n int) Token {
	i := p.pos
	seen := -1
	for i < len(p.toks) {
		if !p.toks[i].Kind.IsTrivia() {
			seen++
			if seen == n {
				return p.toks[i]
			}
		}
		i++
	}
	return Token{Kind: KindEOF}
}

// takeTrivia consumes and wraps any leading trivia tokens as leaves.
func (p *Parser) takeTrivia() []*Node {
	var out []*Node
	for p.pos < len(p.toks) && p.toks[p.pos].Kind.IsTrivia() {
		out = append(out, NewLeaf(p.toks[p.pos]))
		p.pos++
	}
	return out
}

// next consumes and returns the next significant token as a leaf,
// along with any leading trivia leaves.
func (p *Parser) next() []*Node {
	nodes := p.takeTrivia()
	if p.pos < len(p.toks) {
		nodes = append(nodes, NewLeaf(p.toks[p.pos]))
		p.pos++
	}
	return nodes
}

func (p *Parser) parseTranslationUnit() *Node {
	var children []*Node
	for !p.atEnd() {
		before := p.pos
		item := p.parseTopLevelItem()
		if item != nil {
			children = append(children, item)
		}
		if p.pos == before {
			// Safety valve: force progress.
			children = append(children, NewInterior(KindStatement, p.next()))
		}
	}
	children = append(children, p.takeTrivia()...)
	return NewInterior(KindTranslationUnit, children)
}

func (p *Parser) parseTopLevelItem() *Node {
	trivia := p.takeTrivia()
	tok := p.peek()

	var item *Node
	switch {
	case tok.Kind == KindEOF:
		item = nil
	case tok.Kind == KindHash && tok.LineStart:
		item = p.parsePreprocDirective()
	case tok.Kind == KindLAttr:
		item = p.parseAttributeThenItem()
	case tok.Kind == KindTemplate:
		item = p.parseTemplateDef()
	case tok.Kind == KindNamespace:
		item = p.parseNamespaceDef()
	case tok.Kind == KindStruct || tok.Kind == KindClass:
		item = p.parseRecordDef()
	case tok.Kind == KindEnum:
		item = p.parseEnumDef()
	case tok.Kind == KindTypedef:
		item = p.parseTypedefDef()
	case tok.Kind == KindUsing:
		item = p.parseUsingDef()
	default:
		item = p.parseDeclOrFunction()
	}

	if len(trivia) == 0 {
		return item
	}
	if item == nil {
		if len(trivia) == 1 {
			return trivia[0]
		}
		return NewInterior(KindStatement, trivia)
	}
	return NewInterior(item.kind, append(trivia, flattenInterior(item)...))
}

// flattenInterior wraps n as a one-element slice (nil for a nil node).
// parseTopLevelItem uses it to splice leading trivia in front of an
// already-built item, so the item ends up nested as the single
// non-trivia child of a node of its own kind.
func flattenInterior(n *Node) []*Node {
	if n == nil {
		return nil
	}
	return []*Node{n}
}

func (p *Parser) parsePreprocDirective() *Node {
	var children []*Node
	children = append(children, p.next()...) // '#'
	// Include/define/etc. keyword, if present, read as plain identifier text.
	for !p.atEnd() {
		t := p.peek()
		if t.Kind == KindNewline {
			break
		}
		children = append(children, p.next()...)
	}
	return NewInterior(KindPreprocDirective, children)
}

func (p *Parser) parseAttributeThenItem() *Node {
	var attrChildren []*Node
	attrChildren = append(attrChildren, p.next()...) // '[['
	depth := 1
	for !p.atEnd() && depth > 0 {
		t := p.peek()
		if t.Kind == KindLAttr {
			depth++
		} else if t.Kind == KindRAttr {
			depth--
		}
		attrChildren = append(attrChildren, p.next()...)
	}
	attr := NewInterior(KindAttribute, attrChildren)
	inner := p.parseTopLevelItem()
	if inner == nil {
		return attr
	}
	return NewInterior(inner.kind, append([]*Node{attr}, inner.children...))
}

func (p *Parser) parseTemplateDef() *Node {
	var children []*Node
	children = append(children, p.next()...) // 'template'
	children = append(children, p.takeTrivia()...)
	if p.peek().Kind == KindLt {
		children = append(children, p.parseTemplateParamList())
	}
	inner := p.parseTopLevelItem()
	if inner != nil {
		children = append(children, inner)
	}
	return NewInterior(KindTemplateDef, children)
}

func (p *Parser) parseTemplateParamList() *Node {
	var children []*Node
	children = append(children, p.next()...) // '<'
	depth := 1
	var curParam []*Node
	flushParam := func() {
		if len(curParam) > 0 {
			children = append(children, NewInterior(KindTemplateParam, curParam))
			curParam = nil
		}
	}
	for !p.atEnd() && depth > 0 {
		t := p.peek()
		switch t.Kind {
		case KindLt:
			depth++
			curParam = append(curParam, p.next()...)
		case KindGt:
			depth--
			if depth == 0 {
				flushParam()
				children = append(children, p.next()...)
				return NewInterior(KindTemplateParamList, children)
			}
			curParam = append(curParam, p.next()...)
		case KindComma:
			if depth == 1 {
				flushParam()
				children = append(children, p.next()...)
			} else {
				curParam = append(curParam, p.next()...)
			}
		default:
			curParam = append(curParam, p.next()...)
		}
	}
	flushParam()
	return NewInterior(KindTemplateParamList, children)
}

func (p *Parser) parseNamespaceDef() *Node {
	var children []*Node
	children = append(children, p.next()...) // 'namespace'
	children = append(children, p.takeTrivia()...)
	if p.peek().Kind == KindIdent {
		children = append(children, p.next()...)
	}
	children = append(children, p.takeTrivia()...)
	if p.peek().Kind == KindLBrace {
		children = append(children, p.parseBraceBlockOfItems())
	}
	return NewInterior(KindNamespaceDef, children)
}

// parseBraceBlockOfItems parses `{ item* }` where each item is itself a
// top-level-shaped construct (used for namespace bodies).
func (p *Parser) parseBraceBlockOfItems() *Node {
	var children []*Node
	children = append(children, p.next()...) // '{'
	for !p.atEnd() {
		t := p.peek()
		if t.Kind == KindRBrace {
			children = append(children, p.next()...)
			return NewInterior(KindBlock, children)
		}
		before := p.pos
		item := p.parseTopLevelItem()
		if item != nil {
			children = append(children, item)
		}
		if p.pos == before {
			children = append(children, p.next()...)
		}
	}
	return NewInterior(KindBlock, children)
}

func (p *Parser) parseRecordDef() *Node {
	keyword := p.peek().Kind
	kind := KindStructDef
	if keyword == KindClass {
		kind = KindClassDef
	}
	var children []*Node
	children = append(children, p.next()...) // struct/class
	children = append(children, p.takeTrivia()...)
	if p.peek().Kind == KindIdent {
		children = append(children, p.next()...)
	}
	// Base clause / template args: skip to '{' or ';'.
	for !p.atEnd() {
		t := p.peek()
		if t.Kind == KindLBrace || t.Kind == KindSemi {
			break
		}
		children = append(children, p.next()...)
	}
	if p.peek().Kind == KindLBrace {
		children = append(children, p.parseBraceBlockOfItems())
	}
	children = append(children, p.takeTrivia()...)
	if p.peek().Kind == KindSemi {
		children = append(children, p.next()...)
	}
	return NewInterior(kind, children)
}

func (p *Parser) parseEnumDef() *Node {
	var children []*Node
	children = append(children, p.next()...) // 'enum'
	children = append(children, p.takeTrivia()...)
	if p.peek().Kind == KindClass {
		children = append(children, p.next()...)
		children = append(children, p.takeTrivia()...)
	}
	if p.peek().Kind == KindIdent {
		children = append(children, p.next()...)
	}
	for !p.atEnd() {
		t := p.peek()
		if t.Kind == KindLBrace || t.Kind == KindSemi {
			break
		}
		children = append(children, p.next()...)
	}
	if p.peek().Kind == KindLBrace {
		children = append(children, p.next()...) // '{'
		depth := 1
		for !p.atEnd() && depth > 0 {
			t := p.peek()
			if t.Kind == KindLBrace {
				depth++
			} else if t.Kind == KindRBrace {
				depth--
			}
			children = append(children, p.next()...)
		}
	}
	children = append(children, p.takeTrivia()...)
	if p.peek().Kind == KindSemi {
		children = append(children, p.next()...)
	}
	return NewInterior(KindEnumDef, children)
}

func (p *Parser) parseTypedefDef() *Node {
	var children []*Node
	for !p.atEnd() {
		t := p.peek()
		children = append(children, p.next()...)
		if t.Kind == KindSemi {
			break
		}
	}
	return NewInterior(KindTypedefDef, children)
}

func (p *Parser) parseUsingDef() *Node {
	var children []*Node
	for !p.atEnd() {
		t := p.peek()
		children = append(children, p.next()...)
		if t.Kind == KindSemi {
			break
		}
	}
	return NewInterior(KindUsingDef, children)
}

// parseDeclOrFunction handles a type-reference followed by a declarator.
// If the declarator is followed by '(' it is a function (definition or
// prototype); otherwise it's a variable declaration.
func (p *Parser) parseDeclOrFunction() *Node {
	start := p.pos
	var pre []*Node // qualifiers, return type tokens up to the declarator name

	// Consume storage/qualifier keywords and the type-reference run,
	// stopping one token before what looks like the declarator name:
	// the last identifier immediately preceding '(' or a terminator.
	lastIdentIdx := -1
	for !p.atEnd() {
		t := p.peek()
		switch t.Kind {
		case KindSemi, KindLBrace:
			goto doneScan
		case KindLParen:
			goto doneScan
		case KindIdent:
			lastIdentIdx = len(pre)
			pre = append(pre, p.next()...)
			continue
		default:
			pre = append(pre, p.next()...)
			continue
		}
	}
doneScan:
	next := p.peek()
	if next.Kind == KindLParen && lastIdentIdx >= 0 {
		return p.finishFunctionDef(pre)
	}

	// Not a function: consume through the terminating ';' or a brace
	// block (initializer), wrapping as a statement/decl node.
	var children []*Node
	children = append(children, pre...)
	depth := 0
	for !p.atEnd() {
		t := p.peek()
		if t.Kind == KindLBrace {
			depth++
		} else if t.Kind == KindRBrace {
			depth--
		}
		children = append(children, p.next()...)
		if t.Kind == KindSemi && depth <= 0 {
			break
		}
		if p.pos == start {
			break
		}
	}
	if len(children) == 0 {
		// Guarantee forward progress even on an empty/garbage token.
		children = append(children, p.next()...)
	}
	return NewInterior(KindDeclStatement, children)
}

func (p *Parser) finishFunctionDef(pre []*Node) *Node {
	children := append([]*Node{}, pre...)
	children = append(children, p.parseParamList())
	// Trailing qualifiers (const, noexcept-ish trivia) before body/semi.
	for !p.atEnd() {
		t := p.peek()
		if t.Kind == KindLBrace || t.Kind == KindSemi {
			break
		}
		children = append(children, p.next()...)
	}
	if p.peek().Kind == KindLBrace {
		children = append(children, p.parseBlock())
	} else if p.peek().Kind == KindSemi {
		children = append(children, p.next()...)
	}
	return NewInterior(KindFunctionDef, children)
}

func (p *Parser) parseParamList() *Node {
	var children []*Node
	children = append(children, p.next()...) // '('
	var curParam []*Node
	depth := 1
	flush := func() {
		if len(curParam) > 0 {
			children = append(children, NewInterior(KindParam, curParam))
			curParam = nil
		}
	}
	for !p.atEnd() && depth > 0 {
		t := p.peek()
		switch t.Kind {
		case KindLParen:
			depth++
			curParam = append(curParam, p.next()...)
		case KindRParen:
			depth--
			if depth == 0 {
				flush()
				children = append(children, p.next()...)
				return NewInterior(KindParamList, children)
			}
			curParam = append(curParam, p.next()...)
		case KindComma:
			if depth == 1 {
				flush()
				children = append(children, p.next()...)
			} else {
				curParam = append(curParam, p.next()...)
			}
		default:
			curParam = append(curParam, p.next()...)
		}
	}
	flush()
	return NewInterior(KindParamList, children)
}

// parseBlock consumes a balanced `{ ... }` body as a flat run of
// statement-shaped chunks. Full expression-tree fidelity is out of
// scope (the compiler's AST dump is authoritative for semantics); this
// CST only needs to support cursor->token and ancestor queries, which
// hold over any node shape as long as every byte is covered by a leaf.
func (p *Parser) parseBlock() *Node {
	var children []*Node
	children = append(children, p.next()...) // '{'
	depth := 1
	var stmt []*Node
	flush := func() {
		if len(stmt) > 0 {
			children = append(children, NewInterior(KindStatement, stmt))
			stmt = nil
		}
	}
	for !p.atEnd() && depth > 0 {
		t := p.peek()
		switch t.Kind {
		case KindLBrace:
			depth++
			stmt = append(stmt, p.next()...)
		case KindRBrace:
			depth--
			if depth == 0 {
				flush()
				children = append(children, p.next()...)
				return NewInterior(KindBlock, children)
			}
			stmt = append(stmt, p.next()...)
		case KindSemi:
			stmt = append(stmt, p.next()...)
			if depth == 1 {
				flush()
			}
		default:
			stmt = append(stmt, p.next()...)
		}
	}
	flush()
	return NewInterior(KindBlock, children)
}
