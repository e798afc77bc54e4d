package cst

// parser builds the concrete syntax tree from the token stream. It is
// resilient: unexpected input flips the tree's error flag and the
// parser skips forward rather than bailing out, so the caller always
// gets a tree to inspect.
type parser struct {
	toks []Token
	pos  int
	tree *Tree
}

// Parse builds a syntax tree for the given SQL source text.
func Parse(src string) *Tree {
	t := &Tree{src: src}
	root := &Node{kind: KindSourceFile, start: 0, end: len(src)}
	t.root = root

	p := &parser{toks: Tokenize(src), tree: t}
	p.parseSourceFile(root)
	return t
}

// ---------- Token helpers ----------

func (p *parser) cur() Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF is always last
	}
	return p.toks[p.pos]
}

func (p *parser) next() {
	if p.cur().Type == TOKEN_ILLEGAL {
		p.tree.hasError = true
	}
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
}

func (p *parser) at(types ...TokenType) bool {
	cur := p.cur().Type
	for _, t := range types {
		if cur == t {
			return true
		}
	}
	return false
}

func (p *parser) markError() {
	p.tree.hasError = true
}

// leaf creates a leaf node from a token, carrying its processed literal.
func leaf(kind Kind, tok Token) *Node {
	return &Node{kind: kind, start: tok.Pos.Offset, end: tok.End, lit: tok.Literal}
}

// open creates an empty interior node anchored at the current token.
func (p *parser) open(kind Kind) *Node {
	tok := p.cur()
	return &Node{kind: kind, start: tok.Pos.Offset, end: tok.Pos.Offset}
}

// commentNode consumes the current comment token into a node.
func (p *parser) commentNode() *Node {
	n := leaf(KindComment, p.cur())
	p.next()
	return n
}

// ---------- Source file ----------

func (p *parser) parseSourceFile(root *Node) {
	for {
		for p.at(TOKEN_COMMENT) {
			root.add(p.commentNode())
		}
		switch {
		case p.at(TOKEN_EOF):
			return
		case p.at(TOKEN_SEMICOLON):
			p.next()
		case p.at(TOKEN_SELECT, TOKEN_WITH):
			root.add(p.parseSelectStatement())
		default:
			// Not a statement we recognize. Flag and resync at the
			// next statement boundary.
			p.markError()
			for !p.at(TOKEN_SEMICOLON, TOKEN_EOF) {
				p.next()
			}
		}
	}
}

// ---------- Statements ----------

// parseSelectStatement parses one SELECT statement, including an
// optional WITH prelude and UNION arms. It stops at a semicolon, EOF,
// or an unbalanced closing paren (for nested statements).
func (p *parser) parseSelectStatement() *Node {
	stmt := p.open(KindSelectStatement)

	if p.at(TOKEN_WITH) {
		stmt.add(p.parseWithClause())
	}

	for {
		p.parseSelectCore(stmt)

		if tail := p.consumeTail(); tail != nil {
			stmt.add(tail)
		}

		// UNION / INTERSECT / EXCEPT chain more select cores onto the
		// same statement node.
		if p.at(TOKEN_UNION, TOKEN_INTERSECT, TOKEN_EXCEPT) {
			p.next()
			if p.at(TOKEN_ALL, TOKEN_DISTINCT) {
				p.next()
			}
			continue
		}
		return stmt
	}
}

// parseSelectCore parses SELECT ... [FROM ...] into the statement node.
func (p *parser) parseSelectCore(stmt *Node) {
	if p.at(TOKEN_SELECT) {
		p.next()
	} else {
		p.markError()
	}
	if p.at(TOKEN_DISTINCT, TOKEN_ALL) {
		p.next()
	}

	stmt.add(p.parseSelectList())

	if p.at(TOKEN_FROM) {
		p.next()
		stmt.add(p.parseFromClause())
	}
}

// parseWithClause parses WITH [RECURSIVE] name AS (stmt) [, ...].
func (p *parser) parseWithClause() *Node {
	wc := p.open(KindWithClause)
	p.next() // WITH
	if p.at(TOKEN_RECURSIVE) {
		p.next()
	}

	for {
		for p.at(TOKEN_COMMENT) {
			wc.add(p.commentNode())
		}
		if !p.at(TOKEN_IDENT) {
			p.markError()
			return wc
		}
		wc.add(leaf(KindReference, p.cur()))
		p.next()

		// Optional CTE column list.
		if p.at(TOKEN_LPAREN) {
			wc.add(p.consumeBalanced())
		}

		if p.at(TOKEN_AS) {
			p.next()
		} else {
			p.markError()
		}

		if p.at(TOKEN_LPAREN) {
			p.next()
			if p.at(TOKEN_SELECT, TOKEN_WITH) {
				wc.add(p.parseSelectStatement())
			} else {
				p.markError()
				p.skipUntilCloser()
			}
			if p.at(TOKEN_RPAREN) {
				wc.end = p.cur().End
				p.next()
			} else {
				p.markError()
			}
		} else {
			p.markError()
		}

		if p.at(TOKEN_COMMA) {
			p.next()
			continue
		}
		return wc
	}
}

// ---------- Projection list ----------

func (p *parser) parseSelectList() *Node {
	list := p.open(KindSelectList)
	var pending []*Node

	for {
		switch {
		case p.at(TOKEN_COMMENT):
			pending = append(pending, p.commentNode())
		case p.at(TOKEN_FROM, TOKEN_SEMICOLON, TOKEN_EOF, TOKEN_RPAREN,
			TOKEN_UNION, TOKEN_INTERSECT, TOKEN_EXCEPT,
			TOKEN_WHERE, TOKEN_GROUP, TOKEN_HAVING, TOKEN_ORDER, TOKEN_LIMIT, TOKEN_OFFSET):
			// Stray trailing comments belong to the list itself.
			for _, c := range pending {
				list.add(c)
			}
			return list
		default:
			item := p.parseSelectListItem(pending)
			pending = nil
			list.add(item)
			if p.at(TOKEN_COMMA) {
				p.next()
			}
		}
	}
}

// parseSelectListItem parses one projected expression. Comments that
// preceded the item are attached to it as children, as are comments
// found while scanning it.
func (p *parser) parseSelectListItem(pending []*Node) *Node {
	item := p.open(KindSelectListItem)
	for _, c := range pending {
		item.add(c)
	}

	haveColRef := false
	prevPrimary := false

	for {
		switch p.cur().Type {
		case TOKEN_COMMENT:
			item.add(p.commentNode())

		case TOKEN_COMMA, TOKEN_FROM, TOKEN_SEMICOLON, TOKEN_EOF, TOKEN_RPAREN,
			TOKEN_UNION, TOKEN_INTERSECT, TOKEN_EXCEPT,
			TOKEN_WHERE, TOKEN_GROUP, TOKEN_HAVING, TOKEN_ORDER, TOKEN_LIMIT, TOKEN_OFFSET:
			if item.ChildCount() == 0 && item.start == item.end {
				// Empty item (e.g. "SELECT FROM t"): malformed.
				p.markError()
			}
			return item

		case TOKEN_IDENT:
			start := p.cur()
			parts, starQualified := p.readChain()
			switch {
			case p.at(TOKEN_LPAREN):
				// Function call; arguments are opaque.
				expr := p.consumeBalanced()
				expr.start = start.Pos.Offset
				item.add(expr)
				prevPrimary = true
			case starQualified:
				// t.* projects no nameable column.
				prevPrimary = true
			case prevPrimary:
				// Bare alias directly after a complete expression.
				item.add(leaf(KindAlias, parts[len(parts)-1]))
			case !haveColRef:
				colRef := &Node{kind: KindColumnReference, start: start.Pos.Offset, end: start.Pos.Offset}
				for _, part := range parts {
					colRef.add(leaf(KindReference, part))
				}
				item.add(colRef)
				haveColRef = true
				prevPrimary = true
			default:
				// Further identifiers inside a compound expression.
				prevPrimary = true
			}

		case TOKEN_AS:
			p.next()
			if p.at(TOKEN_IDENT) {
				item.add(leaf(KindAlias, p.cur()))
				p.next()
				prevPrimary = true
			} else {
				p.markError()
			}

		case TOKEN_STAR:
			// Projection star when nothing precedes it, multiplication
			// otherwise.
			prevPrimary = !prevPrimary
			p.next()

		case TOKEN_NUMBER, TOKEN_STRING, TOKEN_TRUE, TOKEN_FALSE, TOKEN_NULL, TOKEN_END:
			prevPrimary = true
			p.next()

		case TOKEN_LPAREN:
			item.add(p.consumeBalanced())
			prevPrimary = true

		case TOKEN_CASE:
			item.add(p.consumeCase())
			prevPrimary = true

		default:
			prevPrimary = false
			p.next()
		}
	}
}

// readChain consumes IDENT (DOT IDENT)* and returns the identifier
// tokens in order. A trailing ".*" sets starQualified.
func (p *parser) readChain() (parts []Token, starQualified bool) {
	parts = append(parts, p.cur())
	p.next()
	for p.at(TOKEN_DOT) {
		p.next()
		if p.at(TOKEN_IDENT) {
			parts = append(parts, p.cur())
			p.next()
		} else if p.at(TOKEN_STAR) {
			p.next()
			return parts, true
		} else {
			p.markError()
			return parts, false
		}
	}
	return parts, false
}

// ---------- FROM clause ----------

func (p *parser) parseFromClause() *Node {
	fc := p.open(KindFromClause)
	p.parseTableExpr(fc)

	for {
		for p.at(TOKEN_COMMENT) {
			fc.add(p.commentNode())
		}
		switch {
		case p.at(TOKEN_COMMA):
			p.next()
			p.parseTableExpr(fc)
		case p.atJoinStart():
			fc.add(p.parseJoin())
		default:
			return fc
		}
	}
}

func (p *parser) atJoinStart() bool {
	return p.at(TOKEN_JOIN, TOKEN_INNER, TOKEN_LEFT, TOKEN_RIGHT, TOKEN_FULL, TOKEN_CROSS, TOKEN_NATURAL)
}

func (p *parser) parseJoin() *Node {
	j := p.open(KindJoin)
	for p.at(TOKEN_JOIN, TOKEN_INNER, TOKEN_LEFT, TOKEN_RIGHT, TOKEN_FULL, TOKEN_CROSS, TOKEN_NATURAL, TOKEN_OUTER, TOKEN_LATERAL) {
		j.end = p.cur().End
		p.next()
	}

	p.parseTableExpr(j)

	if p.at(TOKEN_ON) {
		p.next()
		if cond := p.consumeJoinCondition(); cond != nil {
			j.add(cond)
		}
	} else if p.at(TOKEN_USING) {
		p.next()
		if p.at(TOKEN_LPAREN) {
			j.add(p.consumeBalanced())
		} else {
			p.markError()
		}
	}
	return j
}

// parseTableExpr parses one table expression (table reference, derived
// table, or table function) with an optional alias into parent.
func (p *parser) parseTableExpr(parent *Node) {
	for p.at(TOKEN_COMMENT) {
		parent.add(p.commentNode())
	}

	if p.at(TOKEN_LATERAL) {
		p.next()
	}

	switch {
	case p.at(TOKEN_LPAREN):
		obj := p.open(KindObjectReference)
		p.next()
		if p.at(TOKEN_SELECT, TOKEN_WITH) {
			obj.add(p.parseSelectStatement())
		} else {
			p.markError()
			p.skipUntilCloser()
		}
		if p.at(TOKEN_RPAREN) {
			obj.end = p.cur().End
			p.next()
		} else {
			p.markError()
		}
		p.parseAlias(obj)
		parent.add(obj)

	case p.at(TOKEN_IDENT):
		start := p.cur()
		parts, _ := p.readChain()
		if p.at(TOKEN_LPAREN) {
			// Table function: opaque, contributes no source.
			expr := p.consumeBalanced()
			expr.start = start.Pos.Offset
			obj := p.open(KindObjectReference)
			obj.add(expr)
			p.parseAlias(obj)
			parent.add(obj)
			return
		}

		obj := &Node{kind: KindObjectReference, start: start.Pos.Offset, end: start.Pos.Offset}
		tref := &Node{kind: KindTableReference, start: start.Pos.Offset, end: start.Pos.Offset}

		// Map identifier parts onto database/schema/table positions.
		if len(parts) > 3 {
			p.markError()
			parts = parts[len(parts)-3:]
		}
		kinds := []Kind{KindTableName}
		if len(parts) == 2 {
			kinds = []Kind{KindSchemaName, KindTableName}
		} else if len(parts) == 3 {
			kinds = []Kind{KindDatabaseName, KindSchemaName, KindTableName}
		}
		for i, part := range parts {
			tref.add(leaf(kinds[i], part))
		}

		obj.add(tref)
		p.parseAlias(obj)
		parent.add(obj)

	default:
		p.markError()
		if !p.at(TOKEN_EOF) {
			p.next()
		}
	}
}

// parseAlias consumes an optional AS alias or bare alias into parent.
func (p *parser) parseAlias(parent *Node) {
	if p.at(TOKEN_AS) {
		p.next()
		if p.at(TOKEN_IDENT) {
			parent.add(leaf(KindAlias, p.cur()))
			p.next()
		} else {
			p.markError()
		}
		return
	}
	if p.at(TOKEN_IDENT) {
		parent.add(leaf(KindAlias, p.cur()))
		p.next()
	}
}

// ---------- Opaque runs ----------

// consumeBalanced consumes a parenthesized token run, returning an
// expression node covering it. The current token must be LPAREN.
// Subqueries inside the run are parsed as nested statement children so
// their table references stay visible.
func (p *parser) consumeBalanced() *Node {
	expr := p.open(KindExpression)
	depth := 0
	for {
		switch p.cur().Type {
		case TOKEN_SELECT, TOKEN_WITH:
			if depth > 0 {
				expr.add(p.parseSelectStatement())
				continue
			}
		case TOKEN_LPAREN:
			depth++
		case TOKEN_RPAREN:
			depth--
			if depth == 0 {
				expr.end = p.cur().End
				p.next()
				return expr
			}
		case TOKEN_EOF:
			p.markError()
			return expr
		}
		expr.end = p.cur().End
		p.next()
	}
}

// consumeCase consumes CASE ... END, handling nesting. Subqueries in
// the arms are parsed as nested statement children.
func (p *parser) consumeCase() *Node {
	expr := p.open(KindExpression)
	depth := 0
	for {
		switch p.cur().Type {
		case TOKEN_SELECT, TOKEN_WITH:
			if depth > 0 {
				expr.add(p.parseSelectStatement())
				continue
			}
		case TOKEN_CASE:
			depth++
		case TOKEN_END:
			depth--
			if depth == 0 {
				expr.end = p.cur().End
				p.next()
				return expr
			}
		case TOKEN_EOF:
			p.markError()
			return expr
		}
		expr.end = p.cur().End
		p.next()
	}
}

// consumeJoinCondition consumes an ON condition up to the next join,
// clause keyword, top-level comma, or statement boundary. Returns nil
// if the condition is empty.
func (p *parser) consumeJoinCondition() *Node {
	expr := p.open(KindExpression)
	depth := 0
	for {
		switch p.cur().Type {
		case TOKEN_SELECT, TOKEN_WITH:
			if depth > 0 {
				expr.add(p.parseSelectStatement())
				continue
			}
		case TOKEN_LPAREN:
			depth++
		case TOKEN_RPAREN:
			if depth == 0 {
				return p.finishOpaque(expr)
			}
			depth--
		case TOKEN_COMMA:
			if depth == 0 {
				return p.finishOpaque(expr)
			}
		case TOKEN_SEMICOLON, TOKEN_EOF,
			TOKEN_WHERE, TOKEN_GROUP, TOKEN_HAVING, TOKEN_ORDER, TOKEN_LIMIT, TOKEN_OFFSET,
			TOKEN_QUALIFY, TOKEN_WINDOW,
			TOKEN_UNION, TOKEN_INTERSECT, TOKEN_EXCEPT:
			return p.finishOpaque(expr)
		case TOKEN_JOIN, TOKEN_INNER, TOKEN_LEFT, TOKEN_RIGHT, TOKEN_FULL, TOKEN_CROSS, TOKEN_NATURAL:
			if depth == 0 {
				return p.finishOpaque(expr)
			}
		}
		expr.end = p.cur().End
		p.next()
	}
}

// consumeTail consumes trailing statement clauses (WHERE, GROUP BY,
// ORDER BY, ...) up to a statement or subquery boundary, parsing any
// parenthesized subqueries as nested statement children. Returns nil
// if there is nothing to consume.
func (p *parser) consumeTail() *Node {
	if p.at(TOKEN_SEMICOLON, TOKEN_EOF, TOKEN_UNION, TOKEN_INTERSECT, TOKEN_EXCEPT, TOKEN_RPAREN) {
		return nil
	}
	expr := p.open(KindExpression)
	depth := 0
	for {
		switch p.cur().Type {
		case TOKEN_SELECT, TOKEN_WITH:
			if depth > 0 {
				expr.add(p.parseSelectStatement())
				continue
			}
		case TOKEN_LPAREN:
			depth++
		case TOKEN_RPAREN:
			if depth == 0 {
				return p.finishOpaque(expr)
			}
			depth--
		case TOKEN_SEMICOLON, TOKEN_EOF:
			return p.finishOpaque(expr)
		case TOKEN_UNION, TOKEN_INTERSECT, TOKEN_EXCEPT:
			if depth == 0 {
				return p.finishOpaque(expr)
			}
		}
		expr.end = p.cur().End
		p.next()
	}
}

// finishOpaque returns the expression node, or nil if it covered
// nothing.
func (p *parser) finishOpaque(expr *Node) *Node {
	if expr.end <= expr.start {
		return nil
	}
	return expr
}

// skipUntilCloser skips tokens until the enclosing RPAREN or a
// statement boundary, for error recovery inside parens.
func (p *parser) skipUntilCloser() {
	depth := 0
	for {
		switch p.cur().Type {
		case TOKEN_LPAREN:
			depth++
		case TOKEN_RPAREN:
			if depth == 0 {
				return
			}
			depth--
		case TOKEN_SEMICOLON, TOKEN_EOF:
			return
		}
		p.next()
	}
}
