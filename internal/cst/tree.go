// Package cst builds a concrete syntax tree for a SQL model file.
//
// The tree is intentionally lossy about expressions: opaque expression
// runs are kept as single nodes with their byte spans, while the parts
// the rest of the system cares about (statements, comments, projection
// lists, table references) get their own kind-tagged nodes. Consumers
// dispatch on Node.Kind and never see tokens.
//
// Parsing never returns an error; malformed input sets the tree's error
// flag and produces the best tree the parser could recover.
package cst

// Kind tags a node in the syntax tree. The set is closed: consumers
// are expected to switch over it exhaustively.
type Kind int

const (
	// KindSourceFile is the root node of every tree.
	KindSourceFile Kind = iota
	// KindComment is a line or block comment. Text() returns the
	// comment body without markers.
	KindComment
	// KindSelectStatement is one top-level SELECT (or WITH ... SELECT).
	KindSelectStatement
	// KindWithClause wraps the CTE definitions of a WITH statement.
	KindWithClause
	// KindSelectList is the projection list of a SELECT.
	KindSelectList
	// KindSelectListItem is one projected expression.
	KindSelectListItem
	// KindColumnReference is a (possibly qualified) column reference
	// inside a projection item; its parts are KindReference children.
	KindColumnReference
	// KindReference is one identifier part of a column reference.
	KindReference
	// KindAlias is an AS alias (or bare alias) on a column or table.
	KindAlias
	// KindFromClause is the FROM clause of a SELECT.
	KindFromClause
	// KindObjectReference wraps one table expression in FROM or JOIN.
	KindObjectReference
	// KindTableReference is a (possibly qualified) table name; its
	// parts are KindDatabaseName/KindSchemaName/KindTableName children.
	KindTableReference
	// KindDatabaseName is the database part of a qualified table name.
	KindDatabaseName
	// KindSchemaName is the schema part of a qualified table name.
	KindSchemaName
	// KindTableName is the table part of a table name.
	KindTableName
	// KindJoin is one JOIN arm, containing the joined object reference
	// and an opaque ON/USING expression.
	KindJoin
	// KindExpression is an opaque run of tokens the parser does not
	// model (WHERE/GROUP BY tails, ON conditions, function calls).
	KindExpression
)

var kindNames = map[Kind]string{
	KindSourceFile:      "source_file",
	KindComment:         "comment",
	KindSelectStatement: "select_statement",
	KindWithClause:      "with_clause",
	KindSelectList:      "select_list",
	KindSelectListItem:  "select_list_item",
	KindColumnReference: "column_reference",
	KindReference:       "reference",
	KindAlias:           "alias",
	KindFromClause:      "from_clause",
	KindObjectReference: "object_reference",
	KindTableReference:  "table_reference",
	KindDatabaseName:    "database_name",
	KindSchemaName:      "schema_name",
	KindTableName:       "table_name",
	KindJoin:            "join",
	KindExpression:      "expression",
}

// String returns the tree-sitter style snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Node is a node in the concrete syntax tree.
type Node struct {
	kind     Kind
	start    int // byte offset of the first covered character
	end      int // byte offset just past the last covered character
	lit      string
	parent   *Node
	children []*Node
}

// Kind returns the node's kind tag.
func (n *Node) Kind() Kind { return n.kind }

// Span returns the node's byte range in the source text.
func (n *Node) Span() (start, end int) { return n.start, n.end }

// Parent returns the node's parent, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's children in source order.
func (n *Node) Children() []*Node { return n.children }

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns the i-th child, or nil if out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// NextSibling returns the node following this one under the same
// parent, or nil.
func (n *Node) NextSibling() *Node {
	if n.parent == nil {
		return nil
	}
	for i, c := range n.parent.children {
		if c == n && i+1 < len(n.parent.children) {
			return n.parent.children[i+1]
		}
	}
	return nil
}

// add appends a child and fixes up the parent link and span bounds.
func (n *Node) add(child *Node) {
	child.parent = n
	n.children = append(n.children, child)
	if child.start < n.start {
		n.start = child.start
	}
	if child.end > n.end {
		n.end = child.end
	}
}

// Tree is the result of parsing one SQL source text.
type Tree struct {
	src      string
	root     *Node
	hasError bool
}

// Root returns the root source_file node.
func (t *Tree) Root() *Node { return t.root }

// HasError reports whether the parser hit anything it could not make
// sense of. The tree is still usable; consumers decide how strict to be.
func (t *Tree) HasError() bool { return t.hasError }

// Text returns the source text covered by the node. Leaf nodes carry
// processed literals (comments without markers, identifiers without
// quotes); those are returned as-is.
func (t *Tree) Text(n *Node) string {
	if n.lit != "" {
		return n.lit
	}
	if n.start < 0 || n.end > len(t.src) || n.start >= n.end {
		return ""
	}
	return t.src[n.start:n.end]
}
