package metadata

import (
	"strings"

	"github.com/cadac-labs/cadac/internal/cst"
)

// Extract walks a parsed model file and returns its metadata. The
// returned metadata carries no name; the catalog assigns qualified
// names from file paths.
//
// A model must contain exactly one SELECT statement. Statement count
// is checked before the tree's error flag, so a file with two valid
// statements reports MultipleStatementsError rather than SyntaxError.
func Extract(tree *cst.Tree) (*ModelMetadata, error) {
	root := tree.Root()

	var stmts []*cst.Node
	for _, child := range root.Children() {
		if child.Kind() == cst.KindSelectStatement {
			stmts = append(stmts, child)
		}
	}

	if len(stmts) > 1 {
		return nil, &MultipleStatementsError{Count: len(stmts)}
	}
	if len(stmts) == 0 {
		return nil, &NoStatementError{}
	}
	if tree.HasError() {
		return nil, &SyntaxError{}
	}

	ex := &extractor{
		tree:        tree,
		meta:        &ModelMetadata{},
		seenColumns: make(map[string]bool),
		seenSources: make(map[string]bool),
	}
	ex.meta.Description = extractDescription(tree, root)
	ex.visit(stmts[0])
	return ex.meta, nil
}

// extractDescription joins the leading full-line comments before the
// statement with single spaces.
func extractDescription(tree *cst.Tree, root *cst.Node) string {
	var parts []string
	for _, child := range root.Children() {
		if child.Kind() != cst.KindComment {
			break
		}
		if text := tree.Text(child); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// extractor accumulates columns and sources during the tree walk.
type extractor struct {
	tree        *cst.Tree
	meta        *ModelMetadata
	seenColumns map[string]bool
	seenSources map[string]bool
}

// visit dispatches on node kind. Projection lists and source clauses
// are processed as units and not recursed into; everything else
// recurses unchanged.
func (ex *extractor) visit(n *cst.Node) {
	switch n.Kind() {
	case cst.KindSelectList:
		for _, item := range n.Children() {
			if item.Kind() != cst.KindSelectListItem {
				continue
			}
			ex.extractColumn(item)
			// Scalar subqueries in the projection still contribute
			// sources.
			for _, child := range item.Children() {
				if child.Kind() == cst.KindExpression && child.ChildCount() > 0 {
					ex.visit(child)
				}
			}
		}
	case cst.KindFromClause, cst.KindJoin:
		ex.extractSources(n)
	default:
		for _, child := range n.Children() {
			ex.visit(child)
		}
	}
}

// extractSources picks up every table reference nested under a source
// clause, including those of derived tables.
func (ex *extractor) extractSources(n *cst.Node) {
	if n.Kind() == cst.KindTableReference {
		ex.extractSource(n)
		return
	}
	for _, child := range n.Children() {
		ex.extractSources(child)
	}
}

// extractSource reads the qualified parts of one table reference and
// appends a deduplicated Source.
func (ex *extractor) extractSource(ref *cst.Node) {
	var database, schema, table string
	for _, child := range ref.Children() {
		switch child.Kind() {
		case cst.KindDatabaseName:
			database = ex.tree.Text(child)
		case cst.KindSchemaName:
			schema = ex.tree.Text(child)
		case cst.KindTableName:
			table = ex.tree.Text(child)
		}
	}

	var parts []string
	for _, part := range []string{database, schema, table} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	id := strings.Join(parts, ".")
	name := table

	if id == "" {
		// Grammar variance left the parts empty: fall back to the raw
		// span, stripping any trailing alias.
		raw := ex.tree.Text(ref)
		if idx := strings.Index(raw, " AS "); idx >= 0 {
			raw = raw[:idx]
		} else if idx := strings.IndexByte(raw, ' '); idx >= 0 {
			raw = raw[:idx]
		}
		id = raw
		name = raw
	}
	if id == "" || ex.seenSources[id] {
		return
	}
	ex.seenSources[id] = true
	ex.meta.Sources = append(ex.meta.Sources, Source{
		ID:       id,
		Name:     name,
		Database: database,
		Schema:   schema,
	})
}

// extractColumn reads one projection item: the base name from its
// column reference, an alias override, and adjacent comments as the
// description.
func (ex *extractor) extractColumn(item *cst.Node) {
	var base, alias string
	var comments []string

	for _, child := range item.Children() {
		switch child.Kind() {
		case cst.KindColumnReference:
			// The last identifier part is the column name; earlier
			// parts are table qualifiers.
			for _, part := range child.Children() {
				if part.Kind() == cst.KindReference {
					base = ex.tree.Text(part)
				}
			}
		case cst.KindAlias:
			alias = ex.tree.Text(child)
		case cst.KindComment:
			if text := ex.tree.Text(child); text != "" {
				comments = append(comments, text)
			}
		}
	}

	name := alias
	if name == "" {
		name = base
	}
	if name == "" || ex.seenColumns[name] {
		return
	}
	ex.seenColumns[name] = true
	ex.meta.Columns = append(ex.meta.Columns, Column{
		Name:        name,
		Description: strings.Join(comments, "\n"),
	})
}
