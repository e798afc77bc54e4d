package cst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect returns every node of the given kind in depth-first order.
func collect(n *Node, kind Kind) []*Node {
	var out []*Node
	if n.Kind() == kind {
		out = append(out, n)
	}
	for _, c := range n.Children() {
		out = append(out, collect(c, kind)...)
	}
	return out
}

func TestParseSimpleSelect(t *testing.T) {
	tree := Parse("SELECT id, name FROM users")
	require.False(t, tree.HasError())

	stmts := collect(tree.Root(), KindSelectStatement)
	require.Len(t, stmts, 1)

	items := collect(tree.Root(), KindSelectListItem)
	require.Len(t, items, 2)

	refs := collect(tree.Root(), KindTableReference)
	require.Len(t, refs, 1)

	names := collect(refs[0], KindTableName)
	require.Len(t, names, 1)
	assert.Equal(t, "users", tree.Text(names[0]))
}

func TestParseQualifiedTableReference(t *testing.T) {
	tree := Parse("SELECT * FROM analytics.public.orders")
	require.False(t, tree.HasError())

	refs := collect(tree.Root(), KindTableReference)
	require.Len(t, refs, 1)

	db := collect(refs[0], KindDatabaseName)
	schema := collect(refs[0], KindSchemaName)
	table := collect(refs[0], KindTableName)
	require.Len(t, db, 1)
	require.Len(t, schema, 1)
	require.Len(t, table, 1)
	assert.Equal(t, "analytics", tree.Text(db[0]))
	assert.Equal(t, "public", tree.Text(schema[0]))
	assert.Equal(t, "orders", tree.Text(table[0]))
}

func TestParseLeadingComments(t *testing.T) {
	sql := "-- Daily revenue rollup.\n-- One row per day.\nSELECT 1"
	tree := Parse(sql)
	require.False(t, tree.HasError())

	root := tree.Root()
	require.GreaterOrEqual(t, root.ChildCount(), 3)
	assert.Equal(t, KindComment, root.Child(0).Kind())
	assert.Equal(t, KindComment, root.Child(1).Kind())
	assert.Equal(t, "Daily revenue rollup.", tree.Text(root.Child(0)))
	assert.Equal(t, "One row per day.", tree.Text(root.Child(1)))
}

func TestParseColumnAliases(t *testing.T) {
	sql := "SELECT o.amount AS revenue, u.name customer FROM orders o JOIN users u ON o.user_id = u.id"
	tree := Parse(sql)
	require.False(t, tree.HasError())

	items := collect(tree.Root(), KindSelectListItem)
	require.Len(t, items, 2)

	aliases := collect(items[0], KindAlias)
	require.Len(t, aliases, 1)
	assert.Equal(t, "revenue", tree.Text(aliases[0]))

	aliases = collect(items[1], KindAlias)
	require.Len(t, aliases, 1)
	assert.Equal(t, "customer", tree.Text(aliases[0]))

	// The column reference keeps its qualifier parts.
	refs := collect(items[0], KindReference)
	require.Len(t, refs, 2)
	assert.Equal(t, "o", tree.Text(refs[0]))
	assert.Equal(t, "amount", tree.Text(refs[1]))
}

func TestParseJoinTableReferences(t *testing.T) {
	sql := `SELECT *
FROM orders o
LEFT JOIN users u ON o.user_id = u.id
CROSS JOIN regions`
	tree := Parse(sql)
	require.False(t, tree.HasError())

	joins := collect(tree.Root(), KindJoin)
	require.Len(t, joins, 2)

	var tables []string
	for _, ref := range collect(tree.Root(), KindTableReference) {
		names := collect(ref, KindTableName)
		require.Len(t, names, 1)
		tables = append(tables, tree.Text(names[0]))
	}
	assert.Equal(t, []string{"orders", "users", "regions"}, tables)
}

func TestParseJoinConditionIsOpaque(t *testing.T) {
	// Column references in ON conditions must not surface as table
	// references.
	sql := "SELECT * FROM a JOIN b ON a.x = b.y AND a.z > 1"
	tree := Parse(sql)
	require.False(t, tree.HasError())

	refs := collect(tree.Root(), KindTableReference)
	require.Len(t, refs, 2)
}

func TestParseDerivedTable(t *testing.T) {
	sql := "SELECT * FROM (SELECT id FROM raw.events) e"
	tree := Parse(sql)
	require.False(t, tree.HasError())

	refs := collect(tree.Root(), KindTableReference)
	require.Len(t, refs, 1)
	names := collect(refs[0], KindTableName)
	require.Len(t, names, 1)
	assert.Equal(t, "events", tree.Text(names[0]))
}

func TestParseWithClause(t *testing.T) {
	sql := `WITH active AS (
    SELECT id FROM users WHERE active = true
)
SELECT * FROM active JOIN orders ON active.id = orders.user_id`
	tree := Parse(sql)
	require.False(t, tree.HasError())

	withs := collect(tree.Root(), KindWithClause)
	require.Len(t, withs, 1)

	var tables []string
	for _, ref := range collect(tree.Root(), KindTableReference) {
		names := collect(ref, KindTableName)
		tables = append(tables, tree.Text(names[0]))
	}
	assert.Contains(t, tables, "users")
	assert.Contains(t, tables, "active")
	assert.Contains(t, tables, "orders")
}

func TestParseUnionBranches(t *testing.T) {
	sql := "SELECT id FROM a UNION ALL SELECT id FROM b"
	tree := Parse(sql)
	require.False(t, tree.HasError())

	stmts := collect(tree.Root(), KindSelectStatement)
	require.Len(t, stmts, 1)

	refs := collect(tree.Root(), KindTableReference)
	require.Len(t, refs, 2)
}

func TestParseMultipleStatements(t *testing.T) {
	tree := Parse("SELECT 1; SELECT 2;")
	require.False(t, tree.HasError())

	stmts := collect(tree.Root(), KindSelectStatement)
	assert.Len(t, stmts, 2)
}

func TestParseQuotedIdentifiers(t *testing.T) {
	tree := Parse(`SELECT "user id" FROM "my schema"."my table"`)
	require.False(t, tree.HasError())

	refs := collect(tree.Root(), KindTableReference)
	require.Len(t, refs, 1)
	schema := collect(refs[0], KindSchemaName)
	table := collect(refs[0], KindTableName)
	require.Len(t, schema, 1)
	require.Len(t, table, 1)
	assert.Equal(t, "my schema", tree.Text(schema[0]))
	assert.Equal(t, "my table", tree.Text(table[0]))
}

func TestParseFunctionCallsAreOpaque(t *testing.T) {
	sql := "SELECT count(*), sum(amount) AS total FROM orders"
	tree := Parse(sql)
	require.False(t, tree.HasError())

	items := collect(tree.Root(), KindSelectListItem)
	require.Len(t, items, 2)

	// Function calls carry no column reference.
	assert.Empty(t, collect(items[0], KindColumnReference))
	assert.Empty(t, collect(items[1], KindColumnReference))

	aliases := collect(items[1], KindAlias)
	require.Len(t, aliases, 1)
	assert.Equal(t, "total", tree.Text(aliases[0]))
}

func TestParseColumnComments(t *testing.T) {
	sql := `SELECT
    -- Unique customer key.
    id,
    name
FROM users`
	tree := Parse(sql)
	require.False(t, tree.HasError())

	items := collect(tree.Root(), KindSelectListItem)
	require.Len(t, items, 2)

	comments := collect(items[0], KindComment)
	require.Len(t, comments, 1)
	assert.Equal(t, "Unique customer key.", tree.Text(comments[0]))
}

func TestParseNonSelectSetsError(t *testing.T) {
	tree := Parse("INSERT INTO t VALUES (1)")
	assert.True(t, tree.HasError())
}

func TestParseUnbalancedParens(t *testing.T) {
	tree := Parse("SELECT * FROM (SELECT id FROM a")
	assert.True(t, tree.HasError())
}

func TestParseEmptyInput(t *testing.T) {
	tree := Parse("")
	require.False(t, tree.HasError())
	assert.Equal(t, 0, tree.Root().ChildCount())
}

func TestNodeSpansCoverSource(t *testing.T) {
	sql := "SELECT id FROM users"
	tree := Parse(sql)

	stmts := collect(tree.Root(), KindSelectStatement)
	require.Len(t, stmts, 1)
	start, end := stmts[0].Span()
	assert.Equal(t, 0, start)
	assert.Equal(t, len(sql), end)
}

func TestParseSubqueryInWhere(t *testing.T) {
	tree := Parse("SELECT a FROM t WHERE x IN (SELECT y FROM z)")
	require.False(t, tree.HasError())

	stmts := collect(tree.Root(), KindSelectStatement)
	require.Len(t, stmts, 2)

	refs := collect(tree.Root(), KindTableReference)
	require.Len(t, refs, 2)
	assert.Equal(t, "t", tree.Text(refs[0]))
	assert.Equal(t, "z", tree.Text(refs[1]))
}

func TestParseScalarSubqueryInProjection(t *testing.T) {
	tree := Parse("SELECT (SELECT max(v) FROM z) AS m FROM t")
	require.False(t, tree.HasError())

	stmts := collect(tree.Root(), KindSelectStatement)
	require.Len(t, stmts, 2)

	var names []string
	for _, ref := range collect(tree.Root(), KindTableReference) {
		names = append(names, tree.Text(ref))
	}
	assert.ElementsMatch(t, []string{"t", "z"}, names)

	items := collect(stmts[0].Child(0), KindSelectListItem)
	require.NotEmpty(t, items)
	aliases := collect(items[0], KindAlias)
	require.Len(t, aliases, 1)
	assert.Equal(t, "m", tree.Text(aliases[0]))
}

func TestParseSubqueryInJoinCondition(t *testing.T) {
	tree := Parse("SELECT a FROM t JOIN u ON u.id IN (SELECT id FROM w)")
	require.False(t, tree.HasError())

	var names []string
	for _, ref := range collect(tree.Root(), KindTableReference) {
		names = append(names, tree.Text(ref))
	}
	assert.ElementsMatch(t, []string{"t", "u", "w"}, names)
}

func TestParseSubqueryInCaseArm(t *testing.T) {
	tree := Parse("SELECT CASE WHEN x IN (SELECT id FROM w) THEN 1 ELSE 0 END AS flag FROM t")
	require.False(t, tree.HasError())

	var names []string
	for _, ref := range collect(tree.Root(), KindTableReference) {
		names = append(names, tree.Text(ref))
	}
	assert.ElementsMatch(t, []string{"t", "w"}, names)
}
