package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadac-labs/cadac/internal/metadata"
)

// writeModel creates a model file under root, creating directories as
// needed.
func writeModel(t *testing.T, root, rel, sql string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(sql), 0o644))
}

func TestIdentityFromPath(t *testing.T) {
	root := t.TempDir()

	identity, err := IdentityFromPath(root, filepath.Join(root, "bronze", "users.sql"))
	require.NoError(t, err)
	assert.Equal(t, "bronze", identity.SchemaName)
	assert.Equal(t, "users", identity.TableName)
	assert.Equal(t, "bronze.users", identity.QualifiedName)
}

func TestIdentityFromPath_DeepNesting(t *testing.T) {
	root := t.TempDir()

	// Only the first segment and the file stem matter.
	identity, err := IdentityFromPath(root, filepath.Join(root, "test", "users", "deeper", "user_model.sql"))
	require.NoError(t, err)
	assert.Equal(t, "test", identity.SchemaName)
	assert.Equal(t, "user_model", identity.TableName)
	assert.Equal(t, "test.user_model", identity.QualifiedName)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "bronze/users.sql", "SELECT id, email FROM raw_users")
	writeModel(t, root, "silver/customers.sql", "SELECT id FROM bronze.users")

	c := New(Config{})
	require.NoError(t, c.Discover(root))

	assert.Equal(t, 2, c.Count())

	meta, ok := c.Model("bronze.users")
	require.True(t, ok)
	require.Len(t, meta.Columns, 2)
	assert.Equal(t, "bronze.users", meta.Name)

	sql, ok := c.SQL("silver.customers")
	require.True(t, ok)
	assert.Contains(t, sql, "bronze.users")
}

func TestDiscover_MissingRoot(t *testing.T) {
	c := New(Config{})
	err := c.Discover(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestDiscover_BadModelAbortsAll(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "bronze/users.sql", "SELECT id FROM raw_users")
	writeModel(t, root, "bronze/broken.sql", "SELECT 1; SELECT 2;")

	c := New(Config{})
	err := c.Discover(root)

	require.Error(t, err)
	var multiErr *metadata.MultipleStatementsError
	assert.ErrorAs(t, err, &multiErr)
	assert.Contains(t, err.Error(), "bronze.broken")
}

func TestDiscover_IgnoresNonSQLFiles(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "bronze/users.sql", "SELECT id FROM raw_users")
	writeModel(t, root, "bronze/readme.md", "not a model")

	c := New(Config{})
	require.NoError(t, c.Discover(root))
	assert.Equal(t, 1, c.Count())
}

func TestDiscover_DuplicateQualifiedNameLastWins(t *testing.T) {
	root := t.TempDir()
	// Same schema and stem at different depths collide.
	writeModel(t, root, "bronze/users.sql", "SELECT id FROM first_source")
	writeModel(t, root, "bronze/nested/users.sql", "SELECT id FROM second_source")

	c := New(Config{})
	require.NoError(t, c.Discover(root))

	assert.Equal(t, 1, c.Count())
	meta, ok := c.Model("bronze.users")
	require.True(t, ok)
	require.Len(t, meta.Sources, 1)
	assert.Equal(t, "second_source", meta.Sources[0].ID)
}

func TestBuildGraph(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "bronze/users.sql", "SELECT id FROM raw_users")
	writeModel(t, root, "gold/orders.sql", "SELECT u.id FROM bronze.users u")
	writeModel(t, root, "silver/customers.sql", "SELECT id FROM bronze.users")

	c := New(Config{})
	require.NoError(t, c.Discover(root))

	g := c.BuildGraph()
	assert.Equal(t, 3, g.ModelCount())
	assert.Equal(t, 2, g.DependencyCount())
	assert.ElementsMatch(t, []string{"gold.orders", "silver.customers"}, g.Dependents("bronze.users"))
	assert.Equal(t, []string{"bronze.users"}, g.Dependencies("gold.orders"))
}

func TestBuildGraph_ExternalSourcesExcluded(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "bronze/users.sql", "SELECT id FROM warehouse.raw_users")

	c := New(Config{})
	require.NoError(t, c.Discover(root))

	g := c.BuildGraph()
	assert.Equal(t, 1, g.ModelCount())
	assert.Equal(t, 0, g.DependencyCount())

	// The unresolved source stays in the metadata.
	meta, _ := c.Model("bronze.users")
	require.Len(t, meta.Sources, 1)
	assert.Equal(t, "warehouse.raw_users", meta.Sources[0].ID)
}

func TestBuildGraph_Rebuildable(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "bronze/users.sql", "SELECT id FROM raw_users")
	writeModel(t, root, "gold/orders.sql", "SELECT id FROM bronze.users")

	c := New(Config{})
	require.NoError(t, c.Discover(root))

	first := c.BuildGraph()
	second := c.BuildGraph()
	assert.Equal(t, first.ModelCount(), second.ModelCount())
	assert.Equal(t, first.DependencyCount(), second.DependencyCount())
}

func TestBuildGraph_SubqueryReferenceAddsEdge(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "bronze/users.sql", "SELECT id FROM raw_users")
	writeModel(t, root, "silver/active.sql",
		"SELECT id FROM raw_events WHERE id IN (SELECT id FROM bronze.users)")

	c := New(Config{})
	require.NoError(t, c.Discover(root))
	graph := c.BuildGraph()

	// A reference made only inside a subquery still produces an edge.
	assert.Equal(t, []string{"bronze.users"}, graph.Dependencies("silver.active"))

	order, err := graph.ExecutionOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"bronze.users", "silver.active"}, order)
}
