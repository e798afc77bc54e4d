// Package catalog discovers SQL model files under a project root,
// extracts their metadata, and builds the model dependency graph.
//
// One file is one model. The qualified name is derived from the file
// path: the first directory segment under the root is the schema, the
// file stem is the table name, regardless of deeper nesting.
package catalog

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cadac-labs/cadac/internal/cst"
	"github.com/cadac-labs/cadac/internal/dag"
	"github.com/cadac-labs/cadac/internal/metadata"
)

// ModelIdentity identifies one model by its location on disk.
// Created once per file during discovery, immutable afterwards.
type ModelIdentity struct {
	// FilePath is the path to the SQL file.
	FilePath string
	// SchemaName is the first path segment under the model root.
	SchemaName string
	// TableName is the file stem.
	TableName string
	// QualifiedName is "schema.table".
	QualifiedName string
}

// Config holds catalog configuration.
type Config struct {
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Catalog holds every discovered model for one invocation. It is
// built fresh per run and never persisted.
type Catalog struct {
	logger     *slog.Logger
	models     map[string]*metadata.ModelMetadata
	identities map[string]ModelIdentity
	sql        map[string]string
	order      []string // qualified names in discovery order
	graph      *dag.Graph
}

// New creates an empty catalog.
func New(cfg Config) *Catalog {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Catalog{
		logger:     logger,
		models:     make(map[string]*metadata.ModelMetadata),
		identities: make(map[string]ModelIdentity),
		sql:        make(map[string]string),
		graph:      dag.NewGraph(),
	}
}

// IdentityFromPath derives a model identity from a file path beneath
// the given root.
func IdentityFromPath(root, path string) (ModelIdentity, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return ModelIdentity{}, fmt.Errorf("failed to relativize %s: %w", path, err)
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	table := strings.TrimSuffix(parts[len(parts)-1], filepath.Ext(parts[len(parts)-1]))

	var schema string
	if len(parts) > 1 {
		schema = parts[0]
	}

	qualified := table
	if schema != "" {
		qualified = schema + "." + table
	}
	return ModelIdentity{
		FilePath:      path,
		SchemaName:    schema,
		TableName:     table,
		QualifiedName: qualified,
	}, nil
}

// Discover walks rootDir for .sql files and extracts metadata from
// every one. A file that fails extraction aborts the whole discovery;
// there are no partial catalogs.
func (c *Catalog) Discover(rootDir string) error {
	info, err := os.Stat(rootDir)
	if err != nil {
		return fmt.Errorf("models directory %s: %w", rootDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("models path %s is not a directory", rootDir)
	}

	c.logger.Debug("discovering models", "root", rootDir)

	err = filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".sql") {
			return nil
		}
		return c.addFile(rootDir, path)
	})
	if err != nil {
		return err
	}

	c.logger.Debug("discovery complete", "models", len(c.models))
	return nil
}

// addFile extracts one model file into the catalog.
func (c *Catalog) addFile(root, path string) error {
	identity, err := IdentityFromPath(root, path)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read model %s: %w", path, err)
	}
	sql := string(content)

	meta, err := metadata.Extract(cst.Parse(sql))
	if err != nil {
		return fmt.Errorf("failed to extract model %s (%s): %w", identity.QualifiedName, path, err)
	}
	meta.Name = identity.QualifiedName

	if existing, ok := c.identities[identity.QualifiedName]; ok {
		// Last write wins; kept as observed behavior rather than fixed.
		c.logger.Warn("duplicate qualified model name",
			"name", identity.QualifiedName,
			"kept", path,
			"shadowed", existing.FilePath)
	} else {
		c.order = append(c.order, identity.QualifiedName)
	}

	c.models[identity.QualifiedName] = meta
	c.identities[identity.QualifiedName] = identity
	c.sql[identity.QualifiedName] = sql
	return nil
}

// BuildGraph rebuilds the dependency graph from the cataloged models.
// Sources that do not resolve to a cataloged model are external tables
// and contribute no edges; they stay in the model's metadata.
func (c *Catalog) BuildGraph() *dag.Graph {
	c.graph.Clear()

	for _, name := range c.order {
		c.graph.AddModel(name)
	}
	for _, name := range c.order {
		for _, source := range c.models[name].Sources {
			if _, ok := c.models[source.ID]; ok {
				c.graph.AddDependency(name, source.ID)
			}
		}
	}
	return c.graph
}

// Graph returns the dependency graph as last built by BuildGraph.
func (c *Catalog) Graph() *dag.Graph {
	return c.graph
}

// Model returns the metadata for a qualified name.
func (c *Catalog) Model(name string) (*metadata.ModelMetadata, bool) {
	meta, ok := c.models[name]
	return meta, ok
}

// Identity returns the identity for a qualified name.
func (c *Catalog) Identity(name string) (ModelIdentity, bool) {
	identity, ok := c.identities[name]
	return identity, ok
}

// SQL returns the raw SQL text for a qualified name.
func (c *Catalog) SQL(name string) (string, bool) {
	sql, ok := c.sql[name]
	return sql, ok
}

// ModelNames returns every qualified name in discovery order.
func (c *Catalog) ModelNames() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Count returns the number of cataloged models.
func (c *Catalog) Count() int {
	return len(c.models)
}
