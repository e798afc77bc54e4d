// Package commands implements the cadac subcommands.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cadac-labs/cadac/internal/catalog"
	"github.com/cadac-labs/cadac/internal/cli/config"
	"github.com/cadac-labs/cadac/pkg/adapter"
	"github.com/cadac-labs/cadac/pkg/adapters/duckdb"
	"github.com/cadac-labs/cadac/pkg/adapters/postgres"
)

// buildCatalog discovers models from the configured models directory
// and builds the dependency graph.
func buildCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	c := catalog.New(catalog.Config{Logger: logger})
	if err := c.Discover(cfg.ModelsDir); err != nil {
		return nil, fmt.Errorf("failed to discover models: %w", err)
	}
	c.BuildGraph()
	return c, nil
}

// newRegistry builds the adapter registry with every built-in dialect
// registered.
func newRegistry(cmd *cobra.Command) *adapter.Registry {
	logger := config.GetLogger(cmd.Context())

	reg := adapter.NewRegistry()
	reg.Register(postgres.New(logger))
	reg.Register(duckdb.New(logger))
	return reg
}
