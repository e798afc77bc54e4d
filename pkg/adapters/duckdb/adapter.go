// Package duckdb provides the DuckDB database adapter.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	// Registers the duckdb database/sql driver.
	_ "github.com/marcboeker/go-duckdb"

	"github.com/cadac-labs/cadac/pkg/adapter"
)

// Adapter implements adapter.Adapter for DuckDB.
type Adapter struct {
	logger *slog.Logger
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{logger: logger}
}

// Dialect returns the SQL dialect name for this adapter.
func (a *Adapter) Dialect() string {
	return "duckdb"
}

// Schemes returns the connection string prefixes this adapter claims.
func (a *Adapter) Schemes() []string {
	return []string{"duckdb://"}
}

// ValidateConnectionString checks the connection string shape without
// connecting.
func (a *Adapter) ValidateConnectionString(connString string) error {
	if !strings.HasPrefix(connString, "duckdb://") {
		return &adapter.InvalidConnectionStringError{
			Dialect: "duckdb",
			Reason:  "must start with 'duckdb://'",
		}
	}
	return nil
}

// Connect opens a DuckDB database. The path after the scheme selects
// the database file; an empty path or ":memory:" opens an in-memory
// database.
func (a *Adapter) Connect(ctx context.Context, connString string) (adapter.Connection, error) {
	if err := a.ValidateConnectionString(connString); err != nil {
		return nil, err
	}

	path := databasePath(connString)
	a.logger.Debug("connecting to duckdb", "path", path)

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	return adapter.NewSQLConnection(db, "duckdb", a.logger), nil
}

// databasePath extracts the database file path from a connection
// string. Empty means in-memory.
func databasePath(connString string) string {
	path := strings.TrimPrefix(connString, "duckdb://")
	if path == ":memory:" {
		return ""
	}
	return path
}

// NewConnection wraps an already-opened database handle. Used by tests
// to inject mock connections.
func NewConnection(db *sql.DB, logger *slog.Logger) adapter.Connection {
	return adapter.NewSQLConnection(db, "duckdb", logger)
}

// Ensure Adapter implements the adapter interface.
var _ adapter.Adapter = (*Adapter)(nil)
