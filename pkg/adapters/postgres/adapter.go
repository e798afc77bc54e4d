// Package postgres provides the PostgreSQL database adapter.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	// Registers the pgx database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/cadac-labs/cadac/pkg/adapter"
)

// Adapter implements adapter.Adapter for PostgreSQL.
type Adapter struct {
	logger *slog.Logger
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{logger: logger}
}

// Dialect returns the SQL dialect name for this adapter.
func (a *Adapter) Dialect() string {
	return "postgres"
}

// Schemes returns the connection string prefixes this adapter claims.
func (a *Adapter) Schemes() []string {
	return []string{"postgresql://", "postgres://"}
}

// ValidateConnectionString checks the connection string shape without
// connecting.
func (a *Adapter) ValidateConnectionString(connString string) error {
	for _, scheme := range a.Schemes() {
		if strings.HasPrefix(connString, scheme) {
			return nil
		}
	}
	return &adapter.InvalidConnectionStringError{
		Dialect: "postgres",
		Reason:  "must start with 'postgresql://' or 'postgres://'",
	}
}

// Connect opens a connection to PostgreSQL and verifies it with a
// ping.
func (a *Adapter) Connect(ctx context.Context, connString string) (adapter.Connection, error) {
	if err := a.ValidateConnectionString(connString); err != nil {
		return nil, err
	}

	a.logger.Debug("connecting to postgres")

	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return adapter.NewSQLConnection(db, "postgres", a.logger), nil
}

// NewConnection wraps an already-opened database handle. Used by tests
// to inject mock connections.
func NewConnection(db *sql.DB, logger *slog.Logger) adapter.Connection {
	return adapter.NewSQLConnection(db, "postgres", logger)
}

// Ensure Adapter implements the adapter interface.
var _ adapter.Adapter = (*Adapter)(nil)
