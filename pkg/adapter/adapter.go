// Package adapter defines the database adapter contract for running
// model SQL against a target warehouse, plus the scheme registry that
// picks an adapter from a connection string.
//
// Concrete adapter implementations live in pkg/adapters/ subdirectories.
package adapter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Status is the outcome of executing one SQL statement.
type Status string

// Execution status constants.
const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// ExecutionResult describes the outcome of one SQL execution.
// SQL-level failures are encoded here as data, never returned as
// errors; only infrastructure failures (lost connections, rollback
// failures) surface as errors.
type ExecutionResult struct {
	// Status is the execution outcome.
	Status Status
	// RowsAffected is the number of rows the statement touched.
	RowsAffected int64
	// ExecutionTime is how long the statement ran.
	ExecutionTime time.Duration
	// StartedAt is when execution began.
	StartedAt time.Time
	// Message is a human-readable outcome description.
	Message string
	// QueryHash is a short content hash of the executed SQL.
	QueryHash string
}

// HashQuery returns a short content hash for SQL text, used to
// correlate results with statements.
func HashQuery(sql string) string {
	sum := sha256.Sum256([]byte(sql))
	return hex.EncodeToString(sum[:8])
}

// Connection is an open connection to a target database. One run owns
// one connection exclusively for its duration.
type Connection interface {
	// ExecuteSQL runs one statement. SQL failures come back as a
	// Failed result with a nil error.
	ExecuteSQL(ctx context.Context, sql string) (*ExecutionResult, error)

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error

	// Dialect returns the adapter's dialect name.
	Dialect() string

	// Close closes the connection and releases resources.
	Close() error
}

// TxConnection is the transaction capability. Adapters that support
// multi-statement transactions implement it in addition to Connection;
// callers discover it with a type assertion on the interface, never on
// a concrete type.
type TxConnection interface {
	Connection

	// ExecuteTransaction runs the statements inside one transaction.
	// The first failing statement triggers rollback and short-circuits
	// the rest; its Failed result is the last element returned. A
	// rollback failure after a statement failure escalates to a
	// RollbackError.
	ExecuteTransaction(ctx context.Context, statements []string) ([]*ExecutionResult, error)
}

// Adapter creates connections for one SQL dialect.
type Adapter interface {
	// Dialect returns the dialect name (e.g., "postgres").
	Dialect() string

	// Schemes returns the connection string prefixes this adapter
	// claims (e.g., "postgresql://").
	Schemes() []string

	// ValidateConnectionString checks the connection string shape
	// without connecting.
	ValidateConnectionString(connString string) error

	// Connect opens a connection to the target database.
	Connect(ctx context.Context, connString string) (Connection, error)
}
