package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// SQLConnection is a Connection backed by database/sql. Concrete
// adapters hand it an opened *sql.DB; it provides the shared execute,
// transaction, ping, and close behavior.
type SQLConnection struct {
	db      *sql.DB
	dialect string
	logger  *slog.Logger
}

// NewSQLConnection wraps an opened database handle. If logger is nil,
// a discard logger is used.
func NewSQLConnection(db *sql.DB, dialect string, logger *slog.Logger) *SQLConnection {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLConnection{db: db, dialect: dialect, logger: logger}
}

// Dialect returns the dialect name of the owning adapter.
func (c *SQLConnection) Dialect() string {
	return c.dialect
}

// Ping verifies the connection is alive.
func (c *SQLConnection) Ping(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database connection not established")
	}
	return c.db.PingContext(ctx)
}

// Close closes the database connection.
func (c *SQLConnection) Close() error {
	if c.db == nil {
		return nil
	}
	c.logger.Debug("closing database connection", "dialect", c.dialect)
	return c.db.Close()
}

// ExecuteSQL runs one statement. A database-level failure is encoded
// as a Failed result, categorized for reporting; the error return is
// reserved for infrastructure problems.
func (c *SQLConnection) ExecuteSQL(ctx context.Context, sqlText string) (*ExecutionResult, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	started := time.Now()
	hash := HashQuery(sqlText)

	res, err := c.db.ExecContext(ctx, sqlText)
	elapsed := time.Since(started)

	if err != nil {
		details := CategorizeError(err)
		c.logger.Debug("sql execution failed",
			"dialect", c.dialect,
			"category", details.Category,
			"query_hash", hash)
		return &ExecutionResult{
			Status:        StatusFailed,
			ExecutionTime: elapsed,
			StartedAt:     started,
			QueryHash:     hash,
			Message:       fmt.Sprintf("SQL execution failed [%s]: %s", details.Category, details.Message),
		}, nil
	}

	rows, err := res.RowsAffected()
	if err != nil {
		// Not every driver reports affected rows.
		rows = 0
	}
	return &ExecutionResult{
		Status:        StatusSuccess,
		RowsAffected:  rows,
		ExecutionTime: elapsed,
		StartedAt:     started,
		QueryHash:     hash,
		Message:       fmt.Sprintf("Successfully executed SQL, %d rows affected", rows),
	}, nil
}

// ExecuteTransaction runs statements inside one transaction,
// short-circuiting at the first failure. The failing statement's
// result is included; a rollback failure escalates to a RollbackError.
// On full success a summary result with the total time and summed row
// count is appended.
func (c *SQLConnection) ExecuteTransaction(ctx context.Context, statements []string) ([]*ExecutionResult, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	totalStart := time.Now()
	var results []*ExecutionResult
	var totalRows int64

	for _, stmt := range statements {
		started := time.Now()
		hash := HashQuery(stmt)

		res, err := tx.ExecContext(ctx, stmt)
		elapsed := time.Since(started)

		if err != nil {
			details := CategorizeError(err)
			results = append(results, &ExecutionResult{
				Status:        StatusFailed,
				ExecutionTime: elapsed,
				StartedAt:     started,
				QueryHash:     hash,
				Message:       fmt.Sprintf("SQL execution failed in transaction [%s]: %s", details.Category, details.Message),
			})
			if rbErr := tx.Rollback(); rbErr != nil {
				return nil, &RollbackError{StatementErr: err, RollbackErr: rbErr}
			}
			return results, nil
		}

		rows, err := res.RowsAffected()
		if err != nil {
			rows = 0
		}
		totalRows += rows
		results = append(results, &ExecutionResult{
			Status:        StatusSuccess,
			RowsAffected:  rows,
			ExecutionTime: elapsed,
			StartedAt:     started,
			QueryHash:     hash,
			Message:       fmt.Sprintf("Successfully executed SQL in transaction, %d rows affected", rows),
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	results = append(results, &ExecutionResult{
		Status:        StatusSuccess,
		RowsAffected:  totalRows,
		ExecutionTime: time.Since(totalStart),
		StartedAt:     totalStart,
		Message:       fmt.Sprintf("Transaction completed successfully. %d statements executed.", len(statements)),
	})
	return results, nil
}

// Compile-time interface checks.
var (
	_ Connection   = (*SQLConnection)(nil)
	_ TxConnection = (*SQLConnection)(nil)
)
