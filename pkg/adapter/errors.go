package adapter

import (
	"fmt"
	"strings"
)

// Error categories attached to failed execution results.
const (
	CategorySyntaxError      = "SYNTAX_ERROR"
	CategoryMissingRelation  = "MISSING_RELATION"
	CategoryMissingColumn    = "MISSING_COLUMN"
	CategoryPermissionDenied = "PERMISSION_DENIED"
	CategoryDuplicateKey     = "DUPLICATE_KEY"
	CategoryConnectionError  = "CONNECTION_ERROR"
	CategoryTimeout          = "TIMEOUT"
	CategoryUnknown          = "UNKNOWN_ERROR"
)

// ErrorDetails classifies a database error for reporting.
type ErrorDetails struct {
	Category    string
	Message     string
	Recoverable bool
}

// CategorizeError classifies a database error by message patterns and
// SQLSTATE fragments. Connection and timeout errors are the only
// recoverable categories.
func CategorizeError(err error) ErrorDetails {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "syntax error") || strings.Contains(msg, "42601"):
		return ErrorDetails{Category: CategorySyntaxError, Message: "SQL syntax error detected"}
	case strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"):
		return ErrorDetails{Category: CategoryMissingRelation, Message: "Referenced table or view does not exist"}
	case strings.Contains(msg, "column") && strings.Contains(msg, "does not exist"):
		return ErrorDetails{Category: CategoryMissingColumn, Message: "Referenced column does not exist"}
	case strings.Contains(msg, "permission denied") || strings.Contains(msg, "42501"):
		return ErrorDetails{Category: CategoryPermissionDenied, Message: "Insufficient permissions to execute query"}
	case strings.Contains(msg, "duplicate key") || strings.Contains(msg, "23505"):
		return ErrorDetails{Category: CategoryDuplicateKey, Message: "Unique constraint violation"}
	case strings.Contains(msg, "connection"):
		return ErrorDetails{Category: CategoryConnectionError, Message: "Database connection issue", Recoverable: true}
	case strings.Contains(msg, "timeout"):
		return ErrorDetails{Category: CategoryTimeout, Message: "Query execution timeout", Recoverable: true}
	default:
		return ErrorDetails{Category: CategoryUnknown, Message: fmt.Sprintf("Unrecognized error: %v", err)}
	}
}

// UnknownSchemeError is returned when no registered adapter claims a
// connection string's scheme.
type UnknownSchemeError struct {
	ConnString string
	Available  []string
}

func (e *UnknownSchemeError) Error() string {
	return fmt.Sprintf("no adapter registered for connection string %q\nAvailable dialects: %v", redact(e.ConnString), e.Available)
}

// InvalidConnectionStringError is returned when a connection string
// does not match the shape its adapter expects.
type InvalidConnectionStringError struct {
	Dialect string
	Reason  string
}

func (e *InvalidConnectionStringError) Error() string {
	return fmt.Sprintf("invalid %s connection string: %s", e.Dialect, e.Reason)
}

// RollbackError is returned when a transaction rollback fails after a
// statement failure, combining both causes.
type RollbackError struct {
	StatementErr error
	RollbackErr  error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("transaction failed and rollback also failed. Original error: %v, Rollback error: %v",
		e.StatementErr, e.RollbackErr)
}

func (e *RollbackError) Unwrap() error {
	return e.StatementErr
}

// redact hides credentials embedded in a connection string.
func redact(connString string) string {
	at := strings.Index(connString, "@")
	scheme := strings.Index(connString, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return connString
	}
	return connString[:scheme+3] + "***" + connString[at:]
}
