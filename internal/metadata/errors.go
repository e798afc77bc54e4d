package metadata

import "fmt"

// MultipleStatementsError is returned when a model file contains more
// than one top-level statement. A model must be a single SELECT.
type MultipleStatementsError struct {
	Count int
}

func (e *MultipleStatementsError) Error() string {
	return fmt.Sprintf("model must contain exactly one statement, found %d", e.Count)
}

// NoStatementError is returned when a model file contains no statement
// at all.
type NoStatementError struct{}

func (e *NoStatementError) Error() string {
	return "model contains no statement"
}

// SyntaxError is returned when the syntax tree carries a parse error.
type SyntaxError struct{}

func (e *SyntaxError) Error() string {
	return "model SQL has syntax errors"
}
