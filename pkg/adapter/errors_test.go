package adapter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name        string
		err         string
		category    string
		recoverable bool
	}{
		{"syntax error", `ERROR: syntax error at or near "FORM"`, CategorySyntaxError, false},
		{"syntax sqlstate", "SQLSTATE 42601", CategorySyntaxError, false},
		{"missing relation", `relation "users" does not exist`, CategoryMissingRelation, false},
		{"missing column", `column "emial" does not exist`, CategoryMissingColumn, false},
		{"permission denied", "permission denied for table users", CategoryPermissionDenied, false},
		{"duplicate key", "duplicate key value violates unique constraint", CategoryDuplicateKey, false},
		{"connection", "connection refused", CategoryConnectionError, true},
		{"timeout", "statement timeout", CategoryTimeout, true},
		{"unknown", "something odd happened", CategoryUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := CategorizeError(errors.New(tt.err))
			assert.Equal(t, tt.category, details.Category)
			assert.Equal(t, tt.recoverable, details.Recoverable)
		})
	}
}
