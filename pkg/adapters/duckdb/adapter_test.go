package duckdb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadac-labs/cadac/pkg/adapter"
)

func TestValidateConnectionString(t *testing.T) {
	a := New(nil)

	assert.NoError(t, a.ValidateConnectionString("duckdb://warehouse.db"))
	assert.NoError(t, a.ValidateConnectionString("duckdb://:memory:"))
	assert.NoError(t, a.ValidateConnectionString("duckdb://"))

	var invalidErr *adapter.InvalidConnectionStringError
	err := a.ValidateConnectionString("postgres://localhost/db")
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "duckdb", invalidErr.Dialect)
}

func TestDatabasePath(t *testing.T) {
	assert.Equal(t, "warehouse.db", databasePath("duckdb://warehouse.db"))
	assert.Equal(t, "/data/analytics.duckdb", databasePath("duckdb:///data/analytics.duckdb"))
	assert.Equal(t, "", databasePath("duckdb://:memory:"))
	assert.Equal(t, "", databasePath("duckdb://"))
}

func TestDialectAndSchemes(t *testing.T) {
	a := New(nil)
	assert.Equal(t, "duckdb", a.Dialect())
	assert.Equal(t, []string{"duckdb://"}, a.Schemes())
}

func TestConnectionExecutesSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE silver_orders").
		WillReturnResult(sqlmock.NewResult(0, 5))

	conn := NewConnection(db, nil)
	result, err := conn.ExecuteSQL(context.Background(), "CREATE TABLE silver_orders AS SELECT * FROM bronze_orders")
	require.NoError(t, err)

	assert.Equal(t, adapter.StatusSuccess, result.Status)
	assert.Equal(t, int64(5), result.RowsAffected)
	assert.Equal(t, "duckdb", conn.Dialect())
	assert.NoError(t, mock.ExpectationsWereMet())
}
