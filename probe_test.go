package dbplyr_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liudvikasakelis/dbplyr"
)

func mockDB(t *testing.T) (*dbplyr.Compiler, sqlmock.Sqlmock, func(context.Context, dbplyr.Table) (map[string]string, error)) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	c := newCompiler(t)
	probe := func(ctx context.Context, table dbplyr.Table) (map[string]string, error) {
		return c.ColumnTypes(ctx, db, table)
	}
	return c, mock, probe
}

func widgetRows() *sqlmock.Rows {
	return sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("id").OfType("INT8", int64(0)),
		sqlmock.NewColumn("name").OfType("TEXT", ""),
		sqlmock.NewColumn("created_at").OfType("TIMESTAMPTZ", nil),
	)
}

func TestColumnTypes(t *testing.T) {
	_, mock, probe := mockDB(t)

	mock.ExpectQuery(`SELECT * FROM "widgets" LIMIT 0`).WillReturnRows(widgetRows())

	types, err := probe(context.Background(), dbplyr.Table{Name: "widgets"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"id":         "INT8",
		"name":       "TEXT",
		"created_at": "TIMESTAMPTZ",
	}, types)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnTypesCached(t *testing.T) {
	_, mock, probe := mockDB(t)

	// One expectation only; the second probe must come from the cache.
	mock.ExpectQuery(`SELECT * FROM "widgets" LIMIT 0`).WillReturnRows(widgetRows())

	first, err := probe(context.Background(), dbplyr.Table{Name: "widgets"})
	require.NoError(t, err)
	second, err := probe(context.Background(), dbplyr.Table{Name: "widgets"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnTypesSchemaQualified(t *testing.T) {
	_, mock, probe := mockDB(t)

	mock.ExpectQuery(`SELECT * FROM "sales"."widgets" LIMIT 0`).WillReturnRows(widgetRows())

	_, err := probe(context.Background(), dbplyr.Table{Schema: "sales", Name: "widgets"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnTypesQueryError(t *testing.T) {
	_, mock, probe := mockDB(t)

	mock.ExpectQuery(`SELECT * FROM "missing" LIMIT 0`).
		WillReturnError(assert.AnError)

	_, err := probe(context.Background(), dbplyr.Table{Name: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "probing columns of missing")
	assert.ErrorIs(t, err, assert.AnError)
}
