package stmt

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liudvikasakelis/dbplyr/internal/dialect"
	"github.com/liudvikasakelis/dbplyr/internal/exp"
)

const pg = dialect.Postgres

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t)
}

func testInsert() Insert {
	return Insert{
		Table:   Table{Name: "df_x"},
		Columns: []string{"a", "b"},
		Source:  exp.Ident("df_y"),
		Keys:    []string{"a"},
	}
}

func testUpsert() Upsert {
	return Upsert{
		Table:   Table{Name: "df_x"},
		Columns: []string{"a", "b"},
		Source:  exp.Ident("df_y"),
		Keys:    []string{"a"},
		Update:  []string{"b"},
	}
}

func TestInsertOnConflictIgnore(t *testing.T) {
	q := testInsert()
	q.Conflict = ConflictIgnore
	q.Returning = []string{"*"}

	sql, err := q.SQL(pg)
	require.NoError(t, err)
	golden(t).Assert(t, "insert_on_conflict_ignore", []byte(sql+"\n"))

	assert.Contains(t, sql, "ON CONFLICT")
	assert.Contains(t, sql, "DO NOTHING")
}

func TestInsertOnConflictError(t *testing.T) {
	q := testInsert()
	q.Conflict = ConflictError

	sql, err := q.SQL(pg)
	require.NoError(t, err)
	golden(t).Assert(t, "insert_on_conflict_error", []byte(sql+"\n"))

	assert.NotContains(t, sql, "DO NOTHING")
	assert.NotContains(t, sql, "ON CONFLICT")
}

func TestInsertWhereNotExistsFallback(t *testing.T) {
	q := testInsert()
	q.Conflict = ConflictIgnore
	q.Method = "where_not_exists"
	q.Returning = []string{"a", "b"}

	sql, err := q.SQL(pg)
	require.NoError(t, err)
	golden(t).Assert(t, "insert_where_not_exists", []byte(sql+"\n"))

	assert.NotContains(t, sql, "ON CONFLICT")
	assert.Contains(t, sql, "WHERE NOT EXISTS")
}

func TestInsertUnknownMethod(t *testing.T) {
	q := testInsert()
	q.Method = "merge"

	_, err := q.SQL(pg)
	require.Error(t, err)

	var iae *dialect.InvalidArgumentError
	require.True(t, errors.As(err, &iae))
	assert.Equal(t, "method", iae.Param)
	assert.Equal(t, []string{"on_conflict", "where_not_exists"}, iae.Allowed)
}

func TestInsertUnknownConflict(t *testing.T) {
	q := testInsert()
	q.Conflict = "replace"

	_, err := q.SQL(pg)
	require.Error(t, err)

	var iae *dialect.InvalidArgumentError
	require.True(t, errors.As(err, &iae))
	assert.Equal(t, "conflict", iae.Param)
}

func TestUpsertOnConflict(t *testing.T) {
	q := testUpsert()
	q.Returning = []string{"a", "b"}

	sql, err := q.SQL(pg)
	require.NoError(t, err)
	golden(t).Assert(t, "upsert_on_conflict", []byte(sql+"\n"))

	assert.Contains(t, sql, "WHERE true")
	assert.Contains(t, sql, `DO UPDATE SET "b" = "excluded"."b"`)
}

func TestUpsertAssignsEveryUpdateColumnOnce(t *testing.T) {
	q := testUpsert()
	q.Columns = []string{"a", "b", "c"}
	q.Update = []string{"b", "c"}

	sql, err := q.SQL(pg)
	require.NoError(t, err)

	for _, col := range q.Update {
		assign := `"` + col + `" = "excluded"."` + col + `"`
		assert.Equal(t, 1, strings.Count(sql, assign))
	}
	assert.NotContains(t, sql, `"a" = "excluded"."a"`)
}

func TestUpsertCTEFallback(t *testing.T) {
	q := testUpsert()
	q.Method = "cte_update"

	sql, err := q.SQL(pg)
	require.NoError(t, err)
	golden(t).Assert(t, "upsert_cte_update", []byte(sql+"\n"))

	assert.NotContains(t, sql, "ON CONFLICT")
	assert.Contains(t, sql, `WITH "updated" AS (`)
}

func TestUpsertUnknownMethod(t *testing.T) {
	q := testUpsert()
	q.Method = "merge"

	_, err := q.SQL(pg)
	require.Error(t, err)

	var iae *dialect.InvalidArgumentError
	require.True(t, errors.As(err, &iae))
	assert.Equal(t, []string{"on_conflict", "cte_update"}, iae.Allowed)
}

func TestComposeSkipsAbsentClauses(t *testing.T) {
	out := Compose(pg, []Clause{
		{Keyword: "SELECT", Body: []exp.Expr{exp.Int(1)}},
		{},
		{Keyword: "FROM", Body: []exp.Expr{exp.Ident("t")}},
	})
	assert.Equal(t, "SELECT 1\nFROM \"t\"", out)
}

func TestComposeIsDeterministic(t *testing.T) {
	q := testUpsert()
	first, err := q.SQL(pg)
	require.NoError(t, err)
	second, err := q.SQL(pg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExplain(t *testing.T) {
	out, err := Explain(pg, "SELECT 1", "")
	require.NoError(t, err)
	assert.Equal(t, "EXPLAIN SELECT 1", out)

	out, err = Explain(pg, "SELECT 1", "json")
	require.NoError(t, err)
	assert.Equal(t, "EXPLAIN (FORMAT JSON) SELECT 1", out)

	for _, format := range []string{"text", "yaml", "xml"} {
		_, err := Explain(pg, "SELECT 1", format)
		assert.NoError(t, err)
	}

	_, err = Explain(pg, "SELECT 1", "pretty")
	require.Error(t, err)

	var iae *dialect.InvalidArgumentError
	require.True(t, errors.As(err, &iae))
	assert.Equal(t, "format", iae.Param)
	assert.Equal(t, "pretty", iae.Value)
}

func TestSchemaQualifiedTable(t *testing.T) {
	q := testInsert()
	q.Table = Table{Schema: "sales", Name: "df_x"}

	sql, err := q.SQL(pg)
	require.NoError(t, err)
	assert.Contains(t, sql, `INSERT INTO "sales"."df_x"`)
}
