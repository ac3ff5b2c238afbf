package dbplyr_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/liudvikasakelis/dbplyr"
)

func newCompiler(t *testing.T) *dbplyr.Compiler {
	t.Helper()
	c, err := dbplyr.NewCompiler(dbplyr.Config{DBType: "postgres"})
	require.NoError(t, err)
	return c
}

func TestNewCompilerUnknownDialect(t *testing.T) {
	_, err := dbplyr.NewCompiler(dbplyr.Config{DBType: "mssql"})
	require.Error(t, err)
}

func TestScalarTranslation(t *testing.T) {
	c := newCompiler(t)

	out, err := c.Scalar(dbplyr.Call{
		Name: "round",
		Args: []dbplyr.Expr{dbplyr.Ident("x"), dbplyr.Int(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, `round(CAST("x" AS numeric), 2)`, out)

	out, err = c.Scalar(dbplyr.Call{
		Name: "wday",
		Args: []dbplyr.Expr{dbplyr.Ident("x")},
		Options: map[string]dbplyr.Expr{
			"label": dbplyr.Bool(true),
			"abbr":  dbplyr.Bool(true),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `SUBSTR(TO_CHAR("x", 'Day'), 1, 3)`, out)

	out, err = c.Scalar(dbplyr.Call{
		Name:    "grepl",
		Args:    []dbplyr.Expr{dbplyr.Str("a"), dbplyr.Ident("x")},
		Options: map[string]dbplyr.Expr{"ignore.case": dbplyr.Bool(true)},
	})
	require.NoError(t, err)
	assert.Equal(t, `"x" ~* 'a'`, out)
}

func TestContextSelectsRegistry(t *testing.T) {
	c := newCompiler(t)

	agg, err := c.Aggregate(dbplyr.Call{
		Name: "sd", Args: []dbplyr.Expr{dbplyr.Ident("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, `STDDEV_SAMP("x")`, agg)

	win, err := c.Windowed(dbplyr.Call{
		Name:   "sd",
		Args:   []dbplyr.Expr{dbplyr.Ident("x")},
		Window: dbplyr.Window{Partition: []dbplyr.Expr{dbplyr.Ident("g")}},
	})
	require.NoError(t, err)
	assert.Equal(t, `STDDEV_SAMP("x") OVER (PARTITION BY "g")`, win)

	_, err = c.Windowed(dbplyr.Call{
		Name: "cor", Args: []dbplyr.Expr{dbplyr.Ident("x"), dbplyr.Ident("y")},
	})
	require.Error(t, err)

	var amb *dbplyr.TranslationAmbiguityError
	require.True(t, errors.As(err, &amb))
	assert.Equal(t, "cor", amb.Function)
}

func TestUnknownFunctionSurfaces(t *testing.T) {
	c := newCompiler(t)

	_, err := c.Scalar(dbplyr.Call{Name: "frobnicate"})
	require.Error(t, err)

	var ufe *dbplyr.UnknownFunctionError
	require.True(t, errors.As(err, &ufe))
	assert.Equal(t, "frobnicate", ufe.Name)
}

func TestUnsupportedArgumentSurfaces(t *testing.T) {
	c := newCompiler(t)

	_, err := c.Scalar(dbplyr.Call{
		Name:    "grepl",
		Args:    []dbplyr.Expr{dbplyr.Str("a"), dbplyr.Ident("x")},
		Options: map[string]dbplyr.Expr{"perl": dbplyr.Bool(true)},
	})
	require.Error(t, err)

	var uae *dbplyr.UnsupportedArgumentError
	require.True(t, errors.As(err, &uae))
	assert.Equal(t, "perl", uae.Param)
}

func TestInsertAndUpsertFacade(t *testing.T) {
	c := newCompiler(t)

	ins, err := c.Insert(dbplyr.InsertQuery{
		Table:    dbplyr.Table{Name: "df_x"},
		Columns:  []string{"a", "b"},
		Source:   dbplyr.Ident("df_y"),
		Keys:     []string{"a"},
		Conflict: dbplyr.ConflictIgnore,
	})
	require.NoError(t, err)
	assert.Contains(t, ins, "ON CONFLICT")
	assert.Contains(t, ins, "DO NOTHING")

	ups, err := c.Upsert(dbplyr.UpsertQuery{
		Table:   dbplyr.Table{Name: "df_x"},
		Columns: []string{"a", "b"},
		Source:  dbplyr.Ident("df_y"),
		Keys:    []string{"a"},
		Update:  []string{"b"},
	})
	require.NoError(t, err)
	assert.Contains(t, ups, `DO UPDATE SET "b" = "excluded"."b"`)
}

func TestExplainFacade(t *testing.T) {
	c := newCompiler(t)

	out, err := c.Explain("SELECT 1", "json")
	require.NoError(t, err)
	assert.Equal(t, "EXPLAIN (FORMAT JSON) SELECT 1", out)

	_, err = c.Explain("SELECT 1", "fancy")
	require.Error(t, err)

	var iae *dbplyr.InvalidArgumentError
	require.True(t, errors.As(err, &iae))
}

func TestCapabilitiesAndNames(t *testing.T) {
	c := newCompiler(t)

	caps := c.Capabilities()
	assert.True(t, caps.WindowClause)
	assert.Equal(t, "postgres", c.Dialect())

	for _, context := range []string{"scalar", "aggregate", "window"} {
		assert.NotEmpty(t, c.Names(context), context)
	}
}

func TestDebugLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c, err := dbplyr.NewCompiler(dbplyr.Config{Logger: zap.New(core)})
	require.NoError(t, err)

	_, err = c.Scalar(dbplyr.Call{
		Name: "round", Args: []dbplyr.Expr{dbplyr.Ident("x")},
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("translated expression").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "postgres", fields["dialect"])
	assert.Equal(t, "round", fields["function"])
}

// Registries are immutable after construction, so concurrent translation
// needs no synchronization and stays byte-identical.
func TestConcurrentTranslation(t *testing.T) {
	c := newCompiler(t)

	want, err := c.Scalar(dbplyr.Call{
		Name: "round", Args: []dbplyr.Expr{dbplyr.Ident("x"), dbplyr.Int(2)},
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got, err := c.Scalar(dbplyr.Call{
					Name: "round", Args: []dbplyr.Expr{dbplyr.Ident("x"), dbplyr.Int(2)},
				})
				assert.NoError(t, err)
				assert.Equal(t, want, got)
			}
		}()
	}
	wg.Wait()
}
