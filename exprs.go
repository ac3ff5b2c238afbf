package dbplyr

import (
	"github.com/liudvikasakelis/dbplyr/internal/dialect"
	"github.com/liudvikasakelis/dbplyr/internal/exp"
	"github.com/liudvikasakelis/dbplyr/internal/stmt"
)

// Expr is a typed SQL fragment node, built by composition and never
// mutated.
type Expr = exp.Expr

// Window is an OVER specification for window-context translation.
type Window = exp.Window

// SortKey is one ORDER BY element of a Window.
type SortKey = exp.SortKey

// Capabilities is the read-only per-dialect structural profile.
type Capabilities = dialect.Capabilities

// Table names a possibly schema-qualified table.
type Table = stmt.Table

// InsertQuery describes an INSERT ... SELECT with a conflict strategy.
type InsertQuery = stmt.Insert

// UpsertQuery describes an INSERT that updates existing rows on key
// conflict.
type UpsertQuery = stmt.Upsert

// Conflict resolution strategies for InsertQuery.
const (
	ConflictError  = stmt.ConflictError
	ConflictIgnore = stmt.ConflictIgnore
)

// Ident is an escaped identifier reference.
func Ident(name string) Expr { return exp.Ident(name) }

// Col is a table-qualified identifier reference.
func Col(table, name string) Expr { return exp.Col(table, name) }

// Lit is a literal value, escaped by kind at render time.
func Lit(v interface{}) Expr { return exp.Lit(v) }

// Str is a string literal.
func Str(s string) Expr { return exp.Str(s) }

// Int is a whole-number literal.
func Int(i int) Expr { return exp.Int(i) }

// Float is a floating-point literal.
func Float(f float64) Expr { return exp.Float(f) }

// Bool is a boolean literal.
func Bool(b bool) Expr { return exp.Bool(b) }

// Raw is pre-escaped SQL text inserted verbatim. Callers own its safety.
func Raw(sql string) Expr { return exp.Raw(sql) }
