package stmt

import (
	"bytes"

	"github.com/liudvikasakelis/dbplyr/internal/dialect"
	"github.com/liudvikasakelis/dbplyr/internal/exp"
)

// Conflict selects what an insert does when a row with the same keys
// already exists.
type Conflict string

const (
	// ConflictError lets the database raise on duplicate keys.
	ConflictError Conflict = "error"
	// ConflictIgnore skips conflicting rows.
	ConflictIgnore Conflict = "ignore"
)

func checkConflict(c Conflict) (Conflict, error) {
	switch c {
	case "":
		return ConflictError, nil
	case ConflictError, ConflictIgnore:
		return c, nil
	}
	return "", &dialect.InvalidArgumentError{
		Param: "conflict", Value: string(c),
		Allowed: []string{string(ConflictError), string(ConflictIgnore)},
	}
}

// Insert describes an INSERT ... SELECT with a conflict strategy.
type Insert struct {
	Table     Table
	Columns   []string
	Source    exp.Expr // rows to insert: a table reference or subquery
	Keys      []string // conflict target columns
	Conflict  Conflict
	Returning []string
	Method    string // "" picks the dialect default
}

// SQL renders the statement for the dialect.
func (q Insert) SQL(t dialect.Tag) (string, error) {
	conflict, err := checkConflict(q.Conflict)
	if err != nil {
		return "", err
	}
	method, err := checkMethod(q.Method, t.Capabilities().InsertMethods)
	if err != nil {
		return "", err
	}

	switch method {
	case "on_conflict":
		return q.onConflict(t, conflict), nil
	default:
		return q.whereNotExists(t, conflict), nil
	}
}

// onConflict uses the dialect's native conflict syntax.
func (q Insert) onConflict(t dialect.Tag, conflict Conflict) string {
	clauses := []Clause{
		{Keyword: "INSERT INTO", Body: []exp.Expr{q.Table.expr(), keyList(t, q.Columns)}, Sep: " "},
		{Keyword: "SELECT", Body: identList(q.Columns)},
		{Keyword: "FROM", Body: []exp.Expr{q.Source}},
	}
	if conflict == ConflictIgnore {
		clauses = append(clauses,
			Clause{Keyword: "ON CONFLICT", Body: []exp.Expr{keyList(t, q.Keys)}},
			Clause{Keyword: "DO NOTHING"},
		)
	}
	clauses = append(clauses, returningClause(q.Returning))
	return Compose(t, clauses)
}

// whereNotExists is the generic fallback for dialects without native
// conflict syntax: conflicting rows are filtered out before insertion.
func (q Insert) whereNotExists(t dialect.Tag, conflict Conflict) string {
	const alias = "values_table"

	clauses := []Clause{
		{Keyword: "INSERT INTO", Body: []exp.Expr{q.Table.expr(), keyList(t, q.Columns)}, Sep: " "},
		{Keyword: "SELECT", Body: qualifiedList(alias, q.Columns)},
		{Keyword: "FROM", Body: []exp.Expr{aliased(t, q.Source, alias)}},
	}
	if conflict == ConflictIgnore {
		clauses = append(clauses, Clause{
			Keyword: "WHERE NOT EXISTS",
			Body:    []exp.Expr{existsProbe(t, q.Table, alias, q.Keys)},
		})
	}
	clauses = append(clauses, returningClause(q.Returning))
	return Compose(t, clauses)
}

func qualifiedList(table string, cols []string) []exp.Expr {
	out := make([]exp.Expr, len(cols))
	for i, c := range cols {
		out[i] = exp.Col(table, c)
	}
	return out
}

// aliased renders source AS alias, honoring the dialect's alias keyword.
func aliased(t dialect.Tag, source exp.Expr, alias string) exp.Expr {
	var w bytes.Buffer
	exp.Render(&w, source, t)
	if t.Capabilities().AliasWithAS {
		w.WriteString(` AS `)
	} else {
		w.WriteByte(' ')
	}
	w.WriteString(t.QuoteIdent(alias))
	return exp.Raw(w.String())
}

// existsProbe builds (SELECT 1 FROM target WHERE target.key = alias.key AND ...).
func existsProbe(t dialect.Tag, target Table, alias string, keys []string) exp.Expr {
	var w bytes.Buffer
	w.WriteString(`(SELECT 1 FROM `)
	exp.Render(&w, target.expr(), t)
	w.WriteString(` WHERE `)
	for i, k := range keys {
		if i != 0 {
			w.WriteString(` AND `)
		}
		exp.Render(&w, exp.Infix("=",
			exp.Col(target.Name, k), exp.Col(alias, k)), t)
	}
	w.WriteByte(')')
	return exp.Raw(w.String())
}
