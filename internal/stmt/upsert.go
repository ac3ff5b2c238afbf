package stmt

import (
	"bytes"

	"github.com/liudvikasakelis/dbplyr/internal/dialect"
	"github.com/liudvikasakelis/dbplyr/internal/exp"
)

// Upsert describes an INSERT that updates existing rows on key conflict
// instead of failing.
type Upsert struct {
	Table     Table
	Columns   []string // all inserted columns
	Source    exp.Expr // rows to merge: a table reference or subquery
	Keys      []string // conflict target columns
	Update    []string // columns rewritten on conflict
	Returning []string
	Method    string // "" picks the dialect default
}

// SQL renders the statement for the dialect.
func (q Upsert) SQL(t dialect.Tag) (string, error) {
	method, err := checkMethod(q.Method, t.Capabilities().UpsertMethods)
	if err != nil {
		return "", err
	}
	switch method {
	case "on_conflict":
		return q.onConflict(t), nil
	default:
		return q.cteUpdate(t), nil
	}
}

// onConflict uses the dialect's native conflict syntax. The WHERE true
// keeps the source select unambiguous in front of ON CONFLICT.
func (q Upsert) onConflict(t dialect.Tag) string {
	clauses := []Clause{
		{Keyword: "INSERT INTO", Body: []exp.Expr{q.Table.expr(), keyList(t, q.Columns)}, Sep: " "},
		{Keyword: "SELECT", Body: identList(q.Columns)},
		{Keyword: "FROM", Body: []exp.Expr{q.Source}},
		{Keyword: "WHERE", Body: []exp.Expr{exp.Raw("true")}},
		{Keyword: "ON CONFLICT", Body: []exp.Expr{keyList(t, q.Keys)}},
		{Keyword: "DO UPDATE SET", Body: excludedAssignments(q.Update)},
	}
	clauses = append(clauses, returningClause(q.Returning))
	return Compose(t, clauses)
}

// excludedAssignments emits one col = excluded.col assignment per update
// column; "excluded" is the synthetic row alias the dialect exposes for
// the conflicting input row.
func excludedAssignments(cols []string) []exp.Expr {
	out := make([]exp.Expr, len(cols))
	for i, c := range cols {
		out[i] = exp.Infix("=", exp.Ident(c), exp.Col("excluded", c))
	}
	return out
}

// cteUpdate is the generic fallback for dialects without native conflict
// syntax: update matches through a writable CTE, then insert the rest.
func (q Upsert) cteUpdate(t dialect.Tag) string {
	const (
		updated = "updated"
		source  = "source"
	)

	update := Compose(t, []Clause{
		{Keyword: "UPDATE", Body: []exp.Expr{q.Table.expr()}},
		{Keyword: "SET", Body: sourceAssignments(source, q.Update)},
		{Keyword: "FROM", Body: []exp.Expr{aliased(t, q.Source, source)}},
		{Keyword: "WHERE", Body: []exp.Expr{keyMatch(t, q.Table.Name, source, q.Keys)}},
		{Keyword: "RETURNING", Body: []exp.Expr{exp.Col(q.Table.Name, "*")}},
	})

	var cte bytes.Buffer
	cte.WriteString(t.QuoteIdent(updated))
	cte.WriteString(" AS (\n")
	cte.WriteString(update)
	cte.WriteString("\n)")

	clauses := []Clause{
		{Keyword: "WITH", Body: []exp.Expr{exp.Raw(cte.String())}},
		{Keyword: "INSERT INTO", Body: []exp.Expr{q.Table.expr(), keyList(t, q.Columns)}, Sep: " "},
		{Keyword: "SELECT", Body: qualifiedList(source, q.Columns)},
		{Keyword: "FROM", Body: []exp.Expr{aliased(t, q.Source, source)}},
		{Keyword: "WHERE NOT EXISTS", Body: []exp.Expr{
			existsIn(t, updated, source, q.Keys),
		}},
	}
	clauses = append(clauses, returningClause(q.Returning))
	return Compose(t, clauses)
}

func sourceAssignments(source string, cols []string) []exp.Expr {
	out := make([]exp.Expr, len(cols))
	for i, c := range cols {
		out[i] = exp.Infix("=", exp.Ident(c), exp.Col(source, c))
	}
	return out
}

func keyMatch(t dialect.Tag, left, right string, keys []string) exp.Expr {
	var w bytes.Buffer
	for i, k := range keys {
		if i != 0 {
			w.WriteString(` AND `)
		}
		w.WriteByte('(')
		exp.Render(&w, exp.Infix("=", exp.Col(left, k), exp.Col(right, k)), t)
		w.WriteByte(')')
	}
	return exp.Raw(w.String())
}

func existsIn(t dialect.Tag, cte, source string, keys []string) exp.Expr {
	var w bytes.Buffer
	w.WriteString(`(SELECT 1 FROM `)
	w.WriteString(t.QuoteIdent(cte))
	w.WriteString(` WHERE `)
	for i, k := range keys {
		if i != 0 {
			w.WriteString(` AND `)
		}
		exp.Render(&w, exp.Infix("=", exp.Col(cte, k), exp.Col(source, k)), t)
	}
	w.WriteByte(')')
	return exp.Raw(w.String())
}
