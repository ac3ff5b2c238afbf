// Package stmt assembles complete statements from ordered clause
// fragments, consulting the dialect's capability descriptor for structure
// and its escaping services for every identifier and literal.
package stmt

import (
	"bytes"

	"github.com/liudvikasakelis/dbplyr/internal/dialect"
	"github.com/liudvikasakelis/dbplyr/internal/exp"
)

// Clause is a named structural fragment of a statement: a keyword plus an
// ordered sequence of expressions.
type Clause struct {
	Keyword string
	Body    []exp.Expr
	Sep     string // separator between body expressions; ", " when empty
}

func (c Clause) empty() bool {
	return c.Keyword == "" && len(c.Body) == 0
}

// Compose renders clauses in caller order, one per line, skipping absent
// ones.
func Compose(t dialect.Tag, clauses []Clause) string {
	var w bytes.Buffer
	for _, c := range clauses {
		if c.empty() {
			continue
		}
		if w.Len() > 0 {
			w.WriteByte('\n')
		}
		w.WriteString(c.Keyword)
		sep := c.Sep
		if sep == "" {
			sep = ", "
		}
		for i, e := range c.Body {
			if i == 0 && c.Keyword != "" {
				w.WriteByte(' ')
			}
			if i != 0 {
				w.WriteString(sep)
			}
			exp.Render(&w, e, t)
		}
	}
	return w.String()
}

// Table names a possibly schema-qualified table.
type Table struct {
	Schema string
	Name   string
}

func (tb Table) expr() exp.Expr {
	if tb.Schema != "" {
		return exp.Col(tb.Schema, tb.Name)
	}
	return exp.Ident(tb.Name)
}

// identList renders columns as escaped identifier expressions.
func identList(cols []string) []exp.Expr {
	out := make([]exp.Expr, len(cols))
	for i, c := range cols {
		out[i] = exp.Ident(c)
	}
	return out
}

// keyList renders conflict keys as a parenthesized, comma-joined
// identifier list.
func keyList(t dialect.Tag, keys []string) exp.Expr {
	var w bytes.Buffer
	w.WriteByte('(')
	for i, k := range keys {
		if i != 0 {
			w.WriteString(`, `)
		}
		w.WriteString(t.QuoteIdent(k))
	}
	w.WriteByte(')')
	return exp.Raw(w.String())
}

// returningClause is shared by the insert and upsert protocols; it accepts
// either "*" or an explicit column list.
func returningClause(cols []string) Clause {
	if len(cols) == 0 {
		return Clause{}
	}
	if len(cols) == 1 && cols[0] == "*" {
		return Clause{Keyword: "RETURNING", Body: []exp.Expr{exp.Raw("*")}}
	}
	return Clause{Keyword: "RETURNING", Body: identList(cols)}
}

// checkMethod validates a statement build method against the dialect's
// allow-list. The first allowed method is the default. An unknown method
// is a configuration error, not a translation failure.
func checkMethod(method string, allowed []string) (string, error) {
	if method == "" {
		return allowed[0], nil
	}
	for _, m := range allowed {
		if method == m {
			return m, nil
		}
	}
	return "", &dialect.InvalidArgumentError{
		Param: "method", Value: method, Allowed: allowed,
	}
}
