// Package exp is the intermediate representation of SQL expression
// fragments. Nodes are built by typed constructors and rendered into a
// buffer with dialect-keyed escaping; they are never mutated after
// construction and never assembled by raw string concatenation outside
// this package.
package exp

import (
	"bytes"
	"strconv"

	"github.com/liudvikasakelis/dbplyr/internal/dialect"
)

// Expr is a typed SQL fragment node.
type Expr interface {
	render(w *bytes.Buffer, t dialect.Tag)
}

// SQL renders an expression to text for the given dialect.
func SQL(e Expr, t dialect.Tag) string {
	var w bytes.Buffer
	e.render(&w, t)
	return w.String()
}

// Render writes an expression into an existing buffer.
func Render(w *bytes.Buffer, e Expr, t dialect.Tag) {
	e.render(w, t)
}

type ident struct {
	table string
	name  string
}

// Ident is an escaped identifier reference.
func Ident(name string) Expr { return ident{name: name} }

// Col is a table-qualified identifier reference.
func Col(table, name string) Expr { return ident{table: table, name: name} }

func (e ident) render(w *bytes.Buffer, t dialect.Tag) {
	if e.table != "" {
		w.WriteString(t.QuoteIdent(e.table))
		w.WriteByte('.')
	}
	if e.name == "*" {
		w.WriteByte('*')
		return
	}
	w.WriteString(t.QuoteIdent(e.name))
}

type lit struct {
	val interface{}
}

// Lit is a literal value. The value is escaped by kind at render time.
func Lit(v interface{}) Expr { return lit{val: v} }

// Str, Int, Float, Bool and Null are shorthand literal constructors.
func Str(s string) Expr    { return lit{val: s} }
func Int(i int) Expr       { return lit{val: i} }
func Float(f float64) Expr { return lit{val: f} }
func Bool(b bool) Expr     { return lit{val: b} }
func Null() Expr           { return lit{val: nil} }

func (e lit) render(w *bytes.Buffer, t dialect.Tag) {
	w.WriteString(t.QuoteLiteral(e.val))
}

// Value extracts the literal value of an expression, reporting whether the
// expression is statically a literal. Argument validators use this to
// branch on static shape without evaluating anything.
func Value(e Expr) (interface{}, bool) {
	l, ok := e.(lit)
	if !ok {
		return nil, false
	}
	return l.val, true
}

type raw struct {
	sql string
}

// Raw is pre-escaped SQL text inserted verbatim. Callers own its safety.
func Raw(sql string) Expr { return raw{sql: sql} }

func (e raw) render(w *bytes.Buffer, _ dialect.Tag) {
	w.WriteString(e.sql)
}

type call struct {
	name string
	args []Expr
}

// Func is a function application: NAME(arg, ...).
func Func(name string, args ...Expr) Expr { return call{name: name, args: args} }

func (e call) render(w *bytes.Buffer, t dialect.Tag) {
	w.WriteString(e.name)
	w.WriteByte('(')
	for i, a := range e.args {
		if i != 0 {
			w.WriteString(`, `)
		}
		a.render(w, t)
	}
	w.WriteByte(')')
}

type infix struct {
	op   string
	l, r Expr
}

// Infix is a binary operator application rendered as l OP r.
func Infix(op string, l, r Expr) Expr { return infix{op: op, l: l, r: r} }

func (e infix) render(w *bytes.Buffer, t dialect.Tag) {
	e.l.render(w, t)
	w.WriteByte(' ')
	w.WriteString(e.op)
	w.WriteByte(' ')
	e.r.render(w, t)
}

type prefix struct {
	op string
	x  Expr
}

// Prefix is a unary operator application rendered as OP x.
func Prefix(op string, x Expr) Expr { return prefix{op: op, x: x} }

func (e prefix) render(w *bytes.Buffer, t dialect.Tag) {
	w.WriteString(e.op)
	w.WriteByte(' ')
	e.x.render(w, t)
}

type paren struct {
	x Expr
}

// Paren wraps an expression in parentheses.
func Paren(x Expr) Expr { return paren{x: x} }

func (e paren) render(w *bytes.Buffer, t dialect.Tag) {
	w.WriteByte('(')
	e.x.render(w, t)
	w.WriteByte(')')
}

type cast struct {
	x   Expr
	typ string
}

// Cast renders CAST(x AS type). The type name is a keyword constant chosen
// by the rule table, not user data.
func Cast(x Expr, typ string) Expr { return cast{x: x, typ: typ} }

func (e cast) render(w *bytes.Buffer, t dialect.Tag) {
	w.WriteString(`CAST(`)
	e.x.render(w, t)
	w.WriteString(` AS `)
	w.WriteString(e.typ)
	w.WriteByte(')')
}

// Interval renders a dialect-native interval literal such as
// INTERVAL '2 month'. Period construction never falls back to instant
// subtraction, which would yield a different unit.
func Interval(n int, unit string) Expr {
	return raw{sql: `INTERVAL '` + strconv.Itoa(n) + ` ` + unit + `'`}
}

type caseWhen struct {
	cond, yes, no Expr
}

// CaseWhen renders CASE WHEN cond THEN yes ELSE no END.
func CaseWhen(cond, yes, no Expr) Expr { return caseWhen{cond: cond, yes: yes, no: no} }

func (e caseWhen) render(w *bytes.Buffer, t dialect.Tag) {
	w.WriteString(`CASE WHEN `)
	e.cond.render(w, t)
	w.WriteString(` THEN `)
	e.yes.render(w, t)
	w.WriteString(` ELSE `)
	e.no.render(w, t)
	w.WriteString(` END`)
}

type extract struct {
	field string
	x     Expr
}

// Extract renders EXTRACT(FIELD FROM x). The field is a keyword constant
// chosen by the rule table.
func Extract(field string, x Expr) Expr { return extract{field: field, x: x} }

func (e extract) render(w *bytes.Buffer, t dialect.Tag) {
	w.WriteString(`EXTRACT(`)
	w.WriteString(e.field)
	w.WriteString(` FROM `)
	e.x.render(w, t)
	w.WriteByte(')')
}

type withinGroup struct {
	fn    Expr
	order Expr
}

// WithinGroup renders fn WITHIN GROUP (ORDER BY order), the ordered-set
// aggregate form.
func WithinGroup(fn, order Expr) Expr { return withinGroup{fn: fn, order: order} }

func (e withinGroup) render(w *bytes.Buffer, t dialect.Tag) {
	e.fn.render(w, t)
	w.WriteString(` WITHIN GROUP (ORDER BY `)
	e.order.render(w, t)
	w.WriteByte(')')
}

// SortKey is one ORDER BY element of a window specification.
type SortKey struct {
	X    Expr
	Desc bool
}

// Window is an OVER specification attached to a windowed function call.
type Window struct {
	Partition []Expr
	Order     []SortKey
	Frame     string // e.g. "ROWS UNBOUNDED PRECEDING"; empty for none
}

type over struct {
	fn  Expr
	win Window
}

// Over renders fn OVER (PARTITION BY ... ORDER BY ... frame).
func Over(fn Expr, win Window) Expr { return over{fn: fn, win: win} }

func (e over) render(w *bytes.Buffer, t dialect.Tag) {
	e.fn.render(w, t)
	w.WriteString(` OVER (`)
	sep := false
	if len(e.win.Partition) > 0 {
		w.WriteString(`PARTITION BY `)
		for i, p := range e.win.Partition {
			if i != 0 {
				w.WriteString(`, `)
			}
			p.render(w, t)
		}
		sep = true
	}
	if len(e.win.Order) > 0 {
		if sep {
			w.WriteByte(' ')
		}
		w.WriteString(`ORDER BY `)
		for i, k := range e.win.Order {
			if i != 0 {
				w.WriteString(`, `)
			}
			k.X.render(w, t)
			if k.Desc {
				w.WriteString(` DESC`)
			}
		}
		sep = true
	}
	if e.win.Frame != "" {
		if sep {
			w.WriteByte(' ')
		}
		w.WriteString(e.win.Frame)
	}
	w.WriteByte(')')
}
