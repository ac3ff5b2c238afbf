// Package trans maps abstract function calls to dialect-specific SQL
// expression fragments. Rules live in three independent registries per
// dialect, one for each evaluation context (scalar, aggregate, window),
// since the same name may need a different template depending on where it
// is computed.
package trans

import (
	"fmt"
	"math"

	"github.com/liudvikasakelis/dbplyr/internal/dialect"
	"github.com/liudvikasakelis/dbplyr/internal/exp"
)

// Args carries the arguments of one function call: positional
// sub-expressions, named option values, and the window specification when
// building in window context.
type Args struct {
	Pos     []exp.Expr
	Options map[string]exp.Expr
	Win     exp.Window
}

func (a Args) option(name string) (exp.Expr, bool) {
	e, ok := a.Options[name]
	return e, ok
}

// Rule is one translation entry: argument bounds plus a template function
// producing the output fragment. Rules are immutable once registered.
type Rule struct {
	MinArgs int
	MaxArgs int // -1 for variadic
	Build   func(t dialect.Tag, name string, a Args) (exp.Expr, error)
}

// Build resolves name in the registry chain, validates arguments and
// applies the rule template.
func Build(t dialect.Tag, r *Registry, name string, a Args) (exp.Expr, error) {
	rule, err := r.Resolve(t, name)
	if err != nil {
		return nil, err
	}
	if len(a.Pos) < rule.MinArgs {
		return nil, fmt.Errorf("%s: expected at least %d arguments, got %d",
			name, rule.MinArgs, len(a.Pos))
	}
	if rule.MaxArgs >= 0 && len(a.Pos) > rule.MaxArgs {
		return nil, fmt.Errorf("%s: expected at most %d arguments, got %d",
			name, rule.MaxArgs, len(a.Pos))
	}
	return rule.Build(t, name, a)
}

// optBool reads a named option that must be a literal boolean.
func optBool(t dialect.Tag, fn string, a Args, name string, def bool) (bool, error) {
	e, ok := a.option(name)
	if !ok {
		return def, nil
	}
	v, lit := exp.Value(e)
	b, isBool := v.(bool)
	if !lit || !isBool {
		return false, &dialect.UnsupportedArgumentError{
			Function: fn, Param: name, Allowed: []string{"TRUE", "FALSE"}, Dialect: t,
		}
	}
	return b, nil
}

// whole coerces a literal numeric value to a whole number.
func whole(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int(x), true
	}
	return 0, false
}

// optWhole reads a named option that must coerce to a whole number.
func optWhole(t dialect.Tag, fn string, a Args, name string, def int) (int, error) {
	e, ok := a.option(name)
	if !ok {
		return def, nil
	}
	v, lit := exp.Value(e)
	if !lit {
		return 0, &dialect.UnsupportedArgumentError{
			Function: fn, Param: name, Allowed: []string{"a whole number"}, Dialect: t,
		}
	}
	n, ok := whole(v)
	if !ok {
		return 0, &dialect.UnsupportedArgumentError{
			Function: fn, Param: name, Allowed: []string{"a whole number"}, Dialect: t,
		}
	}
	return n, nil
}

// optString reads a named option restricted to a fixed allow-list.
func optString(t dialect.Tag, fn string, a Args, name, def string, allowed ...string) (string, error) {
	e, ok := a.option(name)
	if !ok {
		return def, nil
	}
	v, lit := exp.Value(e)
	s, isStr := v.(string)
	if lit && isStr {
		for _, al := range allowed {
			if s == al {
				return s, nil
			}
		}
	}
	return "", &dialect.UnsupportedArgumentError{
		Function: fn, Param: name, Allowed: allowed, Dialect: t,
	}
}

// refuseOn rejects option values other than literal false. Used for engine
// switches the dialect cannot honor.
func refuseOn(t dialect.Tag, fn string, a Args, names ...string) error {
	for _, name := range names {
		e, ok := a.option(name)
		if !ok {
			continue
		}
		v, lit := exp.Value(e)
		if b, isBool := v.(bool); lit && isBool && !b {
			continue
		}
		return &dialect.UnsupportedArgumentError{
			Function: fn, Param: name, Allowed: []string{"FALSE"}, Dialect: t,
		}
	}
	return nil
}

// Prefix builds NAME(arg, ...) with a fixed argument count.
func Prefix(sqlName string, n int) Rule {
	return Rule{
		MinArgs: n,
		MaxArgs: n,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Func(sqlName, a.Pos...), nil
		},
	}
}

// PrefixRange builds NAME(arg, ...) with optional trailing arguments.
func PrefixRange(sqlName string, min, max int) Rule {
	return Rule{
		MinArgs: min,
		MaxArgs: max,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Func(sqlName, a.Pos...), nil
		},
	}
}

// Variadic builds NAME(arg, ...) over any number of arguments.
func Variadic(sqlName string) Rule {
	return Rule{
		MinArgs: 1,
		MaxArgs: -1,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Func(sqlName, a.Pos...), nil
		},
	}
}

// Infix builds l OP r.
func Infix(op string) Rule {
	return Rule{
		MinArgs: 2,
		MaxArgs: 2,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Infix(op, a.Pos[0], a.Pos[1]), nil
		},
	}
}

// UnaryPrefix builds OP x.
func UnaryPrefix(op string) Rule {
	return Rule{
		MinArgs: 1,
		MaxArgs: 1,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Prefix(op, exp.Paren(a.Pos[0])), nil
		},
	}
}

// Agg builds a one-argument aggregate call.
func Agg(sqlName string) Rule {
	return Prefix(sqlName, 1)
}

// Agg2 builds a two-argument aggregate call.
func Agg2(sqlName string) Rule {
	return Prefix(sqlName, 2)
}

// WinAgg builds NAME(x) OVER (...) in window context.
func WinAgg(sqlName string) Rule {
	return Rule{
		MinArgs: 1,
		MaxArgs: 1,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Over(exp.Func(sqlName, a.Pos[0]), a.Win), nil
		},
	}
}

// WinCumulative builds NAME(x) OVER (... ROWS UNBOUNDED PRECEDING).
func WinCumulative(sqlName string) Rule {
	return Rule{
		MinArgs: 1,
		MaxArgs: 1,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			win := a.Win
			win.Frame = "ROWS UNBOUNDED PRECEDING"
			return exp.Over(exp.Func(sqlName, a.Pos[0]), win), nil
		},
	}
}

// WinRank builds a zero-argument ranking call over the window.
func WinRank(sqlName string) Rule {
	return Rule{
		MinArgs: 0,
		MaxArgs: 0,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Over(exp.Func(sqlName), a.Win), nil
		},
	}
}

// Refuse marks a name as intentionally unsupported in this context. The
// aggregate form may exist while the window form fails loudly.
func Refuse(context string) Rule {
	return Rule{
		MinArgs: 0,
		MaxArgs: -1,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return nil, &dialect.TranslationAmbiguityError{
				Function: name, Context: context, Dialect: t,
			}
		},
	}
}
