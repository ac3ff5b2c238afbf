package trans

import (
	"github.com/liudvikasakelis/dbplyr/internal/dialect"
	"github.com/liudvikasakelis/dbplyr/internal/exp"
)

// The base registries hold the dialect-independent translation tables a
// dialect extends selectively. They are built once at package
// initialization and are read-only afterwards.
var (
	BaseScalar    = newBaseScalar()
	BaseAggregate = newBaseAggregate()
	BaseWindow    = newBaseWindow()
)

func newBaseScalar() *Registry {
	r := NewRegistry("scalar", nil)

	// Arithmetic and comparison operators.
	r.Register("+", Infix("+"))
	r.Register("-", Infix("-"))
	r.Register("*", Infix("*"))
	r.Register("/", Infix("/"))
	r.Register("%%", Infix("%"))
	r.Register("^", Infix("^"))
	r.Register("==", Infix("="))
	r.Register("!=", Infix("<>"))
	r.Register("<", Infix("<"))
	r.Register("<=", Infix("<="))
	r.Register(">", Infix(">"))
	r.Register(">=", Infix(">="))

	// Logical operators.
	r.Register("&", Infix("AND"))
	r.Register("|", Infix("OR"))
	r.Register("!", UnaryPrefix("NOT"))

	r.Register("is.na", Rule{
		MinArgs: 1, MaxArgs: 1,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Paren(exp.Infix("IS", a.Pos[0], exp.Raw("NULL"))), nil
		},
	})
	r.Register("between", Rule{
		MinArgs: 3, MaxArgs: 3,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Infix("BETWEEN", a.Pos[0],
				exp.Infix("AND", a.Pos[1], a.Pos[2])), nil
		},
	})
	r.Register("ifelse", caseWhen())
	r.Register("if_else", caseWhen())

	// Math.
	r.Register("abs", Prefix("ABS", 1))
	r.Register("ceiling", Prefix("CEIL", 1))
	r.Register("floor", Prefix("FLOOR", 1))
	r.Register("exp", Prefix("EXP", 1))
	r.Register("sqrt", Prefix("SQRT", 1))
	r.Register("sign", Prefix("SIGN", 1))
	r.Register("round", Rule{
		MinArgs: 1, MaxArgs: 2,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			d, err := roundDigits(t, name, a)
			if err != nil {
				return nil, err
			}
			return exp.Func("ROUND", a.Pos[0], exp.Int(d)), nil
		},
	})

	// Strings.
	r.Register("toupper", Prefix("UPPER", 1))
	r.Register("tolower", Prefix("LOWER", 1))
	r.Register("nchar", Prefix("LENGTH", 1))
	r.Register("trimws", Prefix("TRIM", 1))
	r.Register("substr", PrefixRange("SUBSTR", 2, 3))

	r.Register("coalesce", Variadic("COALESCE"))
	r.Register("na_if", Prefix("NULLIF", 2))

	return r
}

// roundDigits pulls the digits argument of round(), positional or named,
// coercing it to a whole number.
func roundDigits(t dialect.Tag, name string, a Args) (int, error) {
	if len(a.Pos) > 1 {
		v, lit := exp.Value(a.Pos[1])
		if lit {
			if n, ok := whole(v); ok {
				return n, nil
			}
		}
		return 0, &dialect.UnsupportedArgumentError{
			Function: name, Param: "digits",
			Allowed: []string{"a whole number"}, Dialect: t,
		}
	}
	return optWhole(t, name, a, "digits", 0)
}

func caseWhen() Rule {
	return Rule{
		MinArgs: 3, MaxArgs: 3,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.CaseWhen(a.Pos[0], a.Pos[1], a.Pos[2]), nil
		},
	}
}

func newBaseAggregate() *Registry {
	r := NewRegistry("aggregate", nil)
	r.Register("sum", Agg("SUM"))
	r.Register("mean", Agg("AVG"))
	r.Register("min", Agg("MIN"))
	r.Register("max", Agg("MAX"))
	r.Register("n", Rule{
		MinArgs: 0, MaxArgs: 0,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Raw("COUNT(*)"), nil
		},
	})
	r.Register("n_distinct", Rule{
		MinArgs: 1, MaxArgs: 1,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Func("COUNT", exp.Prefix("DISTINCT", a.Pos[0])), nil
		},
	})
	return r
}

func newBaseWindow() *Registry {
	r := NewRegistry("window", nil)
	r.Register("row_number", WinRank("ROW_NUMBER"))
	r.Register("min_rank", WinRank("RANK"))
	r.Register("dense_rank", WinRank("DENSE_RANK"))
	r.Register("percent_rank", WinRank("PERCENT_RANK"))
	r.Register("cume_dist", WinRank("CUME_DIST"))
	r.Register("ntile", Rule{
		MinArgs: 1, MaxArgs: 1,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Over(exp.Func("NTILE", a.Pos[0]), a.Win), nil
		},
	})
	r.Register("lead", offsetRule("LEAD"))
	r.Register("lag", offsetRule("LAG"))
	r.Register("first", WinAgg("FIRST_VALUE"))
	r.Register("last", WinAgg("LAST_VALUE"))
	r.Register("nth", Rule{
		MinArgs: 2, MaxArgs: 2,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Over(exp.Func("NTH_VALUE", a.Pos[0], a.Pos[1]), a.Win), nil
		},
	})

	r.Register("sum", WinAgg("SUM"))
	r.Register("mean", WinAgg("AVG"))
	r.Register("min", WinAgg("MIN"))
	r.Register("max", WinAgg("MAX"))
	r.Register("cumsum", WinCumulative("SUM"))
	r.Register("cummean", WinCumulative("AVG"))
	r.Register("cummin", WinCumulative("MIN"))
	r.Register("cummax", WinCumulative("MAX"))
	return r
}

func offsetRule(sqlName string) Rule {
	return Rule{
		MinArgs: 1, MaxArgs: 2,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			n := 1
			if len(a.Pos) > 1 {
				v, lit := exp.Value(a.Pos[1])
				m, ok := whole(v)
				if !lit || !ok {
					return nil, &dialect.UnsupportedArgumentError{
						Function: name, Param: "n",
						Allowed: []string{"a whole number"}, Dialect: t,
					}
				}
				n = m
			}
			return exp.Over(exp.Func(sqlName, a.Pos[0], exp.Int(n)), a.Win), nil
		},
	}
}
