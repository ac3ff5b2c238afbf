package trans

import (
	"strings"

	"github.com/liudvikasakelis/dbplyr/internal/dialect"
	"github.com/liudvikasakelis/dbplyr/internal/exp"
)

// Postgres registries: selective overrides of the base tables. Built once,
// read-only afterwards.
var (
	PostgresScalar    = newPostgresScalar()
	PostgresAggregate = newPostgresAggregate()
	PostgresWindow    = newPostgresWindow()
)

// Registries returns the three evaluation-context registries for a tag.
func Registries(t dialect.Tag) (scalar, aggregate, window *Registry) {
	switch t {
	case dialect.Postgres:
		return PostgresScalar, PostgresAggregate, PostgresWindow
	}
	return BaseScalar, BaseAggregate, BaseWindow
}

func newPostgresScalar() *Registry {
	r := NewRegistry("scalar", BaseScalar)

	// Bit operations.
	r.Register("bitwAnd", Infix("&"))
	r.Register("bitwOr", Infix("|"))
	r.Register("bitwXor", Infix("#"))
	r.Register("bitwNot", UnaryPrefix("~"))
	r.Register("bitwShiftL", Infix("<<"))
	r.Register("bitwShiftR", Infix(">>"))

	// Math. round casts to a fixed-precision numeric first so the call does
	// not hit the double-precision overload, which truncates differently.
	r.Register("round", Rule{
		MinArgs: 1, MaxArgs: 2,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			d, err := roundDigits(t, name, a)
			if err != nil {
				return nil, err
			}
			return exp.Func("round",
				exp.Cast(a.Pos[0], "numeric"), exp.Int(d)), nil
		},
	})
	r.Register("log", Rule{
		MinArgs: 1, MaxArgs: 2,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			if len(a.Pos) == 1 {
				return exp.Func("LN", a.Pos[0]), nil
			}
			return exp.Func("LOG",
				exp.Cast(a.Pos[1], "numeric"),
				exp.Cast(a.Pos[0], "numeric")), nil
		},
	})
	r.Register("log10", Prefix("LOG", 1))
	r.Register("log2", Rule{
		MinArgs: 1, MaxArgs: 1,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Func("LOG", exp.Int(2), exp.Cast(a.Pos[0], "numeric")), nil
		},
	})
	r.Register("cot", Prefix("COT", 1))

	// String functions.
	r.Register("paste", pasteRule(" "))
	r.Register("paste0", pasteRule(""))
	r.Register("str_c", pasteRule(""))
	r.Register("str_squish", Rule{
		MinArgs: 1, MaxArgs: 1,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Func("TRIM",
				exp.Func("REGEXP_REPLACE", a.Pos[0],
					exp.Str(`\s+`), exp.Str(" "), exp.Str("g"))), nil
		},
	})
	r.Register("str_replace", regexpReplace(false))
	r.Register("str_replace_all", regexpReplace(true))
	r.Register("grepl", Rule{
		MinArgs: 2, MaxArgs: 2,
		Build: pgGrepl,
	})
	r.Register("regexpr", Prefix("STRPOS", 2))
	r.Register("str_detect", patternRule(patDetect))
	r.Register("str_starts", patternRule(patStarts))
	r.Register("str_ends", patternRule(patEnds))

	// Date-time.
	r.Register("today", Rule{
		MinArgs: 0, MaxArgs: 0,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Raw("CURRENT_DATE"), nil
		},
	})
	r.Register("now", Rule{
		MinArgs: 0, MaxArgs: 0,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Raw("CURRENT_TIMESTAMP"), nil
		},
	})
	r.Register("year", extractRule("YEAR"))
	r.Register("month", extractRule("MONTH"))
	r.Register("mday", extractRule("DAY"))
	r.Register("day", extractRule("DAY"))
	r.Register("hour", extractRule("HOUR"))
	r.Register("minute", extractRule("MINUTE"))
	r.Register("second", extractRule("SECOND"))
	r.Register("yday", extractRule("DOY"))
	r.Register("isoweek", extractRule("WEEK"))
	r.Register("epoch", extractRule("EPOCH"))
	r.Register("wday", Rule{MinArgs: 1, MaxArgs: 1, Build: pgWday})
	r.Register("quarter", Rule{MinArgs: 1, MaxArgs: 1, Build: pgQuarter})
	r.Register("floor_date", Rule{MinArgs: 1, MaxArgs: 1, Build: pgFloorDate})
	r.Register("date_count_between", Rule{
		MinArgs: 2, MaxArgs: 2,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			if _, err := optString(t, name, a, "precision", "day", "day"); err != nil {
				return nil, err
			}
			return exp.Infix("-", a.Pos[1], a.Pos[0]), nil
		},
	})
	r.Register("difftime", Rule{
		MinArgs: 2, MaxArgs: 2,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			if _, ok := a.Options["tz"]; ok {
				return nil, &dialect.UnsupportedArgumentError{
					Function: name, Param: "tz", Dialect: t,
				}
			}
			if _, err := optString(t, name, a, "units", "days", "days"); err != nil {
				return nil, err
			}
			// time1 - time2, mirroring the host-language argument order.
			return exp.Paren(exp.Infix("-",
				exp.Cast(a.Pos[0], "date"), exp.Cast(a.Pos[1], "date"))), nil
		},
	})

	// Period constructors emit dialect-native interval literals, never
	// instant subtraction.
	for fn, unit := range map[string]string{
		"seconds": "second",
		"minutes": "minute",
		"hours":   "hour",
		"days":    "day",
		"weeks":   "week",
		"months":  "month",
		"years":   "year",
	} {
		r.Register(fn, periodRule(unit))
	}

	return r
}

func extractRule(field string) Rule {
	return Rule{
		MinArgs: 1, MaxArgs: 1,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.Extract(field, a.Pos[0]), nil
		},
	}
}

func periodRule(unit string) Rule {
	return Rule{
		MinArgs: 1, MaxArgs: 1,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			v, lit := exp.Value(a.Pos[0])
			n, ok := whole(v)
			if !lit || !ok {
				return nil, &dialect.UnsupportedArgumentError{
					Function: name, Param: "x",
					Allowed: []string{"a whole number"}, Dialect: t,
				}
			}
			return exp.Interval(n, unit), nil
		},
	}
}

func pasteRule(sep string) Rule {
	return Rule{
		MinArgs: 1, MaxArgs: -1,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			s, err := sepOption(t, name, a, sep)
			if err != nil {
				return nil, err
			}
			args := append([]exp.Expr{exp.Str(s)}, a.Pos...)
			return exp.Func("CONCAT_WS", args...), nil
		},
	}
}

func sepOption(t dialect.Tag, fn string, a Args, def string) (string, error) {
	e, ok := a.Options["sep"]
	if !ok {
		return def, nil
	}
	v, lit := exp.Value(e)
	s, isStr := v.(string)
	if !lit || !isStr {
		return "", &dialect.UnsupportedArgumentError{
			Function: fn, Param: "sep",
			Allowed: []string{"a string literal"}, Dialect: t,
		}
	}
	return s, nil
}

func regexpReplace(all bool) Rule {
	return Rule{
		MinArgs: 3, MaxArgs: 3,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			if all {
				return exp.Func("REGEXP_REPLACE",
					a.Pos[0], a.Pos[1], a.Pos[2], exp.Str("g")), nil
			}
			return exp.Func("REGEXP_REPLACE", a.Pos[0], a.Pos[1], a.Pos[2]), nil
		},
	}
}

// pgGrepl maps grepl to the native regex operators. The perl, fixed and
// useBytes engines have no Postgres equivalent and are refused by value.
func pgGrepl(t dialect.Tag, name string, a Args) (exp.Expr, error) {
	if err := refuseOn(t, name, a, "perl", "fixed", "useBytes"); err != nil {
		return nil, err
	}
	ic, err := optBool(t, name, a, "ignore.case", false)
	if err != nil {
		return nil, err
	}
	op := "~"
	if ic {
		op = "~*"
	}
	// grepl(pattern, x): the subject is the second argument.
	return exp.Infix(op, a.Pos[1], a.Pos[0]), nil
}

type patternKind int

const (
	patDetect patternKind = iota
	patStarts
	patEnds
)

// regexMeta is the set of characters that make a pattern non-fixed; the
// LIKE wildcards are included so a fixed pattern can embed into a LIKE
// template without further escaping.
const regexMeta = `\^$.|?*+()[]{}%_`

// fixedPattern reports whether the pattern argument is statically a fixed
// literal string. The decision depends only on the argument's shape: a
// column reference or computed expression is never fixed, whatever its
// runtime value.
func fixedPattern(e exp.Expr) (string, bool) {
	v, lit := exp.Value(e)
	if !lit {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.ContainsAny(s, regexMeta) {
		return "", false
	}
	return s, true
}

// patternRule branches on the static shape of the pattern: fixed literals
// take the cheaper position/LIKE template, everything else the native
// regex operator.
func patternRule(kind patternKind) Rule {
	return Rule{
		MinArgs: 2, MaxArgs: 2,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			negate, err := optBool(t, name, a, "negate", false)
			if err != nil {
				return nil, err
			}
			x, pat := a.Pos[0], a.Pos[1]
			var out exp.Expr
			if s, ok := fixedPattern(pat); ok {
				switch kind {
				case patDetect:
					out = exp.Infix(">", exp.Func("STRPOS", x, exp.Str(s)), exp.Int(0))
				case patStarts:
					out = exp.Infix("LIKE", x, exp.Str(s+"%"))
				case patEnds:
					out = exp.Infix("LIKE", x, exp.Str("%"+s))
				}
			} else {
				switch kind {
				case patDetect:
					out = exp.Infix("~", x, pat)
				case patStarts:
					out = exp.Infix("~", x,
						exp.Paren(exp.Infix("||", exp.Str("^"), pat)))
				case patEnds:
					out = exp.Infix("~", x,
						exp.Paren(exp.Infix("||", pat, exp.Str("$"))))
				}
			}
			if negate {
				out = exp.Prefix("NOT", exp.Paren(out))
			}
			return out, nil
		},
	}
}

func pgWday(t dialect.Tag, name string, a Args) (exp.Expr, error) {
	label, err := optBool(t, name, a, "label", false)
	if err != nil {
		return nil, err
	}
	abbr, err := optBool(t, name, a, "abbr", true)
	if err != nil {
		return nil, err
	}
	weekStart, err := optWhole(t, name, a, "week_start", 7)
	if err != nil {
		return nil, err
	}
	x := a.Pos[0]
	switch {
	case label && abbr:
		return exp.Func("SUBSTR",
			exp.Func("TO_CHAR", x, exp.Str("Day")), exp.Int(1), exp.Int(3)), nil
	case label:
		return exp.Func("TO_CHAR", x, exp.Str("Day")), nil
	case weekStart == 1:
		return exp.Extract("ISODOW", x), nil
	case weekStart == 7:
		return exp.Infix("+", exp.Extract("DOW", x), exp.Int(1)), nil
	}
	return nil, &dialect.UnsupportedArgumentError{
		Function: name, Param: "week_start",
		Allowed: []string{"1", "7"}, Dialect: t,
	}
}

func pgQuarter(t dialect.Tag, name string, a Args) (exp.Expr, error) {
	withYear, err := optBool(t, name, a, "with_year", false)
	if err != nil {
		return nil, err
	}
	fiscal, err := optWhole(t, name, a, "fiscal_start", 1)
	if err != nil {
		return nil, err
	}
	if fiscal != 1 {
		return nil, &dialect.UnsupportedArgumentError{
			Function: name, Param: "fiscal_start",
			Allowed: []string{"1"}, Dialect: t,
		}
	}
	x := a.Pos[0]
	if withYear {
		return exp.Paren(exp.Infix("||",
			exp.Infix("||", exp.Extract("YEAR", x), exp.Str(".")),
			exp.Extract("QUARTER", x))), nil
	}
	return exp.Extract("QUARTER", x), nil
}

func pgFloorDate(t dialect.Tag, name string, a Args) (exp.Expr, error) {
	unit, err := optString(t, name, a, "unit", "second",
		"second", "minute", "hour", "day", "week", "month", "quarter", "year")
	if err != nil {
		return nil, err
	}
	return exp.Func("DATE_TRUNC", exp.Str(unit), a.Pos[0]), nil
}

func newPostgresAggregate() *Registry {
	r := NewRegistry("aggregate", BaseAggregate)
	r.Register("cor", Agg2("CORR"))
	r.Register("cov", Agg2("COVAR_SAMP"))
	r.Register("sd", Agg("STDDEV_SAMP"))
	r.Register("var", Agg("VAR_SAMP"))
	r.Register("all", Agg("BOOL_AND"))
	r.Register("any", Agg("BOOL_OR"))
	r.Register("str_flatten", Rule{
		MinArgs: 1, MaxArgs: 1,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			sep, err := collapseOption(t, name, a)
			if err != nil {
				return nil, err
			}
			return exp.Func("STRING_AGG", a.Pos[0], exp.Str(sep)), nil
		},
	})
	r.Register("median", Rule{
		MinArgs: 1, MaxArgs: 1,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.WithinGroup(
				exp.Func("PERCENTILE_CONT", exp.Float(0.5)), a.Pos[0]), nil
		},
	})
	r.Register("quantile", Rule{
		MinArgs: 2, MaxArgs: 2,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			return exp.WithinGroup(
				exp.Func("PERCENTILE_CONT", a.Pos[1]), a.Pos[0]), nil
		},
	})
	return r
}

func collapseOption(t dialect.Tag, fn string, a Args) (string, error) {
	e, ok := a.Options["collapse"]
	if !ok {
		return "", nil
	}
	v, lit := exp.Value(e)
	s, isStr := v.(string)
	if !lit || !isStr {
		return "", &dialect.UnsupportedArgumentError{
			Function: fn, Param: "collapse",
			Allowed: []string{"a string literal"}, Dialect: t,
		}
	}
	return s, nil
}

func newPostgresWindow() *Registry {
	r := NewRegistry("window", BaseWindow)
	r.Register("sd", WinAgg("STDDEV_SAMP"))
	r.Register("var", WinAgg("VAR_SAMP"))
	r.Register("all", WinAgg("BOOL_AND"))
	r.Register("any", WinAgg("BOOL_OR"))
	r.Register("str_flatten", Rule{
		MinArgs: 1, MaxArgs: 1,
		Build: func(t dialect.Tag, name string, a Args) (exp.Expr, error) {
			sep, err := collapseOption(t, name, a)
			if err != nil {
				return nil, err
			}
			return exp.Over(
				exp.Func("STRING_AGG", a.Pos[0], exp.Str(sep)), a.Win), nil
		},
	})
	// Pair statistics are deliberately unsupported over windows: failing
	// loudly beats a silent approximation.
	r.Register("cor", Refuse("window"))
	r.Register("cov", Refuse("window"))
	return r
}
