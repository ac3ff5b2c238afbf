// Package dbplyr translates abstract data-manipulation function calls
// into SQL text for the Postgres dialect family. It is a one-way,
// write-only compiler: it emits statements and fragments but never parses
// SQL, executes queries or manages transactions.
package dbplyr

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/liudvikasakelis/dbplyr/internal/dialect"
	"github.com/liudvikasakelis/dbplyr/internal/exp"
	"github.com/liudvikasakelis/dbplyr/internal/stmt"
	"github.com/liudvikasakelis/dbplyr/internal/trans"
)

const colTypeCacheSize = 128

// Config configures a Compiler.
type Config struct {
	// DBType selects the dialect; "postgres" when empty.
	DBType string

	// Logger receives compiled statements at debug level. Nop when nil.
	Logger *zap.Logger
}

// Compiler is the per-dialect translation engine. Its registries and
// capability descriptor are resolved once at construction and never
// mutated, so a Compiler is safe for concurrent use.
type Compiler struct {
	tag       dialect.Tag
	scalar    *trans.Registry
	aggregate *trans.Registry
	window    *trans.Registry
	colTypes  *lru.Cache[string, map[string]string]
	log       *zap.Logger
}

// NewCompiler builds a Compiler for the configured dialect.
func NewCompiler(conf Config) (*Compiler, error) {
	tag, err := dialect.FromString(conf.DBType)
	if err != nil {
		return nil, err
	}
	logger := conf.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.New[string, map[string]string](colTypeCacheSize)
	if err != nil {
		return nil, err
	}
	scalar, aggregate, window := trans.Registries(tag)
	return &Compiler{
		tag:       tag,
		scalar:    scalar,
		aggregate: aggregate,
		window:    window,
		colTypes:  cache,
		log:       logger,
	}, nil
}

// Dialect reports the dialect name the compiler targets.
func (c *Compiler) Dialect() string { return c.tag.String() }

// Capabilities returns the dialect's structural feature flags.
func (c *Compiler) Capabilities() Capabilities { return c.tag.Capabilities() }

// Call is one abstract function application: positional arguments plus
// named literal options, and a window specification for window context.
type Call struct {
	Name    string
	Args    []Expr
	Options map[string]Expr
	Window  Window
}

// Scalar translates a call in scalar context.
func (c *Compiler) Scalar(call Call) (string, error) {
	return c.translate(c.scalar, call)
}

// Aggregate translates a call in aggregate (GROUP BY) context.
func (c *Compiler) Aggregate(call Call) (string, error) {
	return c.translate(c.aggregate, call)
}

// Windowed translates a call in window (OVER) context.
func (c *Compiler) Windowed(call Call) (string, error) {
	return c.translate(c.window, call)
}

func (c *Compiler) translate(r *trans.Registry, call Call) (string, error) {
	e, err := trans.Build(c.tag, r, call.Name, trans.Args{
		Pos:     call.Args,
		Options: call.Options,
		Win:     call.Window,
	})
	if err != nil {
		return "", err
	}
	out := exp.SQL(e, c.tag)
	c.log.Debug("translated expression",
		zap.String("dialect", c.tag.String()),
		zap.String("context", r.Context()),
		zap.String("function", call.Name),
		zap.String("sql", out))
	return out, nil
}

// Names lists every function resolvable in the given evaluation context
// ("scalar", "aggregate" or "window").
func (c *Compiler) Names(context string) []string {
	switch context {
	case "aggregate":
		return c.aggregate.Names()
	case "window":
		return c.window.Names()
	default:
		return c.scalar.Names()
	}
}

// Insert renders an insert-with-conflict statement.
func (c *Compiler) Insert(q InsertQuery) (string, error) {
	out, err := q.SQL(c.tag)
	if err != nil {
		return "", err
	}
	c.log.Debug("composed statement",
		zap.String("dialect", c.tag.String()),
		zap.String("kind", "insert"),
		zap.String("sql", out))
	return out, nil
}

// Upsert renders an upsert-with-conflict statement.
func (c *Compiler) Upsert(q UpsertQuery) (string, error) {
	out, err := q.SQL(c.tag)
	if err != nil {
		return "", err
	}
	c.log.Debug("composed statement",
		zap.String("dialect", c.tag.String()),
		zap.String("kind", "upsert"),
		zap.String("sql", out))
	return out, nil
}

// Explain wraps a rendered query in the dialect's EXPLAIN form.
func (c *Compiler) Explain(query, format string) (string, error) {
	return stmt.Explain(c.tag, query, format)
}
