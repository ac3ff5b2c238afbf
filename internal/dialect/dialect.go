// Package dialect holds the per-dialect structural profile consulted by the
// translation and statement-composition layers: the dialect tag, its
// capability flags and its identifier/literal escaping services.
package dialect

import "fmt"

// Tag identifies a target SQL dialect. Dispatch is keyed on this enumerated
// tag, never on the runtime type of a connection object.
type Tag int

const (
	// Postgres covers the Postgres wire-compatible family.
	Postgres Tag = iota
)

func (t Tag) String() string {
	switch t {
	case Postgres:
		return "postgres"
	}
	return fmt.Sprintf("dialect(%d)", int(t))
}

// FromString maps a configuration string to a Tag.
func FromString(s string) (Tag, error) {
	switch s {
	case "", "postgres", "postgresql":
		return Postgres, nil
	}
	return 0, fmt.Errorf("unknown dialect: %q", s)
}

// Capabilities is the read-only structural profile of a dialect. Instances
// are resolved once from the tag and never mutated.
type Capabilities struct {
	// WindowClause reports whether named WINDOW clauses may be attached
	// to a SELECT.
	WindowClause bool

	// AliasWithAS reports whether table aliases take the AS keyword.
	AliasWithAS bool

	// InsertMethods lists the accepted build methods for
	// insert-with-conflict statements, first entry is the default.
	InsertMethods []string

	// UpsertMethods lists the accepted build methods for
	// upsert-with-conflict statements, first entry is the default.
	UpsertMethods []string

	// ExplainFormats lists the accepted EXPLAIN output formats.
	ExplainFormats []string
}

var capTable = map[Tag]Capabilities{
	Postgres: {
		WindowClause:   true,
		AliasWithAS:    true,
		InsertMethods:  []string{"on_conflict", "where_not_exists"},
		UpsertMethods:  []string{"on_conflict", "cte_update"},
		ExplainFormats: []string{"text", "json", "yaml", "xml"},
	},
}

// Capabilities returns the capability descriptor for the tag.
func (t Tag) Capabilities() Capabilities {
	return capTable[t]
}
