package dbplyr

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
)

// Open builds a database handle from a Postgres connection string. The
// caller owns the handle's lifecycle; the compiler only borrows it for
// column-type probes.
func Open(connString string) (*sql.DB, error) {
	config, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "parsing connection string")
	}
	return stdlib.OpenDB(*config), nil
}

// ColumnTypes discovers the dialect type of every column of a table by
// issuing a zero-row probe query and reading result metadata. Results are
// cached per table. The result set is released on every exit path.
func (c *Compiler) ColumnTypes(ctx context.Context, db *sql.DB, table Table) (map[string]string, error) {
	key := table.Schema + "." + table.Name
	if types, ok := c.colTypes.Get(key); ok {
		return types, nil
	}

	q := `SELECT * FROM ` + c.quoteTable(table) + ` LIMIT 0`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrapf(err, "probing columns of %s", table.Name)
	}
	defer rows.Close()

	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.Wrapf(err, "reading column metadata of %s", table.Name)
	}
	types := make(map[string]string, len(cols))
	for _, col := range cols {
		types[col.Name()] = col.DatabaseTypeName()
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "probing columns of %s", table.Name)
	}

	c.colTypes.Add(key, types)
	return types, nil
}

func (c *Compiler) quoteTable(table Table) string {
	if table.Schema != "" {
		return c.tag.QuoteIdent(table.Schema) + "." + c.tag.QuoteIdent(table.Name)
	}
	return c.tag.QuoteIdent(table.Name)
}
