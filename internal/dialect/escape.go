package dialect

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"
)

// Escaping is delegated to the driver's quoting routines; nothing in this
// package hand-rolls string escaping.

// QuoteIdent escapes a single identifier for the dialect.
func (t Tag) QuoteIdent(s string) string {
	return pq.QuoteIdentifier(s)
}

// QuoteString escapes a string literal.
func (t Tag) QuoteString(s string) string {
	return pq.QuoteLiteral(s)
}

// QuoteLiteral escapes an arbitrary literal value by kind. Supported kinds
// are strings, booleans, whole and floating numbers, times and nil.
func (t Tag) QuoteLiteral(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return pq.QuoteLiteral(x.UTC().Format("2006-01-02 15:04:05.999999")) + "::timestamp"
	case string:
		return pq.QuoteLiteral(x)
	}
	return pq.QuoteLiteral(fmt.Sprintf("%v", v))
}
