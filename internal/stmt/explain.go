package stmt

import (
	"strings"

	"github.com/liudvikasakelis/dbplyr/internal/dialect"
)

// Explain wraps a rendered query in the dialect's EXPLAIN form. The format
// must belong to the dialect's enumerated list; text is the default and is
// emitted without a FORMAT option.
func Explain(t dialect.Tag, query, format string) (string, error) {
	formats := t.Capabilities().ExplainFormats
	if format == "" {
		format = formats[0]
	}
	found := false
	for _, f := range formats {
		if f == format {
			found = true
			break
		}
	}
	if !found {
		return "", &dialect.InvalidArgumentError{
			Param: "format", Value: format, Allowed: formats,
		}
	}
	if format == "text" {
		return "EXPLAIN " + query, nil
	}
	return "EXPLAIN (FORMAT " + strings.ToUpper(format) + ") " + query, nil
}
