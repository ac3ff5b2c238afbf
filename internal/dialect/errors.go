package dialect

import (
	"fmt"
	"strings"
)

// All translation failures are deterministic: the same input reproduces the
// same error, so none of them are retried.

// UnknownFunctionError is returned when a function name is absent from the
// full registry chain of the evaluation context.
type UnknownFunctionError struct {
	Name    string
	Context string // "scalar", "aggregate" or "window"
	Dialect Tag
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("don't know how to translate %s() in %s context on %s",
		e.Name, e.Context, e.Dialect)
}

// UnsupportedArgumentError is returned when a rule argument falls outside
// the set the dialect supports.
type UnsupportedArgumentError struct {
	Function string
	Param    string
	Allowed  []string
	Dialect  Tag
}

func (e *UnsupportedArgumentError) Error() string {
	msg := fmt.Sprintf("%s: argument %q is not supported on %s",
		e.Function, e.Param, e.Dialect)
	if len(e.Allowed) > 0 {
		msg += fmt.Sprintf(" (allowed: %s)", strings.Join(e.Allowed, ", "))
	}
	return msg
}

// InvalidArgumentError is returned when a structural parameter, such as a
// statement build method or an explain format, is outside its enumerated
// allow-list.
type InvalidArgumentError struct {
	Param   string
	Value   string
	Allowed []string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s must be one of %s, got %q",
		e.Param, strings.Join(e.Allowed, ", "), e.Value)
}

// TranslationAmbiguityError is returned when a function is supported in one
// evaluation context but intentionally unsupported in another. It fails
// loudly rather than approximating.
type TranslationAmbiguityError struct {
	Function string
	Context  string
	Dialect  Tag
}

func (e *TranslationAmbiguityError) Error() string {
	return fmt.Sprintf("%s() is not supported in %s context on %s",
		e.Function, e.Context, e.Dialect)
}
