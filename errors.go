package dbplyr

import "github.com/liudvikasakelis/dbplyr/internal/dialect"

// Translation failures are deterministic: retrying reproduces the same
// error, so callers should surface them, not retry.

// UnknownFunctionError: the name is absent from the registry chain of the
// chosen evaluation context.
type UnknownFunctionError = dialect.UnknownFunctionError

// UnsupportedArgumentError: an argument value lies outside the dialect's
// supported set; it names the parameter, the allowed values and the
// dialect.
type UnsupportedArgumentError = dialect.UnsupportedArgumentError

// InvalidArgumentError: a structural parameter (statement build method,
// explain format, conflict strategy) is outside its enumerated allow-list.
type InvalidArgumentError = dialect.InvalidArgumentError

// TranslationAmbiguityError: the function exists in another evaluation
// context but is intentionally unsupported in the requested one.
type TranslationAmbiguityError = dialect.TranslationAmbiguityError
