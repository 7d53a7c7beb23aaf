package errs

import (
	"errors"
)

var (
	// ErrEntryNotFound indicates that no known structural pattern located the entry function.
	ErrEntryNotFound = errors.New("entry function not found")
	// ErrEntryBodyMalformed indicates that the entry name was found but its definition could not be extracted.
	ErrEntryBodyMalformed = errors.New("entry function body malformed")
	// ErrHelperNotFound indicates that a called helper has no declaration in the script text.
	ErrHelperNotFound = errors.New("helper function not found")
	// ErrUnboundArgument indicates a call argument that is neither a literal nor a bound name.
	ErrUnboundArgument = errors.New("unbound argument")
	// ErrArityMismatch indicates that argument and parameter counts differ.
	ErrArityMismatch = errors.New("arity mismatch")
	// ErrUnsupportedConstruct indicates a statement or expression outside the supported grammar.
	ErrUnsupportedConstruct = errors.New("unsupported construct")
	// ErrMissingReturn indicates that a function body ended without a return statement.
	ErrMissingReturn = errors.New("missing return")
	// ErrUnknownVersion indicates a decode request for a script version that was never resolved.
	ErrUnknownVersion = errors.New("unknown script version")
	// ErrValueNotFound indicates that auxiliary extraction found no usable value.
	ErrValueNotFound = errors.New("value not found")
	// ErrRecursionLimit indicates that nested calls exceeded the configured depth.
	ErrRecursionLimit = errors.New("recursion limit exceeded")
)
