package decipher

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ytget/sigdecipher/errs"
)

// Error codes
const (
	ErrCodeEntryNotFound        = "ENTRY_NOT_FOUND"
	ErrCodeEntryBodyMalformed   = "ENTRY_BODY_MALFORMED"
	ErrCodeHelperNotFound       = "HELPER_NOT_FOUND"
	ErrCodeUnboundArgument      = "UNBOUND_ARGUMENT"
	ErrCodeArityMismatch        = "ARITY_MISMATCH"
	ErrCodeUnsupportedConstruct = "UNSUPPORTED_CONSTRUCT"
	ErrCodeMissingReturn        = "MISSING_RETURN"
	ErrCodeUnknownVersion       = "UNKNOWN_VERSION"
	ErrCodeRecursionLimit       = "RECURSION_LIMIT_EXCEEDED"
)

var sentinels = map[string]error{
	ErrCodeEntryNotFound:        errs.ErrEntryNotFound,
	ErrCodeEntryBodyMalformed:   errs.ErrEntryBodyMalformed,
	ErrCodeHelperNotFound:       errs.ErrHelperNotFound,
	ErrCodeUnboundArgument:      errs.ErrUnboundArgument,
	ErrCodeArityMismatch:        errs.ErrArityMismatch,
	ErrCodeUnsupportedConstruct: errs.ErrUnsupportedConstruct,
	ErrCodeMissingReturn:        errs.ErrMissingReturn,
	ErrCodeUnknownVersion:       errs.ErrUnknownVersion,
	ErrCodeRecursionLimit:       errs.ErrRecursionLimit,
}

// Error represents a structured error with code and details
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the errs sentinel for the code, so errors.Is(err,
// errs.ErrMissingReturn) holds for a MISSING_RETURN error.
func (e *Error) Unwrap() error {
	return sentinels[e.Code]
}

// MarshalJSON implements json.Marshaler
func (e *Error) MarshalJSON() ([]byte, error) {
	type Alias Error
	return json.Marshal(&struct {
		*Alias
		Error string `json:"error"`
	}{
		Alias: (*Alias)(e),
		Error: e.Error(),
	})
}

// NewError creates a new Error with the given code and message
func NewError(code string, message string, details ...any) *Error {
	e := &Error{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

func newErrorf(code string, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsLayoutError reports errors that mean the platform changed its script
// layout: the pattern table or grammar needs an update.
func IsLayoutError(err error) bool {
	switch CodeOf(err) {
	case ErrCodeEntryNotFound, ErrCodeEntryBodyMalformed, ErrCodeHelperNotFound, ErrCodeUnsupportedConstruct:
		return true
	}
	return false
}

// IsGrammarError reports call-site/declaration mismatches and bodies that
// never return.
func IsGrammarError(err error) bool {
	switch CodeOf(err) {
	case ErrCodeUnboundArgument, ErrCodeArityMismatch, ErrCodeMissingReturn, ErrCodeRecursionLimit:
		return true
	}
	return false
}

// IsUnknownVersion reports a decode attempted before Resolve populated the version.
func IsUnknownVersion(err error) bool {
	return CodeOf(err) == ErrCodeUnknownVersion
}
