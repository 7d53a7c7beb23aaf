package decipher

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/sigdecipher/errs"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "error with details",
			err: &Error{
				Code:    ErrCodeHelperNotFound,
				Message: "no declaration of fkr",
				Details: "fkr",
			},
			expected: "HELPER_NOT_FOUND: no declaration of fkr (fkr)",
		},
		{
			name: "error without details",
			err: &Error{
				Code:    ErrCodeMissingReturn,
				Message: "mthr ended without returning",
			},
			expected: "MISSING_RETURN: mthr ended without returning",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestError_MarshalJSON(t *testing.T) {
	err := NewError(ErrCodeUnsupportedConstruct, "unknown method peverse", map[string]any{
		"fragment": "a.peverse()",
	})

	data, err2 := json.Marshal(err)
	require.NoError(t, err2)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, ErrCodeUnsupportedConstruct, result["code"])
	assert.Equal(t, "unknown method peverse", result["message"])
	assert.Equal(t, err.Error(), result["error"])
	details, ok := result["details"].(map[string]any)
	require.True(t, ok, "details missing or wrong type")
	assert.Equal(t, "a.peverse()", details["fragment"])
}

func TestError_Unwrap(t *testing.T) {
	tests := []struct {
		code     string
		sentinel error
	}{
		{ErrCodeEntryNotFound, errs.ErrEntryNotFound},
		{ErrCodeEntryBodyMalformed, errs.ErrEntryBodyMalformed},
		{ErrCodeHelperNotFound, errs.ErrHelperNotFound},
		{ErrCodeUnboundArgument, errs.ErrUnboundArgument},
		{ErrCodeArityMismatch, errs.ErrArityMismatch},
		{ErrCodeUnsupportedConstruct, errs.ErrUnsupportedConstruct},
		{ErrCodeMissingReturn, errs.ErrMissingReturn},
		{ErrCodeUnknownVersion, errs.ErrUnknownVersion},
		{ErrCodeRecursionLimit, errs.ErrRecursionLimit},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := fmt.Errorf("resolve: %w", NewError(tt.code, "test"))
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.code, CodeOf(err))
		})
	}

	assert.Nil(t, NewError("SOMETHING_ELSE", "x").Unwrap(), "unknown code should not unwrap")
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		layout  bool
		grammar bool
		unknown bool
	}{
		{"entry not found", NewError(ErrCodeEntryNotFound, "x"), true, false, false},
		{"body malformed", NewError(ErrCodeEntryBodyMalformed, "x"), true, false, false},
		{"helper not found", NewError(ErrCodeHelperNotFound, "x"), true, false, false},
		{"unsupported", NewError(ErrCodeUnsupportedConstruct, "x"), true, false, false},
		{"unbound", NewError(ErrCodeUnboundArgument, "x"), false, true, false},
		{"arity", NewError(ErrCodeArityMismatch, "x"), false, true, false},
		{"missing return", NewError(ErrCodeMissingReturn, "x"), false, true, false},
		{"recursion", NewError(ErrCodeRecursionLimit, "x"), false, true, false},
		{"unknown version", NewError(ErrCodeUnknownVersion, "x"), false, false, true},
		{"plain error", errors.New("x"), false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.layout, IsLayoutError(tt.err), "IsLayoutError")
			assert.Equal(t, tt.grammar, IsGrammarError(tt.err), "IsGrammarError")
			assert.Equal(t, tt.unknown, IsUnknownVersion(tt.err), "IsUnknownVersion")
		})
	}
}
