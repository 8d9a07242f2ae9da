package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestArkilianError_Error(t *testing.T) {
	err := New(ErrCategoryEncoding, CodeTruncatedInput, "need 5 bytes")
	expected := "[ENCODING:TRUNCATED_INPUT] need 5 bytes"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestArkilianError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCategoryTransport, CodeUnavailable, "peer down", cause)
	expected := "[TRANSPORT:UNAVAILABLE] peer down: connection refused"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestArkilianError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ErrCategoryEncoding, CodeMalformedFrame, "bad frame", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestArkilianError_Is(t *testing.T) {
	err1 := New(ErrCategoryEncoding, CodeUnknownSortOrder, "first")
	err2 := New(ErrCategoryEncoding, CodeUnknownSortOrder, "second")
	err3 := New(ErrCategoryEncoding, CodeTruncatedInput, "different code")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		category  ErrorCategory
		code      string
		retryable bool
	}{
		{ErrCategoryTransport, CodeUnavailable, true},
		{ErrCategoryTransport, CodeIndexNotFound, false},
		{ErrCategoryEncoding, CodeTruncatedInput, false},
		{ErrCategoryEncoding, CodeUnknownSortOrder, false},
		{ErrCategoryValidation, CodeKeyTypeMismatch, false},
		{ErrCategoryValidation, CodeInvalidSchema, false},
		{ErrCategoryInternal, CodeUnexpected, false},
	}

	for _, tt := range tests {
		err := New(tt.category, tt.code, "test")
		if IsRetryable(err) != tt.retryable {
			t.Errorf("%s:%s retryable=%v, want %v", tt.category, tt.code, IsRetryable(err), tt.retryable)
		}
	}
}

func TestGetCategoryAndCode(t *testing.T) {
	err := fmt.Errorf("decode: %w", NewEncodingError(CodeTrailingBytes, "2 extra bytes"))
	if GetCategory(err) != ErrCategoryEncoding {
		t.Errorf("got %q, want %q", GetCategory(err), ErrCategoryEncoding)
	}
	if GetCode(err) != CodeTrailingBytes {
		t.Errorf("got %q, want %q", GetCode(err), CodeTrailingBytes)
	}
	if !IsEncoding(err) {
		t.Error("IsEncoding should see through wrapping")
	}
	if GetCategory(fmt.Errorf("plain error")) != "" || GetCode(fmt.Errorf("plain error")) != "" {
		t.Error("non-ArkilianError should return empty category and code")
	}
}

func TestWithDetails(t *testing.T) {
	err := NewValidationError(CodeKeyTypeMismatch, "bad key")
	detailed := err.WithDetails(map[string]interface{}{"column": "user_id"})

	if detailed.Details["column"] != "user_id" {
		t.Error("WithDetails should set details")
	}
	// Original should be unmodified
	if err.Details != nil {
		t.Error("WithDetails should not modify original")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	cause := fmt.Errorf("io error")

	v := NewValidationError(CodeUnknownColumn, "no such column")
	if v.Category != ErrCategoryValidation || v.Code != CodeUnknownColumn {
		t.Error("NewValidationError mismatch")
	}

	e := WrapEncodingError(CodeMalformedFrame, "bad varint", cause)
	if e.Category != ErrCategoryEncoding || !errors.Is(e, cause) {
		t.Error("WrapEncodingError mismatch")
	}

	tr := NewTransportError(CodeUnavailable, "dial failed", cause)
	if tr.Category != ErrCategoryTransport || !tr.Retryable {
		t.Error("NewTransportError mismatch")
	}

	i := NewInternalError("unexpected", cause)
	if i.Category != ErrCategoryInternal || i.Code != CodeUnexpected {
		t.Error("NewInternalError mismatch")
	}
}
