package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "message only",
			err: &Error{
				Code:    EINVALID,
				Message: "invalid quantity",
			},
			expected: "invalid quantity",
		},
		{
			name: "with operation",
			err: &Error{
				Code:    EINVALID,
				Op:      "cart.add",
				Message: "invalid quantity",
			},
			expected: "cart.add: invalid quantity",
		},
		{
			name: "with wrapped error",
			err: &Error{
				Code:    ENETWORK,
				Op:      "gateway.fetch",
				Message: "could not reach store",
				Err:     errors.New("connection refused"),
			},
			expected: "gateway.fetch: could not reach store: connection refused",
		},
		{
			name: "wrapped error without op",
			err: &Error{
				Code:    ESTORAGE,
				Message: "failed to write snapshot",
				Err:     errors.New("disk full"),
			},
			expected: "failed to write snapshot: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil error", nil, ""},
		{"domain error", &Error{Code: EREJECTED, Message: "rejected"}, EREJECTED},
		{"wrapped domain error", fmt.Errorf("outer: %w", &Error{Code: EUNAUTHORIZED}), EUNAUTHORIZED},
		{"plain error", errors.New("boom"), EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.expected {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "user-facing message",
			err:      &Error{Code: EREJECTED, Message: "Product is out of stock"},
			expected: "Product is out of stock",
		},
		{
			name:     "internal hides details",
			err:      &Error{Code: EINTERNAL, Message: "snapshot marshal failed"},
			expected: "An internal error occurred. Please try again later.",
		},
		{
			name:     "unknown error hides details",
			err:      errors.New("pq: connection reset"),
			expected: "An internal error occurred. Please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); got != tt.expected {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	t.Run("nil passthrough", func(t *testing.T) {
		if got := WrapError(nil, ENETWORK, "gateway.fetch", "unreachable"); got != nil {
			t.Errorf("WrapError(nil) = %v, want nil", got)
		}
	})

	t.Run("preserves underlying error", func(t *testing.T) {
		inner := errors.New("connection refused")
		wrapped := WrapError(inner, ENETWORK, "gateway.fetch", "unreachable")

		if !errors.Is(wrapped, inner) {
			t.Error("wrapped error should match inner via errors.Is")
		}
		if ErrorCode(wrapped) != ENETWORK {
			t.Errorf("ErrorCode() = %q, want %q", ErrorCode(wrapped), ENETWORK)
		}
	})
}

func TestValidationError(t *testing.T) {
	t.Run("single field", func(t *testing.T) {
		err := NewValidationError("order.submit", "email", "Must be a valid email address")
		expected := "order.submit: email: Must be a valid email address"
		if err.Error() != expected {
			t.Errorf("Error() = %q, want %q", err.Error(), expected)
		}
	})

	t.Run("accumulates fields", func(t *testing.T) {
		err := NewValidationError("order.submit", "email", "required")
		err = AddFieldError(err, "phone", "required")

		fields := GetValidationFields(err)
		if len(fields) != 2 {
			t.Fatalf("expected 2 fields, got %d", len(fields))
		}
		if !IsValidationError(err) {
			t.Error("IsValidationError() = false, want true")
		}
	})
}
