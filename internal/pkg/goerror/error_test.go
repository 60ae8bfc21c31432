package goerror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewUnauthorized(t *testing.T) {

	t.Run("HidesUnderlyingCause", func(t *testing.T) {

		// Arrange
		cause := fmt.Errorf("lookup: %w", ErrNotFound)

		// Act
		err := NewUnauthorized(cause)

		// Assert
		var gerr *Error
		if !errors.As(err, &gerr) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if gerr.Msg() != MsgInvalidLogin {
			t.Fatalf("expected message %q, got %q", MsgInvalidLogin, gerr.Msg())
		}
		if gerr.StatusCode() != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", gerr.StatusCode())
		}
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected cause to stay reachable through Unwrap")
		}
	})

	t.Run("SameMessageForEveryCause", func(t *testing.T) {

		// Arrange
		causes := []error{ErrNotFound, ErrInvalidCredential, ErrUnavailable, nil}

		// Act & Assert
		for _, cause := range causes {
			var gerr *Error
			if !errors.As(NewUnauthorized(cause), &gerr) {
				t.Fatalf("expected *Error for cause %v", cause)
			}
			if gerr.Msg() != MsgInvalidLogin {
				t.Fatalf("cause %v leaked message %q", cause, gerr.Msg())
			}
		}
	})
}

func TestErrorStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "Server", err: NewServer(errors.New("boom")), want: http.StatusInternalServerError},
		{name: "Forbidden", err: NewBusiness("nope", CodeForbidden), want: http.StatusForbidden},
		{name: "InvalidInput", err: NewInvalidInput(nil, "email", "required"), want: http.StatusUnprocessableEntity},
		{name: "InvalidFormat", err: NewInvalidFormat(), want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {

			// Act
			var gerr *Error
			ok := errors.As(tt.err, &gerr)

			// Assert
			if !ok {
				t.Fatalf("expected *Error, got %T", tt.err)
			}
			if gerr.StatusCode() != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, gerr.StatusCode())
			}
		})
	}
}

func TestNewInvalidInputFields(t *testing.T) {

	// Act
	err := NewInvalidInput(nil, "email", "email is required", "password")

	// Assert
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if gerr.Code() != CodeInvalidFormat {
		t.Fatalf("odd key/value list should be treated as invalid format, got %s", gerr.Code())
	}
}
