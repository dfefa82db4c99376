package application

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	vErr := &ValidationError{}
	if vErr.HasErrors() {
		t.Fatal("expected a fresh validation error to be empty")
	}

	vErr.add("date", "date must use the YYYY-MM-DD format")
	if !vErr.HasErrors() {
		t.Fatal("expected recorded error to be visible")
	}

	vErr.add("room_id", "room does not exist")
	if len(vErr.FieldErrors) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(vErr.FieldErrors))
	}

	wrapped := fmt.Errorf("create event: %w", vErr)
	var unwrapped *ValidationError
	if !errors.As(wrapped, &unwrapped) {
		t.Fatal("expected errors.As to find the validation error through wrapping")
	}
}

func TestConflictError(t *testing.T) {
	t.Parallel()

	cErr := &ConflictError{
		RoomID:        "room-1",
		Date:          "2025-03-10",
		BlockingID:    "event-9",
		BlockingStart: "10:00",
		BlockingEnd:   "11:00",
	}
	msg := cErr.Error()
	for _, fragment := range []string{"room-1", "2025-03-10", "event-9", "10:00"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in %q", fragment, msg)
		}
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		err  error
		want string
	}{
		"nil":          {nil, ""},
		"unauthorized": {ErrUnauthorized, "unauthorized"},
		"not found":    {ErrNotFound, "not_found"},
		"validation":   {&ValidationError{FieldErrors: map[string]string{"date": "bad"}}, "validation"},
		"conflict":     {&ConflictError{}, "conflict"},
		"wrapped":      {fmt.Errorf("outer: %w", ErrSessionExpired), "session_expired"},
		"unknown":      {errors.New("boom"), "unexpected"},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := ErrorKind(tc.err); got != tc.want {
				t.Fatalf("ErrorKind = %q, want %q", got, tc.want)
			}
		})
	}
}
