package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusAndCode(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"typed not found", ErrNotFound, http.StatusNotFound, "not_found"},
		{"typed unauthorized", ErrWrongCredentials, http.StatusUnauthorized, "wrong_credentials"},
		{"wrapped", Wrap(errors.New("disk io"), ErrInternal, ""), http.StatusInternalServerError, "server_error"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "server_error"},
		{"nested", fmt.Errorf("outer: %w", ErrDuplicateMobile), http.StatusBadRequest, "duplicate_mobile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.err); got != tt.wantStatus {
				t.Errorf("Status() = %d, want %d", got, tt.wantStatus)
			}
			if got := Code(tt.err); got != tt.wantCode {
				t.Errorf("Code() = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("unique constraint failed")
	wrapped := Wrap(cause, ErrConflict, "already subscribed")
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if wrapped.Error() != "already subscribed" {
		t.Errorf("Error() = %q, want overridden message", wrapped.Error())
	}
	if ErrConflict.Message != "" {
		t.Error("Wrap must not mutate the base error")
	}
}

func TestPayload(t *testing.T) {
	err := WithFields(ErrValidation, map[string]any{"mobile": "required"})
	payload := Payload(err)
	if payload["code"] != "validation_error" {
		t.Errorf("payload code = %v", payload["code"])
	}
	fields, ok := payload["fields"].(map[string]any)
	if !ok || fields["mobile"] != "required" {
		t.Errorf("payload fields = %v", payload["fields"])
	}

	if got := Payload(nil); len(got) != 0 {
		t.Errorf("Payload(nil) = %v, want empty", got)
	}
}
