package apperr

import (
	"errors"
	"net/http"
)

// Error is a typed, status-aware application error. Code is a stable
// machine-readable identifier, Status the HTTP status it maps to.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message,omitempty"`
	Status  int            `json:"-"`
	Fields  map[string]any `json:"fields,omitempty"`
	Err     error          `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return "error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches err to a copy of base, optionally overriding its message.
func Wrap(err error, base *Error, message string) *Error {
	if err == nil {
		return nil
	}
	if base == nil {
		base = ErrInternal
	}
	wrapped := *base
	if message != "" {
		wrapped.Message = message
	}
	wrapped.Err = err
	return &wrapped
}

// WithFields returns a copy of base carrying per-field detail, typically
// validation failures keyed by json field name.
func WithFields(base *Error, fields map[string]any) *Error {
	if base == nil {
		return nil
	}
	withFields := *base
	withFields.Fields = fields
	return &withFields
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

func Status(err error) int {
	if e, ok := As(err); ok && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

func Code(err error) string {
	if e, ok := As(err); ok && e.Code != "" {
		return e.Code
	}
	return "server_error"
}

// Payload renders err as the JSON error envelope handlers return.
func Payload(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}
	if e, ok := As(err); ok {
		payload := map[string]any{
			"code":    e.Code,
			"message": e.Error(),
		}
		if payload["code"] == "" {
			payload["code"] = "server_error"
		}
		if len(e.Fields) > 0 {
			payload["fields"] = e.Fields
		}
		return payload
	}
	return map[string]any{
		"code":    "server_error",
		"message": err.Error(),
	}
}

var (
	ErrBadRequest       = New("bad_request", http.StatusBadRequest, "")
	ErrValidation       = New("validation_error", http.StatusBadRequest, "")
	ErrEmptyBody        = New("empty_body", http.StatusBadRequest, "request body is empty")
	ErrUnauthorized     = New("unauthorized", http.StatusUnauthorized, "")
	ErrWrongCredentials = New("wrong_credentials", http.StatusUnauthorized, "wrong mobile or password")
	ErrNotFound         = New("not_found", http.StatusNotFound, "")
	ErrDuplicateMobile  = New("duplicate_mobile", http.StatusBadRequest, "a fan with this mobile number already exists")
	ErrConflict         = New("conflict", http.StatusConflict, "")
	ErrInternal         = New("server_error", http.StatusInternalServerError, "")
)
