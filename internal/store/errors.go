package store

import (
	"fmt"
	"net/http"
)

// Error is a persistence failure. Code is the HTTP status the API layer
// answers with when a service passes the error through unchanged.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is compares status codes, so a sentinel still matches after WithMessage or
// WithCause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// HTTPCode is the status the error maps to.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage copies e with a new message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// WithCause copies e with err as its cause.
func (e *Error) WithCause(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

var (
	// ErrNotFound is returned for a missing row or snapshot.
	ErrNotFound = &Error{Code: http.StatusNotFound, Message: "resource not found"}
	// ErrAlreadyExists is returned when a unique constraint rejects a write.
	ErrAlreadyExists = &Error{Code: http.StatusConflict, Message: "resource already exists"}
	// ErrInvalidInput is returned for writes that reference rows that cannot exist.
	ErrInvalidInput = &Error{Code: http.StatusBadRequest, Message: "invalid input"}
)
