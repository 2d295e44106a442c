// Package errors provides the coded domain errors returned by Shelfmark services.
//
// Services return *Error values; the API layer renders them with the matching
// HTTP status. Matching with errors.Is compares codes, so
//
//	errors.Is(err, errors.ErrDuplicateEmail)
//
// is true for any error built with DuplicateEmail, whatever its message.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Callers import this package in place of the standard one.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Generic codes.
const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeConflict           Code = "CONFLICT"
	CodeInternal           Code = "INTERNAL_ERROR"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeRateLimited        Code = "RATE_LIMITED"
)

// Catalog and account codes.
const (
	CodeDuplicateEmail       Code = "DUPLICATE_EMAIL"
	CodeDuplicateAuthor      Code = "DUPLICATE_AUTHOR"
	CodeDuplicateGenre       Code = "DUPLICATE_GENRE"
	CodeDuplicateBook        Code = "DUPLICATE_BOOK"
	CodeAlreadyInList        Code = "ALREADY_IN_LIST"
	CodePasswordMismatch     Code = "PASSWORD_MISMATCH"
	CodeOldPasswordIncorrect Code = "OLD_PASSWORD_INCORRECT"
	CodeNoGenreSelected      Code = "NO_GENRE_SELECTED"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict, CodeDuplicateEmail, CodeDuplicateAuthor,
		CodeDuplicateGenre, CodeDuplicateBook, CodeAlreadyInList:
		return http.StatusConflict
	case CodeUnauthorized, CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeValidation, CodePasswordMismatch, CodeOldPasswordIncorrect, CodeNoGenreSelected:
		return http.StatusBadRequest
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is what services return to the API layer. Details is rendered as the
// envelope's error.details field.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus is the status the API layer answers with.
func (e *Error) HTTPStatus() int { return e.Code.HTTPStatus() }

// GetStatus satisfies huma.StatusError, so handlers can return an *Error as is.
func (e *Error) GetStatus() int { return e.Code.HTTPStatus() }

// WithDetails copies e with details attached. Sentinels are never mutated.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// WithCause copies e with err as its cause.
func (e *Error) WithCause(err error) *Error {
	cp := *e
	cp.cause = err
	return &cp
}

// Sentinels. Match them with Is; derive messages with the constructors below.
var (
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists      = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden          = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict           = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrRateLimited        = &Error{Code: CodeRateLimited, Message: "too many requests"}

	ErrDuplicateEmail       = &Error{Code: CodeDuplicateEmail, Message: "user with this email already exists"}
	ErrDuplicateAuthor      = &Error{Code: CodeDuplicateAuthor, Message: "this author already exists"}
	ErrDuplicateGenre       = &Error{Code: CodeDuplicateGenre, Message: "this genre already exists"}
	ErrDuplicateBook        = &Error{Code: CodeDuplicateBook, Message: "this book already exists"}
	ErrAlreadyInList        = &Error{Code: CodeAlreadyInList, Message: "this book is already in your read list"}
	ErrPasswordMismatch     = &Error{Code: CodePasswordMismatch, Message: "passwords do not match"}
	ErrOldPasswordIncorrect = &Error{Code: CodeOldPasswordIncorrect, Message: "old password is incorrect"}
	ErrNoGenreSelected      = &Error{Code: CodeNoGenreSelected, Message: "please select at least one genre"}
)

func newError(code Code, msg string) *Error { return &Error{Code: code, Message: msg} }

// NotFound reports a missing book, author, genre, user or saved search.
func NotFound(msg string) *Error { return newError(CodeNotFound, msg) }

// NotFoundf is NotFound with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return newError(CodeNotFound, fmt.Sprintf(format, args...))
}

// Unauthorized is returned when the caller has no valid session.
func Unauthorized(msg string) *Error { return newError(CodeUnauthorized, msg) }

// Forbidden is returned when the caller's role lacks the permission.
func Forbidden(msg string) *Error { return newError(CodeForbidden, msg) }

// ValidationWithDetails carries per-field messages in Details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// InvalidCredentials never says whether the email or the password was wrong.
func InvalidCredentials(msg string) *Error { return newError(CodeInvalidCredentials, msg) }
