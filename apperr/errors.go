// Package apperr carries the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindValidation
	KindNotFound
	KindConflict
	KindTooLarge
)

var kindStatus = map[Kind]int{
	KindInternal:        http.StatusInternalServerError,
	KindUnauthenticated: http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindValidation:      http.StatusBadRequest,
	KindNotFound:        http.StatusNotFound,
	KindConflict:        http.StatusConflict,
	KindTooLarge:        http.StatusRequestEntityTooLarge,
}

// Status returns the HTTP status code for k.
func (k Kind) Status() int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

type Error struct {
	Kind    Kind
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetails attaches a structured payload rendered next to the message.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

func Unauthenticated(format string, args ...any) *Error {
	return newf(KindUnauthenticated, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newf(KindForbidden, format, args...)
}

func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newf(KindConflict, format, args...)
}

func TooLarge(format string, args ...any) *Error {
	return newf(KindTooLarge, format, args...)
}

// Internal wraps a storage or upstream failure. The cause is exposed as
// details so operators can read the driver message from the response.
func Internal(msg string, err error) *Error {
	e := &Error{Kind: KindInternal, Message: msg, Err: err}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// KindOf classifies any error; unknown errors are internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return KindNotFound
	}
	return KindInternal
}

// Body is the JSON error envelope.
type Body struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// HTTP converts err into a status code and response body.
func HTTP(err error) (int, Body) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind.Status(), Body{Error: ae.Message, Details: ae.Details}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound, Body{Error: "not found"}
	}
	return http.StatusInternalServerError, Body{Error: "internal error", Details: errorText(err)}
}

func errorText(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}
