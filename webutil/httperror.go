package webutil

import (
	"errors"
	"net/http"
)

const (
	msgBadRequest     = "Bad Request"
	msgUnauthorized   = "Unauthorized"
	msgForbidden      = "Forbidden"
	msgNotFound       = "Resource not found"
	msgInternalServer = "Internal Server Error"
)

// HTTPError carries an HTTP status code and a user-facing message.
// The underlying cause, if any, is only ever logged server-side.
type HTTPError struct {
	cause   error
	Code    int
	Message string
}

func (he *HTTPError) Error() string {
	return he.Message
}

func (he *HTTPError) Unwrap() error {
	return he.cause
}

func newHTTPError(code int, message, fallback string) *HTTPError {
	if message == "" {
		message = fallback
	}
	return &HTTPError{cause: errors.New(message), Code: code, Message: message}
}

func ErrBadRequest(message string) *HTTPError {
	return newHTTPError(http.StatusBadRequest, message, msgBadRequest)
}

func ErrUnauthorized(message string) *HTTPError {
	return newHTTPError(http.StatusUnauthorized, message, msgUnauthorized)
}

func ErrForbidden(message string) *HTTPError {
	return newHTTPError(http.StatusForbidden, message, msgForbidden)
}

func ErrNotFound(message string) *HTTPError {
	return newHTTPError(http.StatusNotFound, message, msgNotFound)
}

// ErrInternalServerWrap hides cause behind a generic 500 message while
// keeping it reachable for logging via Unwrap.
func ErrInternalServerWrap(cause error) *HTTPError {
	return &HTTPError{cause: cause, Code: http.StatusInternalServerError, Message: msgInternalServer}
}
