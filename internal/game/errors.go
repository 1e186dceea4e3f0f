// internal/game/errors.go
package game

import (
	"errors"
	"fmt"
)

// ErrorCode is the wire value of the errorCode field sent to clients.
type ErrorCode string

const (
	CodeInvalidInput ErrorCode = "invalid_input"
	CodeUnauthorized ErrorCode = "unauthorized"
	CodeNotFound     ErrorCode = "not_found"
	CodeServerError  ErrorCode = "server_error"
)

// ServerErrorMessage is the only text a client ever sees for an internal fault.
const ServerErrorMessage = "Unexpected server error."

// Error is a client-reportable failure.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// InvalidInput reports a malformed request, unknown move or out-of-range value.
func InvalidInput(format string, args ...interface{}) *Error {
	return &Error{Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized reports an actor acting outside their rights.
func Unauthorized(format string, args ...interface{}) *Error {
	return &Error{Code: CodeUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an unknown game, lobby or code.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// CodeOf classifies err. Anything that is not an *Error is a server error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeServerError
}

// PublicMessage returns the message safe to show to a client.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != CodeServerError {
		return e.Message
	}
	return ServerErrorMessage
}
