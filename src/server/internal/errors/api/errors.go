// Package api defines the error type that travels from usecases to
// gateways. An error commits to a code and a user facing message once,
// at the layer that knows what went wrong, and outer layers only add
// context for the logs.
package api

import (
	"github.com/cockroachdb/errors"
)

type ErrorCode string

const DefaultErrorCode = ErrorCode("internal_error")

type Error struct {
	ErrorCode   ErrorCode
	UserMessage string
	cause       error
}

func (e *Error) Error() string {
	return e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// CommitError turns an internal error into an API error, fixing the
// error code and the message shown to the user.
func CommitError(err error, code ErrorCode, userMessage string) *Error {
	return &Error{
		ErrorCode:   code,
		UserMessage: userMessage,
		cause:       err,
	}
}

// WrapError adds context to an already committed API error without
// disturbing its code or user message.
func WrapError(apiErr *Error, msg string) *Error {
	return &Error{
		ErrorCode:   apiErr.ErrorCode,
		UserMessage: apiErr.UserMessage,
		cause:       errors.Wrap(apiErr.cause, msg),
	}
}
