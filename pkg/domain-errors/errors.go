// Package domainerrors provides coded errors for service boundaries.
//
// Services return these so transports (HTTP handlers, the CLI, the session
// manager) can translate failures without inspecting message text. Store
// layers return pkg/platform/sentinel errors instead; services wrap them here.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	CodeInvalidInput      Code = "invalid_input"
	CodeBadRequest        Code = "bad_request"
	CodeUnauthorized      Code = "unauthorized"
	CodeForbidden         Code = "forbidden"
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
	CodeInternal          Code = "internal_error"
	CodeClaimsUnavailable Code = "claims_unavailable"
	CodeTimeout           Code = "timeout"
)

// userMessages are the human-readable fallbacks shown when an error reaches a person.
var userMessages = map[Code]string{
	CodeInvalidInput:      "The request contained invalid data.",
	CodeBadRequest:        "The request could not be processed.",
	CodeUnauthorized:      "Please sign in to continue.",
	CodeForbidden:         "You do not have access to this area.",
	CodeNotFound:          "The requested item was not found.",
	CodeConflict:          "The item was changed by another request.",
	CodeInternal:          "Something went wrong. Please try again.",
	CodeClaimsUnavailable: "Your account permissions could not be loaded. Please try again shortly.",
	CodeTimeout:           "The request timed out. Please try again.",
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to err. A nil err yields a plain coded error.
func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the outermost code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is an alias for HasCode kept for call sites that read better as a predicate.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// UserMessage returns text safe to show to an end user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return userMessages[CodeOf(err)]
}

// ToHTTPStatus maps a code to the HTTP status used by the transport layer.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeClaimsUnavailable:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
