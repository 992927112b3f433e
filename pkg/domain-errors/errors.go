// Package domainerrors defines the coded error type returned across service
// boundaries. Services translate sentinel errors from stores into these codes;
// the HTTP layer translates codes into statuses. Nothing below the handler
// layer should ever see an http.Status constant.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure in a transport-agnostic way.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeValidation   Code = "validation_error"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeExpired      Code = "expired"
	CodeInternal     Code = "internal_error"
)

// Error is a domain error carrying a machine-readable code and a
// human-readable description safe to return to callers (except for
// CodeInternal, whose description is withheld at the transport layer).
type Error struct {
	Code        Code
	Description string
	wrapped     error
}

// New builds a domain error with the given code and description.
func New(code Code, description string) *Error {
	return &Error{Code: code, Description: description}
}

// Wrap builds a domain error preserving the underlying cause for errors.Is/As.
func Wrap(code Code, description string, cause error) *Error {
	return &Error{Code: code, Description: description, wrapped: cause}
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Unwrap() error { return e.wrapped }

// CodeOf extracts the domain code from err, defaulting to CodeInternal for
// anything that is not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// DescriptionOf extracts the caller-safe description from err. Internal
// errors yield an empty description so details never leak.
func DescriptionOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Code != CodeInternal {
		return de.Description
	}
	return ""
}

// ToHTTPStatus maps a domain code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeExpired:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
