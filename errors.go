package botauth

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a machine-readable error tag. Callers branch on codes, never
// on message strings.
type ErrorCode string

const (
	// ErrCodeCredentialNotFound means no stored credential matches the ref.
	// Recoverable: the caller should prompt re-authorization, not treat it
	// as a server fault.
	ErrCodeCredentialNotFound ErrorCode = "CREDENTIAL_NOT_FOUND"

	// ErrCodeCredentialWrite means persisting a refreshed credential failed.
	// The in-memory credential may still be usable for the current call, but
	// every later call will refresh again until a write succeeds.
	ErrCodeCredentialWrite ErrorCode = "CREDENTIAL_WRITE_ERROR"

	// ErrCodeProviderNotSupported means no implementation is registered for
	// the requested provider name. A configuration error, not a user error.
	ErrCodeProviderNotSupported ErrorCode = "PROVIDER_NOT_SUPPORTED"

	// ErrCodeServiceNotSupported means the provider has no sub-service with
	// the requested name.
	ErrCodeServiceNotSupported ErrorCode = "SERVICE_NOT_SUPPORTED"

	// ErrCodeTokenError means no usable access token could be produced.
	ErrCodeTokenError ErrorCode = "TOKEN_ERROR"

	// ErrCodeInvalidRef means the credential ref cannot identify a target.
	ErrCodeInvalidRef ErrorCode = "INVALID_CREDENTIAL_REF"
)

// RefreshErrorCode returns the provider-tagged code for a failed refresh
// exchange, e.g. GOOGLE_REFRESH_ERROR.
func RefreshErrorCode(provider string) ErrorCode {
	return ErrorCode(strings.ToUpper(provider) + "_REFRESH_ERROR")
}

// Error is a tagged error carrying a code, the provider it concerns (if any)
// and an optional wrapped cause. Messages never include token values.
type Error struct {
	Code     ErrorCode
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two tagged errors by code, so sentinels like
// ErrCredentialNotFound work with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewError creates a tagged error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError creates a tagged error wrapping an underlying cause.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// NewRefreshError creates the provider-tagged error for a failed refresh
// exchange. Status and detail come from the provider's response; detail must
// already be free of secrets (token endpoints do not echo refresh tokens in
// error bodies, but callers should pass the error description, not the
// request).
func NewRefreshError(provider string, status int, detail string) *Error {
	return &Error{
		Code:     RefreshErrorCode(provider),
		Provider: provider,
		Message:  fmt.Sprintf("token refresh failed (status %d): %s", status, detail),
	}
}

// Sentinels for errors.Is matching.
var (
	ErrCredentialNotFound   = NewError(ErrCodeCredentialNotFound, "no credential matches the resolution target")
	ErrProviderNotSupported = NewError(ErrCodeProviderNotSupported, "provider is not supported")
)

// HasCode reports whether err (or anything it wraps) is a tagged error with
// the given code.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsNotFound reports whether err means no credential matched.
func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeCredentialNotFound)
}
