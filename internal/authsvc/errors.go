package authsvc

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by Service wraps exactly one of them.
var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrValidation            = errors.New("validation failed")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrInvalidOldPassword    = errors.New("invalid old password")
	ErrNetwork               = errors.New("network error")
	ErrUnexpected            = errors.New("unexpected response")
)

// Error is the tagged failure returned by Service. Message is safe to show
// next to the form that triggered the call.
type Error struct {
	Kind    error
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// MessageOf returns the user-facing message for err, falling back to fallback
func MessageOf(err error, fallback string) string {
	var svcErr *Error
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	return fallback
}
