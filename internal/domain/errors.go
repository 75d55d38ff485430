package domain

import (
	"errors"
	"fmt"
)

type ValidationKind string

const (
	KindMissingImage     ValidationKind = "missing_image"
	KindMissingLocation  ValidationKind = "missing_location"
	KindNotAuthenticated ValidationKind = "not_authenticated"
	KindEmptyCode        ValidationKind = "empty_code"
	KindCodeTooShort     ValidationKind = "code_too_short"
	KindCodeMismatch     ValidationKind = "code_mismatch"
	KindPasswordMismatch ValidationKind = "password_mismatch"
	KindMissingField     ValidationKind = "missing_field"
	KindInvalidValue     ValidationKind = "invalid_value"
)

// Sentinels for errors.Is; a *ValidationError matches the sentinel of its kind.
var (
	ErrMissingImage     = errors.New("missing image")
	ErrMissingLocation  = errors.New("missing location")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrEmptyCode        = errors.New("empty code")
	ErrCodeTooShort     = errors.New("code too short")
	ErrCodeMismatch     = errors.New("code mismatch")
	ErrPasswordMismatch = errors.New("password mismatch")
	ErrMissingField     = errors.New("missing field")
	ErrInvalidValue     = errors.New("invalid value")
)

var kindSentinels = map[ValidationKind]error{
	KindMissingImage:     ErrMissingImage,
	KindMissingLocation:  ErrMissingLocation,
	KindNotAuthenticated: ErrNotAuthenticated,
	KindEmptyCode:        ErrEmptyCode,
	KindCodeTooShort:     ErrCodeTooShort,
	KindCodeMismatch:     ErrCodeMismatch,
	KindPasswordMismatch: ErrPasswordMismatch,
	KindMissingField:     ErrMissingField,
	KindInvalidValue:     ErrInvalidValue,
}

// ValidationError is a locally recoverable input problem with a message fit for the user.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func NewValidationError(kind ValidationKind, message string) *ValidationError {
	return &ValidationError{Kind: kind, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Kind, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return kindSentinels[e.Kind]
}

// AuthError wraps identity provider failures.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// StoreError wraps failures of the persistent store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// LocationError carries the position provider's denial or timeout reason.
type LocationError struct {
	Message string
}

func (e *LocationError) Error() string {
	return "location: " + e.Message
}
