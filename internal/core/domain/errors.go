package domain

import "errors"

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrMediaFetch         = errors.New("media fetch failed")
	ErrUnknownCapability  = errors.New("unknown capability")
)

var (
	ErrListingNotFound    = wrapKind("listing not found", ErrNotFound)
	ErrAgentNotFound      = wrapKind("agent not found", ErrNotFound)
	ErrAdminNotFound      = wrapKind("admin not found", ErrNotFound)
	ErrSlugTaken          = errors.New("slug already exists")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAlreadyProvisioned = errors.New("password already bound")
)

// AuthError is returned by the auth gateway. Message is safe to send to the
// client; Kind is ErrUnauthenticated or ErrForbidden.
type AuthError struct {
	Kind    error
	Message string
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Kind }

// ValidationError describes a malformed request payload.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError returns a ValidationError with msg.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func wrapKind(msg string, kind error) error {
	return &kindError{msg: msg, kind: kind}
}
