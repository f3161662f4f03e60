package services

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every service. Handlers map these to HTTP
// statuses; anything else is an internal failure.
var (
	ErrValidation           = errors.New("validation failed")
	ErrConflict             = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnauthenticated      = errors.New("authentication required")
	ErrInvalidToken         = errors.New("invalid token")
	ErrUnknownUser          = errors.New("unknown user")
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("not allowed")
	ErrUnsupportedMediaType = errors.New("only image and video files are allowed")
	ErrPayloadTooLarge      = errors.New("file too large")
	ErrTooManyFiles         = errors.New("too many files")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
