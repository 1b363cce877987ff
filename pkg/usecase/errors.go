package usecase

import (
	"errors"
	"fmt"
)

// Sentinel errors for use case layer
var (
	// Input errors
	ErrValidation = errors.New("validation error")

	// Not found errors
	ErrContactNotFound      = errors.New("Contact not found")
	ErrRelationshipNotFound = errors.New("Relationship not found")
	ErrUserNotFound         = errors.New("User not found")
	ErrChannelNotFound      = errors.New("Channel not found")

	// Conflict errors
	ErrRelationshipExists = errors.New("Relationship already exists")

	// Authentication errors
	ErrUnauthorized  = errors.New("unauthorized")
	ErrTokenRequired = fmt.Errorf("Access token required: %w", ErrUnauthorized)
	ErrTokenExpired  = fmt.Errorf("Token expired: %w", ErrUnauthorized)
	ErrInvalidToken  = fmt.Errorf("Invalid token: %w", ErrUnauthorized)

	// Other errors
	ErrUpstream      = errors.New("upstream service failed")
	ErrNotConfigured = errors.New("feature is not configured")
)

// ValidationError is an input error whose message is safe to show to clients
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// Context keys for error values
const (
	OwnerIDKey   = "owner_id"
	ContactIDKey = "contact_id"
	ChannelIDKey = "channel_id"
	TeamIDKey    = "team_id"
)
