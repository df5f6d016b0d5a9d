package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrNoAction       = errors.New("message carries no action")
	ErrActionResolved = errors.New("action already resolved")
	ErrNotSavable     = errors.New("action cannot be saved as a document")
	ErrInvalid        = errors.New("invalid request")
)

// ServiceError is returned by the model gateway. Message is safe to show to the user.
type ServiceError struct {
	Op      string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

const genericFailureMessage = "the AI service is unavailable right now"

// PresentableMessage returns the user-facing text for err.
func PresentableMessage(err error) string {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	return genericFailureMessage
}

// NotFoundf wraps ErrNotFound with a description of what was missing.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}
