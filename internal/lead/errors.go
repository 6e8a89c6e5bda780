package lead

import (
	"errors"
	"fmt"
)

// ErrQuotaExhausted signals a quota/rate-limit response from the search
// provider; discovery pauses briefly and moves to the next query template.
var ErrQuotaExhausted = errors.New("search quota exhausted")

// ValidationError reports bad or missing input shape.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown id or out-of-range index.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// NewNotFoundError builds a NotFoundError for the named resource.
func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

// ConfigurationError reports a missing external credential or setting where
// the operation must fail explicitly instead of degrading.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// ExternalServiceError reports a non-success response or transport failure
// from an external provider.
type ExternalServiceError struct {
	Provider string
	Status   int
	Detail   string
}

func (e *ExternalServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error: %d %s", e.Provider, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s error: %s", e.Provider, e.Detail)
}

// GenerationError reports a failed or malformed text-generation response.
type GenerationError struct {
	Status int
	Detail string
}

func (e *GenerationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("Gemini API error: %d %s", e.Status, e.Detail)
	}
	return e.Detail
}
