package vision

import (
	"errors"
	"fmt"
)

// ErrNoPublishedIteration is returned when a project has no iteration
// published for prediction.
var ErrNoPublishedIteration = errors.New("no published iteration found")

// ServiceError wraps an error returned by the detection service.
type ServiceError struct {
	Message       string
	StatusCode    int
	OriginalError error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("vision service error: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("vision service error: %s (original error: %v)", e.Message, e.OriginalError)
}

func (e *ServiceError) Unwrap() error {
	return e.OriginalError
}

func NewServiceError(message string, originalError error) *ServiceError {
	return &ServiceError{Message: message, OriginalError: originalError}
}

func NewServiceStatusError(message string, statusCode int) *ServiceError {
	return &ServiceError{Message: message, StatusCode: statusCode}
}
