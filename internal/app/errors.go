package app

import (
	"errors"
	"fmt"
)

// Error categories for the pipeline. Callers match with errors.Is to tell
// bad input apart from a failing extraction capability or an unavailable
// store. RoutingError stays inside the audit path and never fails a request.
var (
	ErrValidation        = errors.New("validation error")
	ErrExtraction        = errors.New("extraction error")
	ErrExtractionTimeout = errors.New("extraction timeout")
	ErrPersistence       = errors.New("persistence error")
	ErrRouting           = errors.New("routing error")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func extractionError(cause error) error {
	return fmt.Errorf("%w: %v", ErrExtraction, cause)
}

func persistenceError(cause error) error {
	return fmt.Errorf("%w: %v", ErrPersistence, cause)
}

func routingError(cause error) error {
	return fmt.Errorf("%w: %v", ErrRouting, cause)
}
