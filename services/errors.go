package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for negative volume counts, negative
	// durations and non-positive installment counts.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownServiceType is returned when a service code is not registered
	// in the catalog.
	ErrUnknownServiceType = errors.New("unknown service type")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCodeConflict is returned when no free proposal code could be found.
	ErrCodeConflict = errors.New("proposal code already in use")

	// ErrRendererFailure matches every *RendererError via errors.Is.
	ErrRendererFailure = errors.New("renderer failure")
)

// RendererError wraps a failure from the document-merge step together with
// the service and template that were being rendered.
type RendererError struct {
	ServiceType string
	TemplateID  string
	Err         error
}

func (e *RendererError) Error() string {
	return fmt.Sprintf("render %s (service %s): %v", e.TemplateID, e.ServiceType, e.Err)
}

func (e *RendererError) Unwrap() error {
	return e.Err
}

// Is reports true for ErrRendererFailure so callers can match the error kind
// without knowing the concrete type.
func (e *RendererError) Is(target error) bool {
	return target == ErrRendererFailure
}
