package backends

import "errors"

var (
	// ErrBackendNotFound is returned when a backend is not found in the registry
	ErrBackendNotFound = errors.New("backend not found")

	// ErrBackendAlreadyExists is returned when trying to register a duplicate backend
	ErrBackendAlreadyExists = errors.New("backend already exists")

	// ErrBackendDisabled is returned when trying to use a disabled backend
	ErrBackendDisabled = errors.New("backend is disabled")

	// ErrInvalidBackendID is returned when a backend ID is invalid
	ErrInvalidBackendID = errors.New("invalid backend ID")

	// ErrInvalidBackendName is returned when a backend name is invalid
	ErrInvalidBackendName = errors.New("invalid backend name")

	// ErrInvalidTemplateSet is returned when a backend names no template set
	ErrInvalidTemplateSet = errors.New("invalid template set")
)
