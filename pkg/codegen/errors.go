package codegen

import "errors"

var (
	// ErrParse is returned when schema text is malformed
	ErrParse = errors.New("parse error")

	// ErrTypeResolution is returned when a referenced type has no definition
	ErrTypeResolution = errors.New("type resolution error")

	// ErrNamespaceMismatch is returned when a schema's namespace does not match
	// the directory it lives in
	ErrNamespaceMismatch = errors.New("namespace validation error")

	// ErrTypeRedefined is returned when a registered name is defined again with
	// a different schema
	ErrTypeRedefined = errors.New("type redefined")

	// ErrUnsupportedOption is returned when the output policy itself is invalid
	ErrUnsupportedOption = errors.New("unsupported configuration")
)
