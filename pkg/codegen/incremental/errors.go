package incremental

import "errors"

var (
	// ErrNoSourceDir is returned when the configuration names no source directory
	ErrNoSourceDir = errors.New("source directory not configured")

	// ErrNoOutputDir is returned when the configuration names no output directory
	ErrNoOutputDir = errors.New("output directory not configured")

	// ErrCompilationFailed wraps the errors of a failed compile pass
	ErrCompilationFailed = errors.New("compilation failed")
)
