package extract

import "errors"

var (
	// ErrArchiveIO is returned when an archive cannot be read or unpacked
	ErrArchiveIO = errors.New("archive I/O error")

	// ErrUnsafeEntry is returned for archive entries that would be written
	// outside the target directory
	ErrUnsafeEntry = errors.New("archive entry escapes target directory")
)
