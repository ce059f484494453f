package artifacts

import "errors"

var (
	// ErrNoFiles is returned when there is nothing to bundle
	ErrNoFiles = errors.New("no schema files to bundle")

	// ErrUploadFailed is returned when upload fails
	ErrUploadFailed = errors.New("upload failed")

	// ErrCompressionFailed is returned when the bundle cannot be written
	ErrCompressionFailed = errors.New("compression failed")

	// ErrBucketRequired is returned when publishing without a bucket
	ErrBucketRequired = errors.New("S3 bucket is required")
)
