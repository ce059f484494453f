package artifacts

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Bundle is a packaged set of schema source files
type Bundle struct {
	// Path is the bundle file on disk
	Path string

	// Files lists the entries, relative to the source root
	Files []string

	// Hash is the hex sha256 of the bundle file
	Hash string

	Size int64
}

// PublishResult describes an uploaded bundle
type PublishResult struct {
	S3Key    string
	S3Bucket string
	Hash     string
	Size     int64
}

// Publisher uploads schema bundles
type Publisher interface {
	// Publish uploads bundle as the artifact of module at version
	Publish(ctx context.Context, bundle *Bundle, module, version string) (*PublishResult, error)

	// Exists reports whether an artifact was published
	Exists(ctx context.Context, module, version string) (bool, error)

	// Delete removes a published artifact
	Delete(ctx context.Context, module, version string) error
}

// S3API is the subset of the S3 client a publisher uses
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds publisher configuration
type Config struct {
	S3Bucket string
	S3Prefix string
	S3Region string
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		S3Prefix: "schemas/",
	}
}
