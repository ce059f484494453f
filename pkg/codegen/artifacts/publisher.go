package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/platinummonkey/avrobuild/pkg/codegen/config"
)

// S3Publisher uploads bundles to S3
type S3Publisher struct {
	client S3API
	config *Config
}

// NewS3Publisher creates a publisher using the default AWS credential chain
func NewS3Publisher(ctx context.Context, cfg *Config) (*S3Publisher, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewS3PublisherWithClient(s3.NewFromConfig(awsCfg), cfg), nil
}

// NewS3PublisherWithClient creates a publisher over an existing client
func NewS3PublisherWithClient(client S3API, cfg *Config) *S3Publisher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &S3Publisher{client: client, config: cfg}
}

// Publish uploads bundle as the artifact of module at version
func (p *S3Publisher) Publish(ctx context.Context, bundle *Bundle, module, version string) (*PublishResult, error) {
	if bundle == nil {
		return nil, fmt.Errorf("bundle cannot be nil")
	}
	if p.config.S3Bucket == "" {
		return nil, ErrBucketRequired
	}

	f, err := os.Open(bundle.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle: %w", err)
	}
	defer f.Close()

	key := p.buildS3Key(module, version)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.config.S3Bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(bundle.Size),
		ContentType:   aws.String("application/zip"),
		Metadata: map[string]string{
			"sha256":  bundle.Hash,
			"module":  module,
			"version": version,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return &PublishResult{
		S3Key:    key,
		S3Bucket: p.config.S3Bucket,
		Hash:     bundle.Hash,
		Size:     bundle.Size,
	}, nil
}

// Exists checks if an artifact was published
func (p *S3Publisher) Exists(ctx context.Context, module, version string) (bool, error) {
	_, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.config.S3Bucket),
		Key:    aws.String(p.buildS3Key(module, version)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check artifact: %w", err)
	}
	return true, nil
}

// Delete removes a published artifact
func (p *S3Publisher) Delete(ctx context.Context, module, version string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.config.S3Bucket),
		Key:    aws.String(p.buildS3Key(module, version)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// buildS3Key builds an S3 key from module info
func (p *S3Publisher) buildS3Key(module, version string) string {
	// Format: {prefix}/{module}/{version}/{bundle name}
	return path.Join(p.config.S3Prefix, module, version, config.DefaultBundleName)
}
