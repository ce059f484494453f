package artifacts

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockS3Client is a mock S3 client for testing
type mockS3Client struct {
	putObjectFunc    func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	headObjectFunc   func(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	deleteObjectFunc func(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putObjectFunc != nil {
		return m.putObjectFunc(ctx, params, optFns...)
	}
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if m.headObjectFunc != nil {
		return m.headObjectFunc(ctx, params, optFns...)
	}
	return &s3.HeadObjectOutput{}, nil
}

func (m *mockS3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.deleteObjectFunc != nil {
		return m.deleteObjectFunc(ctx, params, optFns...)
	}
	return &s3.DeleteObjectOutput{}, nil
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.S3Bucket = "test-bucket"
	cfg.S3Region = "us-west-2"
	return cfg
}

func testBundle(t *testing.T) *Bundle {
	t.Helper()
	sources := writeSources(t, map[string]string{"a.avsc": `{"type": "fixed", "name": "A", "size": 1}`})
	bundle, err := NewBundler().Bundle(sources, filepath.Join(t.TempDir(), "schemas.zip"))
	require.NoError(t, err)
	return bundle
}

func TestS3Publisher_Publish(t *testing.T) {
	bundle := testBundle(t)

	var captured *s3.PutObjectInput
	var body []byte
	client := &mockS3Client{
		putObjectFunc: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			captured = params
			data, err := io.ReadAll(params.Body)
			require.NoError(t, err)
			body = data
			return &s3.PutObjectOutput{}, nil
		},
	}

	result, err := NewS3PublisherWithClient(client, testConfig()).Publish(context.Background(), bundle, "com.example.shop", "1.2.0")
	require.NoError(t, err)

	assert.Equal(t, "schemas/com.example.shop/1.2.0/schemas.zip", result.S3Key)
	assert.Equal(t, "test-bucket", result.S3Bucket)
	assert.Equal(t, bundle.Hash, result.Hash)

	require.NotNil(t, captured)
	assert.Equal(t, "test-bucket", *captured.Bucket)
	assert.Equal(t, "application/zip", *captured.ContentType)
	assert.Equal(t, bundle.Hash, captured.Metadata["sha256"])
	assert.Equal(t, bundle.Size, int64(len(body)))
}

func TestS3Publisher_PublishErrors(t *testing.T) {
	bundle := testBundle(t)

	t.Run("upload failure", func(t *testing.T) {
		client := &mockS3Client{
			putObjectFunc: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
				return nil, errors.New("access denied")
			},
		}
		_, err := NewS3PublisherWithClient(client, testConfig()).Publish(context.Background(), bundle, "m", "v")
		assert.ErrorIs(t, err, ErrUploadFailed)
	})

	t.Run("no bucket", func(t *testing.T) {
		_, err := NewS3PublisherWithClient(&mockS3Client{}, DefaultConfig()).Publish(context.Background(), bundle, "m", "v")
		assert.ErrorIs(t, err, ErrBucketRequired)
	})

	t.Run("nil bundle", func(t *testing.T) {
		_, err := NewS3PublisherWithClient(&mockS3Client{}, testConfig()).Publish(context.Background(), nil, "m", "v")
		assert.Error(t, err)
	})
}

func TestS3Publisher_Exists(t *testing.T) {
	publisher := NewS3PublisherWithClient(&mockS3Client{}, testConfig())
	exists, err := publisher.Exists(context.Background(), "m", "v")
	require.NoError(t, err)
	assert.True(t, exists)

	publisher = NewS3PublisherWithClient(&mockS3Client{
		headObjectFunc: func(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
			return nil, &types.NotFound{}
		},
	}, testConfig())
	exists, err = publisher.Exists(context.Background(), "m", "v")
	require.NoError(t, err)
	assert.False(t, exists)

	publisher = NewS3PublisherWithClient(&mockS3Client{
		headObjectFunc: func(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
			return nil, errors.New("throttled")
		},
	}, testConfig())
	_, err = publisher.Exists(context.Background(), "m", "v")
	assert.Error(t, err)
}

func TestS3Publisher_Delete(t *testing.T) {
	var key string
	client := &mockS3Client{
		deleteObjectFunc: func(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
			key = *params.Key
			return &s3.DeleteObjectOutput{}, nil
		},
	}
	require.NoError(t, NewS3PublisherWithClient(client, testConfig()).Delete(context.Background(), "m", "v"))
	assert.Equal(t, "schemas/m/v/schemas.zip", key)
}

var _ Publisher = (*S3Publisher)(nil)
