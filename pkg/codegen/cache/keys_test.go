package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArchiveKey(t *testing.T) {
	t.Run("namespaced keys differ per identity", func(t *testing.T) {
		a := ArchiveKey("com.acme:orders:1.0", "/repo/a/schemas.jar", true)
		b := ArchiveKey("com.acme:billing:2.0", "/repo/b/schemas.jar", true)
		assert.NotEqual(t, a, b)
		assert.Equal(t, "archive:v1:com.acme:orders:1.0:schemas.jar", a)
	})

	t.Run("legacy keys collide on file name", func(t *testing.T) {
		a := ArchiveKey("com.acme:orders:1.0", "/repo/a/schemas.jar", false)
		b := ArchiveKey("com.acme:billing:2.0", "/repo/b/schemas.jar", false)
		assert.Equal(t, a, b)
		assert.Equal(t, "archive:v1:schemas.jar", a)
	})

	t.Run("empty identity falls back to file name", func(t *testing.T) {
		assert.Equal(t, "archive:v1:x.zip", ArchiveKey("", "x.zip", true))
	})
}

func TestFingerprintKey(t *testing.T) {
	assert.Equal(t, "fingerprint:v1:avro-compile:main", FingerprintKey("avro-compile", "main"))
	assert.NotEqual(t, FingerprintKey("avro-compile", "main"), FingerprintKey("avro-compile", "test"))
}

func TestValidateKey(t *testing.T) {
	assert.ErrorIs(t, ValidateKey(""), ErrInvalidCacheKey)
	assert.ErrorIs(t, ValidateKey("a\nb"), ErrInvalidCacheKey)
	assert.NoError(t, ValidateKey("archive:v1:x.zip"))
}

func TestFileName(t *testing.T) {
	name := fileName("archive:v1:com/acme:x.zip")
	assert.NotContains(t, name, "/")
	assert.Equal(t, name, fileName("archive:v1:com/acme:x.zip"))
	assert.NotEqual(t, name, fileName("archive:v1:other"))
}
