// Package cache provides key derivation and key-value stores for incremental build state.
//
// Two independent stores are used by a build: one for archive extraction records and
// one for the compile fingerprint. Both are addressed by string keys built here.
//
// Key Format Version: v1
//
//	archive:v1:{identity}:{archive file name}   (namespaced)
//	archive:v1:{archive file name}              (legacy, shared by identical names)
//	fingerprint:v1:{cache name}:{configuration}
//
// CHANGING THESE FORMATS INVALIDATES ALL PERSISTED BUILD STATE
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

const keyVersion = "v1"

// ArchiveKey derives the key of an archive extraction record. When namespaced
// is true the owning identity is part of the key, so two dependencies that
// ship an archive with the same file name never share a record.
func ArchiveKey(identity, archivePath string, namespaced bool) string {
	name := filepath.Base(archivePath)
	if namespaced && identity != "" {
		return strings.Join([]string{"archive", keyVersion, identity, name}, ":")
	}
	return strings.Join([]string{"archive", keyVersion, name}, ":")
}

// FingerprintKey derives the key of a compile fingerprint. The cache name is
// fixed per build, the configuration separates e.g. main and test sources.
func FingerprintKey(cacheName, configuration string) string {
	return strings.Join([]string{"fingerprint", keyVersion, cacheName, configuration}, ":")
}

// ValidateKey validates a cache key
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key is empty", ErrInvalidCacheKey)
	}
	if strings.ContainsAny(key, "\x00\n") {
		return fmt.Errorf("%w: key contains control characters", ErrInvalidCacheKey)
	}
	return nil
}

// fileName maps a key to a filesystem-safe name. Keys carry identities and
// archive names which may contain separators, so they are hashed.
func fileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:]) + ".json"
}
