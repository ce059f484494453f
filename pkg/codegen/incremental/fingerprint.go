package incremental

import (
	"context"
	"errors"
	"maps"

	"github.com/platinummonkey/avrobuild/pkg/codegen/cache"
	"github.com/platinummonkey/avrobuild/pkg/codegen/config"
	"github.com/platinummonkey/avrobuild/pkg/schema"
)

// Fingerprint is the persisted summary of the last successful compile
type Fingerprint struct {
	// Files maps every discovered schema file to its modification time
	Files map[string]int64 `json:"files"`

	// PolicyDigest is the digest of the effective output policy
	PolicyDigest string `json:"policy_digest"`

	// Outputs lists the files the compile produced
	Outputs []string `json:"outputs"`
}

// NewFingerprint stamps files and combines them with the policy digest
func NewFingerprint(files []schema.SourceFile, policyDigest string) (*Fingerprint, error) {
	stamps, err := schema.Stamp(files)
	if err != nil {
		return nil, err
	}
	return &Fingerprint{Files: stamps, PolicyDigest: policyDigest}, nil
}

// Matches reports whether f describes the same sources and policy as other.
// Outputs are not compared.
func (f *Fingerprint) Matches(other *Fingerprint) bool {
	if f == nil || other == nil {
		return false
	}
	return f.PolicyDigest == other.PolicyDigest && maps.Equal(f.Files, other.Files)
}

func (d *Driver) fingerprintKey() string {
	return cache.FingerprintKey(d.config.CacheName, d.config.Configuration)
}

// loadFingerprint returns the persisted fingerprint, or nil when there is
// none or it cannot be read
func (d *Driver) loadFingerprint(ctx context.Context) *Fingerprint {
	var f Fingerprint
	err := cache.GetJSON(ctx, d.stores.Compile, d.fingerprintKey(), &f)
	switch {
	case err == nil:
		d.metrics.RecordCache(config.DefaultCompileStoreName, "get", "hit")
		return &f
	case errors.Is(err, cache.ErrCacheMiss):
		d.metrics.RecordCache(config.DefaultCompileStoreName, "get", "miss")
	default:
		d.metrics.RecordCache(config.DefaultCompileStoreName, "get", "error")
		d.log.WithError(err).Warn("Failed to read compile fingerprint, recompiling")
	}
	return nil
}

func (d *Driver) saveFingerprint(ctx context.Context, f *Fingerprint) error {
	if err := cache.PutJSON(ctx, d.stores.Compile, d.fingerprintKey(), f); err != nil {
		d.metrics.RecordCache(config.DefaultCompileStoreName, "put", "error")
		return err
	}
	d.metrics.RecordCache(config.DefaultCompileStoreName, "put", "ok")
	return nil
}
