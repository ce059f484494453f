// Package config provides default configuration values for the codegen system
//
// CENTRALIZED DEFAULTS: All magic constants should be defined here
//
// This file is the single source of truth for default values across the
// codegen packages. Values that end up in persisted cache keys (cache names,
// prefixes) must not change casually: doing so orphans existing build state.
package config

import (
	"time"
)

// Cache Configuration Defaults
const (
	// DefaultCacheDir is the cache root used when the host build tool does not
	// supply one.
	DefaultCacheDir = "build/avro-cache"

	// DefaultCompileCacheName is the fixed cache name the compile fingerprint
	// is stored under.
	DefaultCompileCacheName = "avro-compile"

	// DefaultExtractStoreName and DefaultCompileStoreName name the two
	// independent cache stores.
	DefaultExtractStoreName = "extract"
	DefaultCompileStoreName = "compile"

	// DefaultRedisPrefix prefixes every key written to a shared Redis store
	DefaultRedisPrefix = "avrobuild:"

	// DefaultL1Entries is the size of the in-memory front layer
	// Default: 256 entries
	//
	// A build touches one fingerprint plus one record per dependency archive,
	// so 256 comfortably covers large dependency graphs.
	DefaultL1Entries = 256

	// DefaultL1TTL bounds how long the front layer may serve an entry without
	// re-reading the backing store. Relevant for long-lived watch processes
	// sharing a Redis store with other machines.
	DefaultL1TTL = 5 * time.Minute
)

// Layout Defaults
const (
	// DefaultSourceDir is the local schema root
	DefaultSourceDir = "src/main/avro"

	// DefaultOutputDir receives generated Go sources
	DefaultOutputDir = "build/generated-main-avro-go"

	// DefaultExtractDir receives schema files unpacked from dependency archives
	DefaultExtractDir = "build/avro-dependencies"

	// DefaultConfiguration names the build configuration when none is given
	DefaultConfiguration = "main"

	// DefaultModulePath is the Go import path of the output tree
	DefaultModulePath = "avrogen"

	// DefaultPackage holds types declared without a namespace
	DefaultPackage = "avro"

	// DefaultBundleName is the file name of the packaged schema bundle
	DefaultBundleName = "schemas.zip"
)

// Watch Defaults
const (
	// DefaultWatchDelay is how long the watcher waits after the last change
	// before it triggers a build
	DefaultWatchDelay = 2 * time.Second
)
