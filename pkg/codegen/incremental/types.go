package incremental

import (
	"context"
	"time"

	"github.com/platinummonkey/avrobuild/pkg/codegen"
	"github.com/platinummonkey/avrobuild/pkg/codegen/cache"
	"github.com/platinummonkey/avrobuild/pkg/codegen/config"
	"github.com/platinummonkey/avrobuild/pkg/codegen/extract"
	"github.com/platinummonkey/avrobuild/pkg/codegen/registry"
	"github.com/platinummonkey/avrobuild/pkg/schema"
)

// FileCompiler compiles one schema file. Implemented by the IDL and
// protocol compilers.
type FileCompiler interface {
	Compile(ctx context.Context, file schema.SourceFile, outDir string, policy codegen.Policy) (*codegen.Output, error)
}

// BatchCompiler compiles a batch of compact schema files against a registry
// snapshot
type BatchCompiler interface {
	Compile(ctx context.Context, refs []schema.SourceFile, outDir string, policy codegen.Policy, snap *registry.Snapshot) (*codegen.Output, error)
}

// State is the state of the build after fingerprinting
type State string

const (
	// StateClean means the sources match the persisted fingerprint
	StateClean State = "clean"
	// StateStale means the sources changed or no fingerprint exists
	StateStale State = "stale"
)

// Config holds driver configuration
type Config struct {
	// SourceDir is the local schema root
	SourceDir string

	// OutputDir receives generated sources
	OutputDir string

	// ExtractDir receives the contents of dependency archives
	ExtractDir string

	// Archives are the dependency archives, in resolution order
	Archives []extract.Archive

	// NamespacedArchiveKeys includes the owning identity in archive record keys
	NamespacedArchiveKeys bool

	// CacheName and Configuration address the persisted fingerprint
	CacheName     string
	Configuration string

	// Policy is applied to every compiler call
	Policy codegen.Policy
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		SourceDir:             config.DefaultSourceDir,
		OutputDir:             config.DefaultOutputDir,
		ExtractDir:            config.DefaultExtractDir,
		NamespacedArchiveKeys: true,
		CacheName:             config.DefaultCompileCacheName,
		Configuration:         config.DefaultConfiguration,
		Policy:                codegen.DefaultPolicy(),
	}
}

// Stores are the two independent cache stores a driver persists state in
type Stores struct {
	Extract cache.Store
	Compile cache.Store
}

// Result describes one run
type Result struct {
	RunID string
	State State

	// Files is the generated source set, scanned from the output directory
	Files []string

	// Compilations counts compiler invocations
	Compilations int

	// Extracted lists the schema files provided by dependency archives
	Extracted []string

	// Removed lists generated files deleted because no schema produces them
	Removed []string

	Duration time.Duration
}
