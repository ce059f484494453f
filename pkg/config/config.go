package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/avrobuild/pkg/codegen"
	"github.com/platinummonkey/avrobuild/pkg/codegen/artifacts"
	"github.com/platinummonkey/avrobuild/pkg/codegen/cache"
	defaults "github.com/platinummonkey/avrobuild/pkg/codegen/config"
	"github.com/platinummonkey/avrobuild/pkg/codegen/extract"
	"github.com/platinummonkey/avrobuild/pkg/codegen/incremental"
	"github.com/platinummonkey/avrobuild/pkg/observability"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when settings fail validation
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all build settings
type Config struct {
	SourceDir     string `yaml:"source_dir"`
	OutputDir     string `yaml:"output_dir"`
	ExtractDir    string `yaml:"extract_dir"`
	Configuration string `yaml:"configuration"`

	// Dependencies are the schema archives of dependencies, in resolution order
	Dependencies          []Dependency `yaml:"dependencies"`
	NamespacedArchiveKeys bool         `yaml:"namespaced_archive_keys"`

	Policy codegen.Policy `yaml:"policy"`

	// SeedSchemas are .avsc files whose types every build starts with
	SeedSchemas       []string `yaml:"seed_schemas"`
	AllowRedefinition bool     `yaml:"allow_redefinition"`

	Cache         CacheConfig         `yaml:"cache"`
	Package       PackageConfig       `yaml:"package"`
	Observability ObservabilityConfig `yaml:"observability"`
	Watch         WatchConfig         `yaml:"watch"`
}

// Dependency is one dependency archive
type Dependency struct {
	Identity string `yaml:"identity"`
	Path     string `yaml:"path"`
}

// CacheConfig holds cache store settings
type CacheConfig struct {
	Type        string        `yaml:"type"`
	Dir         string        `yaml:"dir"`
	RedisURL    string        `yaml:"redis_url"`
	RedisPrefix string        `yaml:"redis_prefix"`
	L1Entries   int           `yaml:"l1_entries"`
	L1TTL       time.Duration `yaml:"l1_ttl"`
}

// PackageConfig holds schema bundle settings
type PackageConfig struct {
	Bundle   string `yaml:"bundle"`
	Module   string `yaml:"module"`
	Version  string `yaml:"version"`
	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
	S3Region string `yaml:"s3_region"`
}

// ObservabilityConfig holds logging, metrics and tracing settings
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// MetricsAddr serves /metrics while watching, when set
	MetricsAddr string `yaml:"metrics_addr"`

	// OTLPEndpoint receives spans over OTLP/gRPC, when set
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

// WatchConfig holds watch mode settings
type WatchConfig struct {
	Delay time.Duration `yaml:"delay"`
}

// Default returns the settings used when nothing is configured
func Default() *Config {
	cacheDefaults := cache.DefaultConfig()
	artifactDefaults := artifacts.DefaultConfig()

	return &Config{
		SourceDir:             defaults.DefaultSourceDir,
		OutputDir:             defaults.DefaultOutputDir,
		ExtractDir:            defaults.DefaultExtractDir,
		Configuration:         defaults.DefaultConfiguration,
		NamespacedArchiveKeys: true,
		Policy:                codegen.DefaultPolicy(),
		Cache: CacheConfig{
			Type:        cacheDefaults.Type,
			Dir:         cacheDefaults.Dir,
			RedisPrefix: cacheDefaults.RedisPrefix,
			L1Entries:   cacheDefaults.L1Entries,
			L1TTL:       cacheDefaults.L1TTL,
		},
		Package: PackageConfig{
			Bundle:   filepath.Join("build", defaults.DefaultBundleName),
			S3Prefix: artifactDefaults.S3Prefix,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: observability.FormatText,
		},
		Watch: WatchConfig{
			Delay: defaults.DefaultWatchDelay,
		},
	}
}

// Load reads the settings file at path, applies environment overrides and
// validates the result. An empty path loads defaults and environment only;
// relative paths are then resolved against the working directory.
func Load(path string) (*Config, error) {
	cfg := Default()
	baseDir := "."

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
		baseDir = filepath.Dir(path)
	}

	cfg.applyEnv()
	cfg.resolvePaths(baseDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnv applies AVROBUILD_* overrides
func (c *Config) applyEnv() {
	c.SourceDir = getEnv("AVROBUILD_SOURCE_DIR", c.SourceDir)
	c.OutputDir = getEnv("AVROBUILD_OUTPUT_DIR", c.OutputDir)
	c.ExtractDir = getEnv("AVROBUILD_EXTRACT_DIR", c.ExtractDir)
	c.Configuration = getEnv("AVROBUILD_CONFIGURATION", c.Configuration)

	// Policy
	c.Policy.StringType = codegen.StringType(getEnv("AVROBUILD_STRING_TYPE", string(c.Policy.StringType)))
	c.Policy.FieldVisibility = codegen.FieldVisibility(getEnv("AVROBUILD_FIELD_VISIBILITY", string(c.Policy.FieldVisibility)))
	c.Policy.EnableDecimalLogicalType = getEnvBool("AVROBUILD_ENABLE_DECIMAL_LOGICAL_TYPE", c.Policy.EnableDecimalLogicalType)
	c.Policy.ValidateNamespace = getEnvBool("AVROBUILD_VALIDATE_NAMESPACE", c.Policy.ValidateNamespace)
	c.Policy.OptionalGetters = getEnvBool("AVROBUILD_OPTIONAL_GETTERS", c.Policy.OptionalGetters)
	c.Policy.Backend = getEnv("AVROBUILD_BACKEND", c.Policy.Backend)
	c.Policy.ModulePath = getEnv("AVROBUILD_MODULE_PATH", c.Policy.ModulePath)

	// Cache
	c.Cache.Type = getEnv("AVROBUILD_CACHE_TYPE", c.Cache.Type)
	c.Cache.Dir = getEnv("AVROBUILD_CACHE_DIR", c.Cache.Dir)
	c.Cache.RedisURL = getEnv("AVROBUILD_REDIS_URL", c.Cache.RedisURL)
	c.Cache.L1Entries = getEnvInt("AVROBUILD_L1_ENTRIES", c.Cache.L1Entries)

	// Packaging
	c.Package.S3Bucket = getEnv("AVROBUILD_S3_BUCKET", c.Package.S3Bucket)
	c.Package.S3Region = getEnv("AVROBUILD_S3_REGION", c.Package.S3Region)

	// Observability
	c.Observability.LogLevel = getEnv("AVROBUILD_LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = getEnv("AVROBUILD_LOG_FORMAT", c.Observability.LogFormat)
	c.Observability.MetricsAddr = getEnv("AVROBUILD_METRICS_ADDR", c.Observability.MetricsAddr)
	c.Observability.OTLPEndpoint = getEnv("AVROBUILD_OTLP_ENDPOINT", c.Observability.OTLPEndpoint)
	c.Observability.OTLPInsecure = getEnvBool("AVROBUILD_OTLP_INSECURE", c.Observability.OTLPInsecure)

	c.Watch.Delay = getEnvDuration("AVROBUILD_WATCH_DELAY", c.Watch.Delay)
}

func (c *Config) resolvePaths(baseDir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	c.SourceDir = resolve(c.SourceDir)
	c.OutputDir = resolve(c.OutputDir)
	c.ExtractDir = resolve(c.ExtractDir)
	c.Cache.Dir = resolve(c.Cache.Dir)
	c.Package.Bundle = resolve(c.Package.Bundle)
	for i := range c.Dependencies {
		c.Dependencies[i].Path = resolve(c.Dependencies[i].Path)
	}
	for i := range c.SeedSchemas {
		c.SeedSchemas[i] = resolve(c.SeedSchemas[i])
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("%w: source directory is required", ErrInvalidConfig)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output directory is required", ErrInvalidConfig)
	}
	if c.Configuration == "" {
		return fmt.Errorf("%w: configuration name is required", ErrInvalidConfig)
	}
	if len(c.Dependencies) > 0 && c.ExtractDir == "" {
		return fmt.Errorf("%w: extract directory is required when dependencies are configured", ErrInvalidConfig)
	}
	for i, dep := range c.Dependencies {
		if dep.Path == "" {
			return fmt.Errorf("%w: dependency %d has no path", ErrInvalidConfig, i)
		}
	}

	if err := c.Policy.Validate(); err != nil {
		return err
	}

	switch c.Cache.Type {
	case cache.TypeFile, cache.TypeSQLite:
		if c.Cache.Dir == "" {
			return fmt.Errorf("%w: cache directory is required for %s cache", ErrInvalidConfig, c.Cache.Type)
		}
	case cache.TypeRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("%w: redis URL is required for redis cache", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: invalid cache type: %s (must be file, sqlite, or redis)", ErrInvalidConfig, c.Cache.Type)
	}

	switch strings.ToLower(c.Observability.LogFormat) {
	case observability.FormatText, observability.FormatJSON:
	default:
		return fmt.Errorf("%w: invalid log format: %s", ErrInvalidConfig, c.Observability.LogFormat)
	}

	if c.Watch.Delay < 0 {
		return fmt.Errorf("%w: watch delay cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// CacheConfig returns the cache store configuration
func (c *Config) CacheConfig() *cache.Config {
	return &cache.Config{
		Type:        c.Cache.Type,
		Dir:         c.Cache.Dir,
		RedisURL:    c.Cache.RedisURL,
		RedisPrefix: c.Cache.RedisPrefix,
		L1Entries:   c.Cache.L1Entries,
		L1TTL:       c.Cache.L1TTL,
	}
}

// Archives returns the dependency archives in order
func (c *Config) Archives() []extract.Archive {
	archives := make([]extract.Archive, 0, len(c.Dependencies))
	for _, dep := range c.Dependencies {
		archives = append(archives, extract.Archive{Identity: dep.Identity, Path: dep.Path})
	}
	return archives
}

// DriverConfig returns the incremental driver configuration
func (c *Config) DriverConfig() *incremental.Config {
	return &incremental.Config{
		SourceDir:             c.SourceDir,
		OutputDir:             c.OutputDir,
		ExtractDir:            c.ExtractDir,
		Archives:              c.Archives(),
		NamespacedArchiveKeys: c.NamespacedArchiveKeys,
		CacheName:             defaults.DefaultCompileCacheName,
		Configuration:         c.Configuration,
		Policy:                c.Policy,
	}
}

// OTelConfig returns the tracing settings
func (c *Config) OTelConfig() observability.OTelConfig {
	return observability.OTelConfig{
		Endpoint:    c.Observability.OTLPEndpoint,
		ServiceName: "avrobuild",
		Insecure:    c.Observability.OTLPInsecure,
	}
}

// ArtifactsConfig returns the bundle publisher configuration
func (c *Config) ArtifactsConfig() *artifacts.Config {
	return &artifacts.Config{
		S3Bucket: c.Package.S3Bucket,
		S3Prefix: c.Package.S3Prefix,
		S3Region: c.Package.S3Region,
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
