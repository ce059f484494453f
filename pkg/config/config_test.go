package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/platinummonkey/avrobuild/pkg/codegen"
	"github.com/platinummonkey/avrobuild/pkg/codegen/cache"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "AVROBUILD_TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "AVROBUILD_TEST_VAR_NOT_SET",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			if got := getEnv(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		envValue     string
		defaultValue bool
		want         bool
	}{
		{"true", false, true},
		{"TRUE", false, true},
		{"1", false, true},
		{"false", true, false},
		{"yes", true, false},
		{"", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv("AVROBUILD_TEST_BOOL", tt.envValue)
			if got := getEnvBool("AVROBUILD_TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool(%q) = %v, want %v", tt.envValue, got, tt.want)
			}
		})
	}
}

// TestGetEnvInt tests the getEnvInt helper function
func TestGetEnvInt(t *testing.T) {
	t.Setenv("AVROBUILD_TEST_INT", "42")
	if got := getEnvInt("AVROBUILD_TEST_INT", 7); got != 42 {
		t.Errorf("getEnvInt() = %d, want 42", got)
	}

	t.Setenv("AVROBUILD_TEST_INT", "not-a-number")
	if got := getEnvInt("AVROBUILD_TEST_INT", 7); got != 7 {
		t.Errorf("getEnvInt() with invalid value = %d, want 7", got)
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	t.Setenv("AVROBUILD_TEST_DURATION", "500ms")
	if got := getEnvDuration("AVROBUILD_TEST_DURATION", time.Second); got != 500*time.Millisecond {
		t.Errorf("getEnvDuration() = %v, want 500ms", got)
	}

	t.Setenv("AVROBUILD_TEST_DURATION", "soon")
	if got := getEnvDuration("AVROBUILD_TEST_DURATION", time.Second); got != time.Second {
		t.Errorf("getEnvDuration() with invalid value = %v, want 1s", got)
	}
}

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "avrobuild.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.SourceDir != "src/main/avro" {
		t.Errorf("SourceDir = %q", cfg.SourceDir)
	}
	if cfg.Policy != codegen.DefaultPolicy() {
		t.Errorf("Policy = %+v, want defaults", cfg.Policy)
	}
	if !cfg.NamespacedArchiveKeys {
		t.Error("NamespacedArchiveKeys should default to true")
	}
	if cfg.Cache.Type != cache.TypeFile {
		t.Errorf("Cache.Type = %q, want file", cfg.Cache.Type)
	}
	if cfg.Watch.Delay != 2*time.Second {
		t.Errorf("Watch.Delay = %v, want 2s", cfg.Watch.Delay)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeSettings(t, `
source_dir: schemas
output_dir: /tmp/generated
configuration: test
dependencies:
  - identity: com.example:events:1.4.0
    path: libs/events.jar
seed_schemas:
  - seeds/money.avsc
policy:
  string_type: Utf8
  field_visibility: private
  enable_decimal_logical_type: false
  backend: legacy
  module_path: example.com/gen
  default_package: gen
cache:
  type: sqlite
  l1_entries: 0
watch:
  delay: 250ms
`)
	base := filepath.Dir(path)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.SourceDir != filepath.Join(base, "schemas") {
		t.Errorf("SourceDir = %q, want resolved against settings dir", cfg.SourceDir)
	}
	if cfg.OutputDir != "/tmp/generated" {
		t.Errorf("OutputDir = %q, absolute path should be kept", cfg.OutputDir)
	}
	if cfg.Configuration != "test" {
		t.Errorf("Configuration = %q", cfg.Configuration)
	}
	if len(cfg.Dependencies) != 1 || cfg.Dependencies[0].Path != filepath.Join(base, "libs/events.jar") {
		t.Errorf("Dependencies = %+v", cfg.Dependencies)
	}
	if len(cfg.SeedSchemas) != 1 || cfg.SeedSchemas[0] != filepath.Join(base, "seeds/money.avsc") {
		t.Errorf("SeedSchemas = %v", cfg.SeedSchemas)
	}
	if cfg.Policy.StringType != codegen.StringTypeUtf8 || cfg.Policy.FieldVisibility != codegen.FieldVisibilityPrivate {
		t.Errorf("Policy = %+v", cfg.Policy)
	}
	if cfg.Policy.EnableDecimalLogicalType {
		t.Error("EnableDecimalLogicalType should be false")
	}
	if cfg.Cache.Type != cache.TypeSQLite || cfg.Cache.L1Entries != 0 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Watch.Delay != 250*time.Millisecond {
		t.Errorf("Watch.Delay = %v", cfg.Watch.Delay)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeSettings(t, "source_dir: schemas\n")

	t.Setenv("AVROBUILD_SOURCE_DIR", "/srv/avro")
	t.Setenv("AVROBUILD_STRING_TYPE", "CharSequence")
	t.Setenv("AVROBUILD_OPTIONAL_GETTERS", "true")
	t.Setenv("AVROBUILD_LOG_FORMAT", "json")
	t.Setenv("AVROBUILD_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("AVROBUILD_OTLP_INSECURE", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SourceDir != "/srv/avro" {
		t.Errorf("SourceDir = %q, env should win over file", cfg.SourceDir)
	}
	if cfg.Policy.StringType != codegen.StringTypeCharSequence {
		t.Errorf("StringType = %q", cfg.Policy.StringType)
	}
	if !cfg.Policy.OptionalGetters {
		t.Error("OptionalGetters should be true")
	}
	if cfg.Observability.LogFormat != "json" {
		t.Errorf("LogFormat = %q", cfg.Observability.LogFormat)
	}
	if otel := cfg.OTelConfig(); otel.Endpoint != "collector:4317" || !otel.Insecure || otel.ServiceName != "avrobuild" {
		t.Errorf("OTelConfig() = %+v", otel)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing settings file")
	}

	path := writeSettings(t, "source_dir: [unterminated\n")
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load() malformed YAML error = %v, want ErrInvalidConfig", err)
	}

	path = writeSettings(t, "policy:\n  string_type: Rope\n")
	if _, err := Load(path); !errors.Is(err, codegen.ErrUnsupportedOption) {
		t.Errorf("Load() bad policy error = %v, want ErrUnsupportedOption", err)
	}
}

// TestValidate tests configuration validation
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing source dir",
			modify:  func(c *Config) { c.SourceDir = "" },
			wantErr: true,
		},
		{
			name:    "missing output dir",
			modify:  func(c *Config) { c.OutputDir = "" },
			wantErr: true,
		},
		{
			name:    "missing configuration",
			modify:  func(c *Config) { c.Configuration = "" },
			wantErr: true,
		},
		{
			name: "dependency without extract dir",
			modify: func(c *Config) {
				c.ExtractDir = ""
				c.Dependencies = []Dependency{{Identity: "a", Path: "a.jar"}}
			},
			wantErr: true,
		},
		{
			name:    "dependency without path",
			modify:  func(c *Config) { c.Dependencies = []Dependency{{Identity: "a"}} },
			wantErr: true,
		},
		{
			name:    "unknown cache type",
			modify:  func(c *Config) { c.Cache.Type = "memcached" },
			wantErr: true,
		},
		{
			name:    "redis without URL",
			modify:  func(c *Config) { c.Cache.Type = cache.TypeRedis },
			wantErr: true,
		},
		{
			name: "redis with URL",
			modify: func(c *Config) {
				c.Cache.Type = cache.TypeRedis
				c.Cache.RedisURL = "redis://localhost:6379/0"
			},
			wantErr: false,
		},
		{
			name:    "unknown log format",
			modify:  func(c *Config) { c.Observability.LogFormat = "xml" },
			wantErr: true,
		},
		{
			name:    "negative watch delay",
			modify:  func(c *Config) { c.Watch.Delay = -time.Second },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConverters(t *testing.T) {
	cfg := Default()
	cfg.Dependencies = []Dependency{
		{Identity: "com.example:b:1", Path: "b.jar"},
		{Identity: "com.example:a:1", Path: "a.jar"},
	}
	cfg.Package.S3Bucket = "artifacts"

	archives := cfg.Archives()
	if len(archives) != 2 || archives[0].Identity != "com.example:b:1" {
		t.Errorf("Archives() = %+v, want configured order", archives)
	}

	driver := cfg.DriverConfig()
	if driver.SourceDir != cfg.SourceDir || driver.OutputDir != cfg.OutputDir {
		t.Errorf("DriverConfig() dirs = %q, %q", driver.SourceDir, driver.OutputDir)
	}
	if driver.CacheName == "" {
		t.Error("DriverConfig() should set a cache name")
	}
	if len(driver.Archives) != 2 || driver.Policy != cfg.Policy {
		t.Errorf("DriverConfig() = %+v", driver)
	}

	cacheCfg := cfg.CacheConfig()
	if cacheCfg.Type != cfg.Cache.Type || cacheCfg.Dir != cfg.Cache.Dir {
		t.Errorf("CacheConfig() = %+v", cacheCfg)
	}

	if got := cfg.ArtifactsConfig(); got.S3Bucket != "artifacts" || got.S3Prefix != "schemas/" {
		t.Errorf("ArtifactsConfig() = %+v", got)
	}
}
