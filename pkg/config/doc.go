// Package config loads build settings from a YAML file with environment
// variable overrides.
//
// # Overview
//
// Settings are resolved in three layers: built-in defaults, the YAML file,
// then AVROBUILD_* environment variables. Relative paths are taken relative
// to the directory holding the settings file.
//
// # Settings File
//
//	source_dir: src/main/avro
//	output_dir: build/generated-main-avro-go
//	dependencies:
//	  - identity: com.example:events:1.4.0
//	    path: libs/events-1.4.0.jar
//	policy:
//	  string_type: String
//	  field_visibility: public
//	  validate_namespace: true
//	cache:
//	  type: sqlite
//	  dir: build/avro-cache
//
// # Environment Overrides
//
//	AVROBUILD_SOURCE_DIR="src/main/avro"
//	AVROBUILD_OUTPUT_DIR="build/generated"
//	AVROBUILD_CACHE_TYPE="redis"  # file, sqlite, redis
//	AVROBUILD_REDIS_URL="redis://localhost:6379/0"
//	AVROBUILD_STRING_TYPE="Utf8"  # CharSequence, String, Utf8
//	AVROBUILD_LOG_LEVEL="debug"
//	AVROBUILD_S3_BUCKET="schema-artifacts"
//
// # Usage Example
//
//	cfg, err := config.Load("avrobuild.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	driver, err := incremental.NewDriver(cfg.DriverConfig(), reg, stores)
//
// # Related Packages
//
//   - pkg/codegen/incremental: consumes the driver configuration
//   - pkg/codegen/cache: consumes the cache configuration
//   - pkg/cli: loads settings for every command
package config
