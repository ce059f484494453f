// Package cli provides the avrobuild command-line interface.
//
// # Overview
//
// This package implements the `avrobuild` tool: it loads build settings,
// runs the incremental driver and packages schema sources from the terminal.
//
// # Commands
//
// compile: Extract dependencies and compile changed schemas
//
//	avrobuild compile --config avrobuild.yaml
//
// clean: Forget build state and remove generated sources
//
//	avrobuild clean --dependencies
//
// extract: Unpack schema files from dependency archives only
//
//	avrobuild extract
//
// package: Bundle the raw schema sources, optionally publishing to S3
//
//	avrobuild package \
//		--output build/schemas.zip \
//		--publish \
//		--module events \
//		--version v1.4.0
//
// watch: Rebuild whenever schema sources or dependency archives change
//
//	avrobuild watch --delay 500ms
//
// # Configuration
//
// Settings come from the file given by --config, or avrobuild.yaml in the
// working directory when present. See pkg/config for the file layout and
// the AVROBUILD_* environment overrides.
//
// # Related Packages
//
//   - pkg/config: Loads settings
//   - pkg/codegen/incremental: Runs builds
//   - pkg/codegen/artifacts: Bundles and publishes schema sources
package cli
