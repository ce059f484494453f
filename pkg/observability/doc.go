// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Overview
//
// Every build component takes an optional *logrus.Logger and an optional
// *Metrics. A nil Metrics records nothing, so library callers and tests do
// not need a registry.
//
// # Structured Logging
//
// Create logger:
//
//	log, err := observability.NewLogger("debug", observability.FormatJSON, os.Stderr)
//	log.WithField("root", dir).Info("Compiling source root")
//
// Run-scoped logging:
//
//	ctx = observability.WithRunID(ctx, runID)
//	observability.FromContext(ctx).Info("Build finished")
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.RecordCompilation("schema", err, time.Since(start))
//
// # OpenTelemetry
//
// Spans are created on the global tracer provider; without a configured
// provider they are no-ops:
//
//	ctx, span := observability.StartSpan(ctx, "extract")
//	defer func() { observability.EndSpan(span, err) }()
//
// # Related Packages
//
//   - pkg/config: logging and metrics settings
//   - pkg/codegen/incremental: the main producer of metrics and spans
package observability
