// Package incremental drives a build: it unpacks dependency archives,
// fingerprints every schema source and, when anything changed, runs the
// three compilers over each source root in order.
//
// A driver is in one of two states after fingerprinting. CLEAN means the
// persisted fingerprint matches the sources and the effective policy, so no
// compiler is invoked. STALE means something changed, or no fingerprint
// exists yet, and a full compile pass runs. Either way the run ends by
// scanning the output directory, so the reported file set is always live.
package incremental

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/platinummonkey/avrobuild/pkg/codegen"
	"github.com/platinummonkey/avrobuild/pkg/codegen/avpr"
	"github.com/platinummonkey/avrobuild/pkg/codegen/avsc"
	"github.com/platinummonkey/avrobuild/pkg/codegen/backends"
	"github.com/platinummonkey/avrobuild/pkg/codegen/extract"
	"github.com/platinummonkey/avrobuild/pkg/codegen/idl"
	"github.com/platinummonkey/avrobuild/pkg/codegen/output"
	"github.com/platinummonkey/avrobuild/pkg/codegen/registry"
	"github.com/platinummonkey/avrobuild/pkg/observability"
	"github.com/platinummonkey/avrobuild/pkg/schema"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Driver runs incremental builds for one configuration
type Driver struct {
	config    *Config
	policy    codegen.Policy
	registry  *registry.Registry
	stores    Stores
	extractor *extract.Extractor

	idl       FileCompiler
	schemas   BatchCompiler
	protocols FileCompiler

	backends *backends.Registry
	log      *logrus.Logger
	metrics  *observability.Metrics
}

// Option configures a Driver
type Option func(*Driver)

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(d *Driver) {
		d.log = log
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *observability.Metrics) Option {
	return func(d *Driver) {
		d.metrics = m
	}
}

// WithBackends sets the registry the policy's backend is resolved in
func WithBackends(r *backends.Registry) Option {
	return func(d *Driver) {
		d.backends = r
	}
}

// WithIDLCompiler replaces the IDL compiler
func WithIDLCompiler(c FileCompiler) Option {
	return func(d *Driver) {
		d.idl = c
	}
}

// WithSchemaCompiler replaces the compact schema compiler
func WithSchemaCompiler(c BatchCompiler) Option {
	return func(d *Driver) {
		d.schemas = c
	}
}

// WithProtocolCompiler replaces the protocol compiler
func WithProtocolCompiler(c FileCompiler) Option {
	return func(d *Driver) {
		d.protocols = c
	}
}

// NewDriver creates a driver. The registry may be shared by the drivers of
// several configurations; the driver publishes what it compiles into it.
func NewDriver(cfg *Config, reg *registry.Registry, stores Stores, opts ...Option) (*Driver, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.SourceDir == "" {
		return nil, ErrNoSourceDir
	}
	if cfg.OutputDir == "" {
		return nil, ErrNoOutputDir
	}
	if reg == nil {
		reg = registry.New()
	}
	if stores.Extract == nil || stores.Compile == nil {
		return nil, fmt.Errorf("both cache stores are required")
	}

	d := &Driver{
		config:   cfg,
		registry: reg,
		stores:   stores,
		log:      logrus.New(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.backends == nil {
		d.backends = backends.NewDefaultRegistry()
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	backend, err := d.backends.Resolve(cfg.Policy.Backend)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", codegen.ErrUnsupportedOption, err)
	}
	d.policy = cfg.Policy.Effective(backend, d.log)

	if d.idl == nil {
		d.idl = idl.NewCompiler(d.log)
	}
	if d.schemas == nil {
		d.schemas = avsc.NewCompiler(d.log)
	}
	if d.protocols == nil {
		d.protocols = avpr.NewCompiler(d.log)
	}

	d.extractor = extract.NewExtractor(stores.Extract,
		extract.WithNamespacedKeys(cfg.NamespacedArchiveKeys),
		extract.WithLogger(d.log),
		extract.WithMetrics(d.metrics),
	)
	return d, nil
}

// Policy returns the effective policy every compiler call receives
func (d *Driver) Policy() codegen.Policy {
	return d.policy
}

// Registry returns the type registry the driver publishes into
func (d *Driver) Registry() *registry.Registry {
	return d.registry
}

// Roots returns the source roots in compile order: every dependency root,
// then the local root
func (d *Driver) Roots() []schema.SourceRoot {
	roots := extract.Roots(d.config.Archives, d.config.ExtractDir)
	return append(roots, schema.SourceRoot{Dir: d.config.SourceDir, Origin: schema.OriginLocal})
}

// Run performs one build. On error the persisted fingerprint is left as it
// was, so the next run retries the same work.
func (d *Driver) Run(ctx context.Context) (result *Result, err error) {
	start := time.Now()
	result = &Result{RunID: uuid.NewString(), State: StateStale}

	ctx = observability.WithRunID(ctx, result.RunID)
	ctx, span := observability.StartSpan(ctx, "avrobuild.run",
		attribute.String("configuration", d.config.Configuration),
		attribute.String("run_id", result.RunID),
	)
	log := d.log.WithFields(logrus.Fields{
		"run_id":        result.RunID,
		"configuration": d.config.Configuration,
	})

	defer func() {
		result.Duration = time.Since(start)
		span.SetAttributes(attribute.String("state", string(result.State)))
		observability.EndSpan(span, err)
		d.metrics.RecordRun(string(result.State), err, result.Duration)
		if err != nil {
			log.WithError(err).Error("Build failed")
		}
	}()

	if result.Extracted, err = d.extract(ctx); err != nil {
		return result, err
	}

	files, err := schema.DiscoverAll(d.Roots())
	if err != nil {
		return result, err
	}

	current, err := NewFingerprint(files, d.policy.Digest())
	if err != nil {
		return result, err
	}

	if previous := d.loadFingerprint(ctx); current.Matches(previous) {
		result.State = StateClean
		log.Debug("Sources unchanged, skipping compilation")
	} else {
		log.WithField("files", len(files)).Info("Sources changed, compiling")

		out, compilations, err := d.compile(ctx, files)
		result.Compilations = compilations
		if err != nil {
			return result, err
		}

		if err := d.emitRegistered(out); err != nil {
			return result, err
		}

		if result.Removed, err = d.removeStale(out); err != nil {
			return result, err
		}

		current.Outputs = out.Sorted()
		if err := d.saveFingerprint(ctx, current); err != nil {
			return result, fmt.Errorf("failed to persist fingerprint: %w", err)
		}

		log.WithFields(logrus.Fields{
			"compilations": compilations,
			"written":      out.Written,
			"unchanged":    out.Unchanged,
			"removed":      len(result.Removed),
		}).Info("Compiled sources")
	}

	if result.Files, err = output.Collect(d.config.OutputDir, output.Extension); err != nil {
		return result, err
	}
	d.metrics.SetGeneratedFiles(len(result.Files))
	return result, nil
}

// Clean resets the type registry, forgets the persisted fingerprint and
// removes the generated files from the output directory. Files without the
// generated header are kept. The next run is STALE.
func (d *Driver) Clean(ctx context.Context) error {
	d.registry.Reset()

	if err := d.stores.Compile.Delete(ctx, d.fingerprintKey()); err != nil {
		return fmt.Errorf("failed to delete fingerprint: %w", err)
	}
	removed, err := d.removeGenerated(nil)
	if err != nil {
		return err
	}
	os.Remove(d.config.OutputDir)

	d.log.WithFields(logrus.Fields{
		"configuration": d.config.Configuration,
		"removed":       len(removed),
	}).Info("Cleaned build state")
	return nil
}

func (d *Driver) extract(ctx context.Context) (files []string, err error) {
	if len(d.config.Archives) == 0 {
		return nil, nil
	}

	ctx, span := observability.StartSpan(ctx, "avrobuild.extract",
		attribute.Int("archives", len(d.config.Archives)))
	defer func() { observability.EndSpan(span, err) }()

	return d.extractor.Extract(ctx, d.config.Archives, d.config.ExtractDir)
}

// compile runs the compilers over every root in order and returns what they
// produced and how many times a compiler was invoked
func (d *Driver) compile(ctx context.Context, files []schema.SourceFile) (*codegen.Output, int, error) {
	out := &codegen.Output{}
	compilations := 0

	for _, root := range d.Roots() {
		var inRoot []schema.SourceFile
		for _, f := range files {
			if f.Root == root.Dir {
				inRoot = append(inRoot, f)
			}
		}
		if len(inRoot) == 0 {
			continue
		}

		n, err := d.compileRoot(ctx, root, inRoot, out)
		compilations += n
		if err != nil {
			return nil, compilations, err
		}
	}
	return out, compilations, nil
}

func (d *Driver) compileRoot(ctx context.Context, root schema.SourceRoot, files []schema.SourceFile, out *codegen.Output) (n int, err error) {
	ctx, span := observability.StartSpan(ctx, "avrobuild.compile_root",
		attribute.String("root", root.Dir),
		attribute.String("origin", string(root.Origin)),
	)
	defer func() { observability.EndSpan(span, err) }()

	d.log.WithFields(logrus.Fields{
		"root":   root.Dir,
		"origin": root.Origin,
		"files":  len(files),
	}).Debug("Compiling source root")

	// Every IDL file is attempted; the root fails after the IDL stage if
	// any of them failed.
	var idlErrs []error
	for _, f := range schema.FilterFormat(files, schema.FormatIDL) {
		n++
		if err := d.track(schema.FormatIDL, out, func() (*codegen.Output, error) {
			return d.idl.Compile(ctx, f, d.config.OutputDir, d.policy)
		}); err != nil {
			idlErrs = append(idlErrs, err)
		}
	}
	if len(idlErrs) > 0 {
		return n, fmt.Errorf("%w: %w", ErrCompilationFailed, errors.Join(idlErrs...))
	}

	if refs := schema.FilterFormat(files, schema.FormatSchema); len(refs) > 0 {
		n++
		snap := d.registry.Snapshot()
		if err := d.track(schema.FormatSchema, out, func() (*codegen.Output, error) {
			return d.schemas.Compile(ctx, refs, d.config.OutputDir, d.policy, snap)
		}); err != nil {
			return n, fmt.Errorf("%w: %w", ErrCompilationFailed, err)
		}
		if err := d.registry.Publish(snap); err != nil {
			return n, fmt.Errorf("%w: %w", ErrCompilationFailed, err)
		}
		d.log.WithFields(logrus.Fields{
			"root":       root.Dir,
			"learned":    len(snap.Learned()),
			"registered": d.registry.Len(),
		}).Debug("Published schema types")
	}

	for _, f := range schema.FilterFormat(files, schema.FormatProtocol) {
		n++
		if err := d.track(schema.FormatProtocol, out, func() (*codegen.Output, error) {
			return d.protocols.Compile(ctx, f, d.config.OutputDir, d.policy)
		}); err != nil {
			return n, fmt.Errorf("%w: %w", ErrCompilationFailed, err)
		}
	}
	return n, nil
}

// track runs one compiler invocation and records its outcome
func (d *Driver) track(format schema.Format, out *codegen.Output, compile func() (*codegen.Output, error)) error {
	start := time.Now()
	o, err := compile()
	d.metrics.RecordCompilation(string(format), err, time.Since(start))
	if err != nil {
		d.metrics.RecordCompilationError(string(format), errorType(err))
		return err
	}
	out.Merge(o)
	return nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, codegen.ErrParse):
		return "parse"
	case errors.Is(err, codegen.ErrTypeResolution):
		return "type_resolution"
	case errors.Is(err, codegen.ErrNamespaceMismatch):
		return "namespace"
	case errors.Is(err, codegen.ErrTypeRedefined):
		return "redefined"
	case errors.Is(err, codegen.ErrUnsupportedOption):
		return "unsupported_option"
	default:
		return "other"
	}
}

// emitRegistered writes every registered type this pass did not produce.
// Types can stay registered after their source is gone, and seeded types
// have no source at all; generated files may still refer to both.
func (d *Driver) emitRegistered(out *codegen.Output) error {
	emitter, err := codegen.NewEmitter(d.config.OutputDir, d.policy)
	if err != nil {
		return err
	}

	produced := make(map[string]bool, len(out.Files))
	for _, f := range out.Sorted() {
		produced[f] = true
	}

	for _, name := range d.registry.Names() {
		registered, ok := d.registry.Lookup(name)
		if !ok || produced[filepath.Clean(emitter.Path(registered))] {
			continue
		}
		if err := emitter.Emit(registered); err != nil {
			return fmt.Errorf("%w: %w", ErrCompilationFailed, err)
		}
	}

	kept := emitter.Output()
	if len(kept.Files) > 0 {
		d.log.WithField("files", len(kept.Files)).Debug("Emitted registered types without sources")
	}
	out.Merge(kept)
	return nil
}

// removeStale deletes generated files in the output directory that this
// pass did not produce. Files without the generated header are kept.
func (d *Driver) removeStale(out *codegen.Output) ([]string, error) {
	produced := make(map[string]bool, len(out.Files))
	for _, f := range out.Sorted() {
		produced[f] = true
	}

	removed, err := d.removeGenerated(produced)
	d.metrics.RecordStaleRemoved(len(removed))
	if len(removed) > 0 {
		d.log.WithField("files", len(removed)).Info("Removed stale generated files")
	}
	return removed, err
}

// removeGenerated deletes the generated files in the output directory that
// are not in keep
func (d *Driver) removeGenerated(keep map[string]bool) ([]string, error) {
	existing, err := output.Collect(d.config.OutputDir, output.Extension)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, f := range existing {
		if keep[filepath.Clean(f)] {
			continue
		}
		generated, err := codegen.IsGenerated(f)
		if err != nil {
			return removed, err
		}
		if !generated {
			continue
		}
		if err := os.Remove(f); err != nil {
			return removed, fmt.Errorf("failed to remove generated file %s: %w", f, err)
		}
		removed = append(removed, f)
		d.pruneEmptyDirs(filepath.Dir(f))
	}
	return removed, nil
}

// pruneEmptyDirs removes dir and its empty parents up to the output directory
func (d *Driver) pruneEmptyDirs(dir string) {
	root := filepath.Clean(d.config.OutputDir)
	for dir = filepath.Clean(dir); dir != root && strings.HasPrefix(dir, root+string(filepath.Separator)); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			return
		}
	}
}
