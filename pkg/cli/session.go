package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/platinummonkey/avrobuild/pkg/codegen/cache"
	defaults "github.com/platinummonkey/avrobuild/pkg/codegen/config"
	"github.com/platinummonkey/avrobuild/pkg/codegen/incremental"
	"github.com/platinummonkey/avrobuild/pkg/codegen/registry"
	"github.com/platinummonkey/avrobuild/pkg/config"
	"github.com/platinummonkey/avrobuild/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// DefaultConfigFile is loaded when --config is not given and the file exists
const DefaultConfigFile = "avrobuild.yaml"

// options are the persistent flags shared by every command
type options struct {
	configPath string
	logLevel   string
	logFormat  string
}

// settingsPath returns the settings file to load, or "" for defaults only
func (o *options) settingsPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// session is the state of one command invocation
type session struct {
	cfg     *config.Config
	log     *logrus.Logger
	prom    *prometheus.Registry
	metrics *observability.Metrics
	stores  incremental.Stores

	shutdownTracing observability.ShutdownFunc
}

// open loads settings, builds the logger, installs tracing and opens both
// cache stores
func (o *options) open(ctx context.Context, logOutput io.Writer) (*session, error) {
	cfg, err := config.Load(o.settingsPath())
	if err != nil {
		return nil, err
	}

	level := cfg.Observability.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}
	format := cfg.Observability.LogFormat
	if o.logFormat != "" {
		format = o.logFormat
	}
	log, err := observability.NewLogger(level, format, logOutput)
	if err != nil {
		return nil, err
	}

	prom := prometheus.NewRegistry()
	s := &session{
		cfg:     cfg,
		log:     log,
		prom:    prom,
		metrics: observability.NewMetrics(prom),
	}

	if s.shutdownTracing, err = observability.InitOTel(ctx, cfg.OTelConfig(), log); err != nil {
		return nil, err
	}

	cacheConfig := cfg.CacheConfig()
	if s.stores.Extract, err = cache.Open(cacheConfig, defaults.DefaultExtractStoreName); err != nil {
		s.stopTracing()
		return nil, fmt.Errorf("failed to open extract cache: %w", err)
	}
	if s.stores.Compile, err = cache.Open(cacheConfig, defaults.DefaultCompileStoreName); err != nil {
		s.stores.Extract.Close()
		s.stopTracing()
		return nil, fmt.Errorf("failed to open compile cache: %w", err)
	}
	return s, nil
}

// newDriver builds a driver over a fresh registry seeded from settings
func (s *session) newDriver(allowRedefinition bool) (*incremental.Driver, error) {
	seed, err := registry.LoadSeed(s.cfg.SeedSchemas...)
	if err != nil {
		return nil, err
	}

	reg := registry.New(
		registry.WithSeed(seed...),
		registry.WithAllowRedefinition(s.cfg.AllowRedefinition || allowRedefinition),
	)
	return incremental.NewDriver(s.cfg.DriverConfig(), reg, s.stores,
		incremental.WithLogger(s.log),
		incremental.WithMetrics(s.metrics),
	)
}

// Close logs cache statistics, releases the cache stores and flushes
// pending spans
func (s *session) Close() error {
	s.logCacheStats(defaults.DefaultExtractStoreName, s.stores.Extract)
	s.logCacheStats(defaults.DefaultCompileStoreName, s.stores.Compile)
	return errors.Join(s.stores.Extract.Close(), s.stores.Compile.Close(), s.stopTracing())
}

func (s *session) logCacheStats(name string, store cache.Store) {
	layered, ok := store.(*cache.LayeredStore)
	if !ok {
		return
	}
	stats := layered.Stats()
	s.log.WithFields(logrus.Fields{
		"store":    name,
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"hit_rate": stats.HitRate,
		"items":    stats.ItemCount,
	}).Debug("Cache statistics")
}

func (s *session) stopTracing() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.shutdownTracing(ctx)
}
