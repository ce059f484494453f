// Package extract unpacks schema files from dependency archives.
//
// Each archive is unpacked into its own identity-scoped directory below the
// target root. A record of the archive's path, modification time and the
// files it produced is kept in a cache store; an archive whose record still
// matches is not opened again.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/platinummonkey/avrobuild/pkg/codegen/cache"
	"github.com/platinummonkey/avrobuild/pkg/codegen/config"
	"github.com/platinummonkey/avrobuild/pkg/observability"
	"github.com/platinummonkey/avrobuild/pkg/schema"
	"github.com/sirupsen/logrus"
)

// Extractor unpacks dependency archives
type Extractor struct {
	store      cache.Store
	namespaced bool
	log        *logrus.Logger
	metrics    *observability.Metrics
	stats      Stats
}

// Option configures an Extractor
type Option func(*Extractor)

// WithNamespacedKeys makes the owning identity part of each record key, so
// two dependencies shipping an archive with the same file name never share
// a record. Enabled by default.
func WithNamespacedKeys(namespaced bool) Option {
	return func(e *Extractor) {
		e.namespaced = namespaced
	}
}

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(e *Extractor) {
		e.log = log
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Extractor) {
		e.metrics = m
	}
}

// NewExtractor creates an extractor keeping its records in store
func NewExtractor(store cache.Store, opts ...Option) *Extractor {
	e := &Extractor{
		store:      store,
		namespaced: true,
		log:        logrus.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stats returns the work done so far
func (e *Extractor) Stats() Stats {
	return e.stats
}

// Roots returns the identity-scoped source roots of archives, in order
func Roots(archives []Archive, targetRoot string) []schema.SourceRoot {
	roots := make([]schema.SourceRoot, 0, len(archives))
	seen := make(map[string]bool)
	for _, a := range archives {
		dir := a.Dir(targetRoot)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		roots = append(roots, schema.SourceRoot{Dir: dir, Origin: schema.OriginDependency})
	}
	return roots
}

// Extract unpacks the schema files of every archive below targetRoot and
// returns the set of extracted files, sorted. Archives whose record matches
// their current modification time are skipped and contribute their recorded
// files.
func (e *Extractor) Extract(ctx context.Context, archives []Archive, targetRoot string) ([]string, error) {
	set := make(map[string]bool)
	for _, a := range archives {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		files, err := e.extractOne(ctx, a, targetRoot)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			set[f] = true
		}
	}

	files := make([]string, 0, len(set))
	for f := range set {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

func (e *Extractor) extractOne(ctx context.Context, a Archive, targetRoot string) ([]string, error) {
	info, err := os.Stat(a.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArchiveIO, a.Path, err)
	}

	key := cache.ArchiveKey(a.Identity, a.Path, e.namespaced)
	modTime := info.ModTime().UnixNano()

	if record, ok := e.lookup(ctx, key); ok && record.matches(a.Path, modTime) {
		e.stats.Skipped++
		e.metrics.RecordArchive(false, 0)
		e.log.WithFields(logrus.Fields{
			"archive": a.Path,
			"files":   len(record.Files),
		}).Debug("Archive unchanged, skipping extraction")
		return record.Files, nil
	}

	dir := a.Dir(targetRoot)
	files, err := unzip(a.Path, dir)
	if err != nil {
		return nil, err
	}

	record := Record{ArchivePath: a.Path, ModTime: modTime, Files: files}
	if err := cache.PutJSON(ctx, e.store, key, record); err != nil {
		e.metrics.RecordCache(config.DefaultExtractStoreName, "put", "error")
		return nil, fmt.Errorf("failed to record extraction of %s: %w", a.Path, err)
	}
	e.metrics.RecordCache(config.DefaultExtractStoreName, "put", "ok")

	e.stats.Extracted++
	e.stats.Files += len(files)
	e.metrics.RecordArchive(true, len(files))

	if len(files) > 0 {
		e.log.WithFields(logrus.Fields{
			"archive":  a.Path,
			"identity": a.Identity,
			"dir":      dir,
			"files":    len(files),
		}).Info("Extracted schema files")
	}
	return files, nil
}

func (e *Extractor) lookup(ctx context.Context, key string) (*Record, bool) {
	var record Record
	err := cache.GetJSON(ctx, e.store, key, &record)
	switch {
	case err == nil:
		e.metrics.RecordCache(config.DefaultExtractStoreName, "get", "hit")
		return &record, true
	case errors.Is(err, cache.ErrCacheMiss):
		e.metrics.RecordCache(config.DefaultExtractStoreName, "get", "miss")
	default:
		e.metrics.RecordCache(config.DefaultExtractStoreName, "get", "error")
		e.log.WithError(err).WithField("key", key).Warn("Failed to read extraction record")
	}
	return nil, false
}

// matches reports whether the record still describes the archive. A record
// whose files were removed from disk is stale.
func (r *Record) matches(path string, modTime int64) bool {
	if r.ArchivePath != path || r.ModTime != modTime {
		return false
	}
	for _, f := range r.Files {
		if _, err := os.Stat(f); err != nil {
			return false
		}
	}
	return true
}

// unzip writes the schema files of the archive at path below dir and
// returns their paths, sorted
func unzip(path, dir string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArchiveIO, path, err)
	}
	defer r.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create %s: %v", ErrArchiveIO, dir, err)
	}

	var files []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !schema.IsSchemaFile(f.Name) {
			continue
		}

		dest := filepath.Join(dir, filepath.FromSlash(f.Name))
		rel, err := filepath.Rel(dir, dest)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(f.Name) {
			return nil, fmt.Errorf("%w: %s: %w: %s", ErrArchiveIO, path, ErrUnsafeEntry, f.Name)
		}

		if err := writeEntry(f, dest); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrArchiveIO, path, err)
		}
		files = append(files, dest)
	}

	sort.Strings(files)
	return files, nil
}

func writeEntry(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("failed to unpack %s: %w", f.Name, err)
	}
	return out.Close()
}
