// Package artifacts packages raw schema sources for distribution and
// publishes the package to S3.
package artifacts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/platinummonkey/avrobuild/pkg/schema"
)

// bundleTime is the modification time of every entry, so identical sources
// always give an identical bundle
var bundleTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Bundler writes schema source files into a zip bundle
type Bundler struct{}

// NewBundler creates a bundler
func NewBundler() *Bundler {
	return &Bundler{}
}

// Bundle writes files to a zip at dest. Entries are named by their path
// relative to their source root and sorted.
func (b *Bundler) Bundle(files []schema.SourceFile, dest string) (*Bundle, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	sorted := make([]schema.SourceFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Rel < sorted[j].Rel
	})

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return nil, fmt.Errorf("failed to create bundle directory: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionFailed, err)
	}

	hasher := sha256.New()
	counter := &countingWriter{w: io.MultiWriter(out, hasher)}
	zw := zip.NewWriter(counter)

	bundle := &Bundle{Path: dest}
	for _, f := range sorted {
		if err := addFile(zw, f); err != nil {
			zw.Close()
			out.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrCompressionFailed, f.Rel, err)
		}
		bundle.Files = append(bundle.Files, f.Rel)
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return nil, fmt.Errorf("%w: %v", ErrCompressionFailed, err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionFailed, err)
	}

	bundle.Hash = hex.EncodeToString(hasher.Sum(nil))
	bundle.Size = counter.n
	return bundle, nil
}

func addFile(zw *zip.Writer, f schema.SourceFile) error {
	src, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     f.Rel,
		Method:   zip.Deflate,
		Modified: bundleTime,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
