package codegen

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Output records the files produced by one or more compiler calls
type Output struct {
	Files     []string
	Written   int
	Unchanged int
}

func (o *Output) add(path string, changed bool) {
	o.Files = append(o.Files, path)
	if changed {
		o.Written++
	} else {
		o.Unchanged++
	}
}

// Merge appends the files of other to o
func (o *Output) Merge(other *Output) {
	if other == nil {
		return
	}
	o.Files = append(o.Files, other.Files...)
	o.Written += other.Written
	o.Unchanged += other.Unchanged
}

// Sorted returns the produced files sorted and without duplicates
func (o *Output) Sorted() []string {
	seen := make(map[string]bool, len(o.Files))
	files := make([]string, 0, len(o.Files))
	for _, f := range o.Files {
		f = filepath.Clean(f)
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	sort.Strings(files)
	return files
}

// WriteFile writes content to path through a temporary file and rename. It
// reports false without touching the file when the content is unchanged.
func WriteFile(path string, content []byte) (bool, error) {
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, content) {
		return false, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".avrobuild-*")
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return false, fmt.Errorf("failed to commit %s: %w", path, err)
	}
	return true, nil
}

// IsGenerated reports whether the file at path starts with GeneratedHeader
func IsGenerated(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return false, scanner.Err()
	}
	return scanner.Text() == GeneratedHeader, nil
}
