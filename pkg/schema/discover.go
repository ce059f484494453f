package schema

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Discover walks a source root and returns every schema file under it, sorted
// by relative path. A missing root yields no files.
func Discover(root SourceRoot) ([]SourceFile, error) {
	if _, err := os.Stat(root.Dir); os.IsNotExist(err) {
		return nil, nil
	}

	var files []SourceFile
	err := filepath.WalkDir(root.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		format, ok := FormatOf(d.Name())
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(root.Dir, path)
		if err != nil {
			return err
		}

		files = append(files, SourceFile{
			Root:   root.Dir,
			Path:   path,
			Rel:    filepath.ToSlash(rel),
			Format: format,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan source root %s: %w", root.Dir, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Rel < files[j].Rel
	})
	return files, nil
}

// DiscoverAll discovers every root in order and concatenates the results
func DiscoverAll(roots []SourceRoot) ([]SourceFile, error) {
	var all []SourceFile
	for _, root := range roots {
		files, err := Discover(root)
		if err != nil {
			return nil, err
		}
		all = append(all, files...)
	}
	return all, nil
}

// Stamp records the modification time (unix nanoseconds) of every file,
// keyed by path.
func Stamp(files []SourceFile) (map[string]int64, error) {
	stamps := make(map[string]int64, len(files))
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", f.Path, err)
		}
		stamps[f.Path] = info.ModTime().UnixNano()
	}
	return stamps, nil
}
