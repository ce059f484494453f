// Package output reports the generated source set of an output directory.
package output

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extension is the extension of generated Go sources
const Extension = ".go"

// Collect returns every file below dir with extension ext, sorted. It always
// reflects the directory as it is now; a missing directory yields an empty
// set.
func Collect(dir, ext string) ([]string, error) {
	files := []string{}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return files, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ext) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan output directory %s: %w", dir, err)
	}

	sort.Strings(files)
	return files, nil
}
