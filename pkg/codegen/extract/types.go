package extract

import (
	"path/filepath"
	"strings"
)

// Archive is a dependency archive together with the identity of the
// dependency that owns it
type Archive struct {
	Identity string
	Path     string
}

// Dir returns the identity-scoped directory the archive is unpacked into
func (a Archive) Dir(targetRoot string) string {
	return filepath.Join(targetRoot, scopeName(a))
}

// Record is the persisted result of one extraction
type Record struct {
	ArchivePath string   `json:"archive_path"`
	ModTime     int64    `json:"mod_time"`
	Files       []string `json:"files"`
}

// Stats counts the work done by an extractor since it was created
type Stats struct {
	Extracted int // archives unpacked
	Skipped   int // archives served from their record
	Files     int // schema files written
}

func scopeName(a Archive) string {
	name := a.Identity
	if name == "" {
		base := filepath.Base(a.Path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
