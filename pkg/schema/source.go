// Package schema models Avro schema source files and the roots they are discovered in.
package schema

import (
	"path/filepath"
	"strings"
)

// Format identifies one of the three Avro schema source formats
type Format string

const (
	// FormatIDL is the Avro interface-description language (.avdl)
	FormatIDL Format = "idl"
	// FormatSchema is the compact JSON schema format (.avsc)
	FormatSchema Format = "schema"
	// FormatProtocol is the JSON protocol document format (.avpr)
	FormatProtocol Format = "protocol"
)

// File extensions recognised for each format
const (
	ExtIDL      = ".avdl"
	ExtSchema   = ".avsc"
	ExtProtocol = ".avpr"
)

// FormatOf returns the format for a file name, judged by its extension
func FormatOf(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtIDL:
		return FormatIDL, true
	case ExtSchema:
		return FormatSchema, true
	case ExtProtocol:
		return FormatProtocol, true
	default:
		return "", false
	}
}

// IsSchemaFile reports whether name carries one of the schema extensions
func IsSchemaFile(name string) bool {
	_, ok := FormatOf(name)
	return ok
}

// Origin tells where a source root came from
type Origin string

const (
	// OriginDependency marks a root extracted from a dependency archive
	OriginDependency Origin = "dependency"
	// OriginLocal marks the project's own schema directory
	OriginLocal Origin = "local"
)

// SourceRoot is a directory that schema files are discovered under
type SourceRoot struct {
	Dir    string
	Origin Origin
}

// SourceFile is a discovered schema file. Path is absolute (or as given by the
// root), Rel is slash-separated and relative to Root.
type SourceFile struct {
	Root   string
	Path   string
	Rel    string
	Format Format
}

// Dir returns the slash-separated directory of the file relative to its root,
// or "" when the file sits directly in the root.
func (f SourceFile) Dir() string {
	dir := filepath.ToSlash(filepath.Dir(filepath.FromSlash(f.Rel)))
	if dir == "." {
		return ""
	}
	return dir
}

// NamespaceFromDir converts a relative directory ("com/example") into the
// namespace it implies ("com.example").
func NamespaceFromDir(dir string) string {
	dir = strings.Trim(filepath.ToSlash(dir), "/")
	if dir == "" || dir == "." {
		return ""
	}
	return strings.ReplaceAll(dir, "/", ".")
}

// FilterFormat returns the files with the given format, preserving order
func FilterFormat(files []SourceFile, format Format) []SourceFile {
	var out []SourceFile
	for _, f := range files {
		if f.Format == format {
			out = append(out, f)
		}
	}
	return out
}
