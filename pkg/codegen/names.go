package codegen

import (
	"go/token"
	"path/filepath"
	"strings"
	"unicode"
)

var commonInitialisms = map[string]bool{
	"API": true, "HTTP": true, "ID": true, "IP": true, "JSON": true,
	"SQL": true, "URI": true, "URL": true, "UUID": true, "XML": true,
}

// splitWords breaks an Avro name into words on separators and case changes
func splitWords(name string) []string {
	var (
		words []string
		cur   []rune
	)
	runes := []rune(name)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || r == ' ':
			flush()
			continue
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// exportedName converts an Avro name into an exported Go identifier
func exportedName(name string) string {
	var b strings.Builder
	for _, word := range splitWords(name) {
		upper := strings.ToUpper(word)
		if commonInitialisms[upper] {
			b.WriteString(upper)
			continue
		}
		if upper == word && len(word) > 1 {
			word = strings.ToLower(word)
		}
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}

	out := b.String()
	if out == "" || !unicode.IsLetter([]rune(out)[0]) {
		out = "X" + out
	}
	return out
}

// lowerIdent lowers the leading run of capitals in ident, keeping the first
// letter of the following word
func lowerIdent(ident string) string {
	runes := []rune(ident)

	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	if n > 1 && n < len(runes) && unicode.IsLower(runes[n]) {
		n--
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}

	out := string(runes)
	if token.IsKeyword(out) {
		out += "_"
	}
	return out
}

// packageName derives a Go package name from a namespace
func packageName(namespace, fallback string) string {
	if namespace == "" {
		return fallback
	}
	segments := strings.Split(namespace, ".")
	name := sanitizePackage(segments[len(segments)-1])
	if name == "" {
		return fallback
	}
	return name
}

// importAlias derives a collision-free alias for a namespace import
func importAlias(namespace, fallback string) string {
	if namespace == "" {
		return fallback
	}
	return sanitizePackage(strings.ReplaceAll(namespace, ".", ""))
}

func sanitizePackage(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		return ""
	}
	if unicode.IsDigit([]rune(out)[0]) {
		out = "v" + out
	}
	if token.IsKeyword(out) {
		out += "avro"
	}
	return out
}

// namespaceDir returns the output directory for namespace, relative to the
// output root
func namespaceDir(namespace string) string {
	if namespace == "" {
		return ""
	}
	return filepath.Join(strings.Split(namespace, ".")...)
}

// Suffixes the go tool treats as build constraints in file names
var constrainedSuffixes = map[string]bool{
	"test": true,
	"aix": true, "android": true, "darwin": true, "dragonfly": true, "freebsd": true,
	"illumos": true, "ios": true, "js": true, "linux": true, "netbsd": true,
	"openbsd": true, "plan9": true, "solaris": true, "wasip1": true, "windows": true,
	"386": true, "amd64": true, "arm": true, "arm64": true, "loong64": true,
	"mips": true, "mips64": true, "mips64le": true, "mipsle": true, "ppc64": true,
	"ppc64le": true, "riscv64": true, "s390x": true, "wasm": true,
}

// fileName converts a type name into a snake_case Go file name
func fileName(name string) string {
	words := splitWords(name)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}

	base := strings.Join(words, "_")
	if base == "" {
		base = "type"
	}
	if len(words) > 1 && constrainedSuffixes[words[len(words)-1]] {
		base += "_avro"
	}
	return base + ".go"
}
