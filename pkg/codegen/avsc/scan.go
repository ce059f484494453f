package avsc

import (
	"strings"
)

var primitives = map[string]bool{
	"null": true, "boolean": true, "int": true, "long": true,
	"float": true, "double": true, "bytes": true, "string": true,
}

// declaration is a named type declared in a file
type declaration struct {
	FullName  string
	Namespace string
	TopLevel  bool
}

// names holds the named types a file declares and references. Aliases are
// full names other files may use to reference a declared type.
type names struct {
	declared   []declaration
	aliases    []string
	referenced []string
}

// scanNames walks a decoded schema document, resolving names against the
// enclosing namespace as the parser does
func scanNames(doc any) *names {
	n := &names{}
	n.walk(doc, "", true)
	return n
}

func (n *names) walk(v any, namespace string, topLevel bool) {
	switch t := v.(type) {
	case string:
		if !primitives[t] {
			n.referenced = append(n.referenced, fullName(namespace, t))
		}
	case []any:
		for _, item := range t {
			n.walk(item, namespace, topLevel)
		}
	case map[string]any:
		typ := t["type"]
		switch typ {
		case "record", "error", "enum", "fixed":
			name, _ := t["name"].(string)
			full, childNamespace := declaredName(name, t["namespace"], namespace)
			n.declared = append(n.declared, declaration{FullName: full, Namespace: childNamespace, TopLevel: topLevel})
			aliases, _ := t["aliases"].([]any)
			for _, a := range aliases {
				if alias, ok := a.(string); ok {
					n.aliases = append(n.aliases, fullName(childNamespace, alias))
				}
			}

			fields, _ := t["fields"].([]any)
			for _, f := range fields {
				if field, ok := f.(map[string]any); ok {
					n.walk(field["type"], childNamespace, false)
				}
			}
		case "array":
			n.walk(t["items"], namespace, false)
		case "map":
			n.walk(t["values"], namespace, false)
		default:
			n.walk(typ, namespace, false)
		}
	}
}

// declaredName returns the full name of a declared type and the namespace
// its children inherit
func declaredName(name string, explicit any, enclosing string) (string, string) {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name, name[:i]
	}
	if ns, ok := explicit.(string); ok {
		return fullName(ns, name), ns
	}
	return fullName(enclosing, name), enclosing
}

func fullName(namespace, name string) string {
	if namespace == "" || strings.Contains(name, ".") {
		return name
	}
	return namespace + "." + name
}
