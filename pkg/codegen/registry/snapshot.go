package registry

import (
	"fmt"
	"slices"
	"sort"

	"github.com/hamba/avro/v2"
	"github.com/platinummonkey/avrobuild/pkg/codegen"
)

// Snapshot is a point-in-time copy of a Registry owned by one compile batch.
// It is not safe for concurrent use.
type Snapshot struct {
	known             map[string]avro.NamedSchema
	learned           map[string]avro.NamedSchema
	order             []string
	allowRedefinition bool
}

// Lookup returns the type known under a full name, preferring types learned
// by this snapshot
func (s *Snapshot) Lookup(name string) (avro.NamedSchema, bool) {
	if schema, ok := s.learned[name]; ok {
		return schema, true
	}
	schema, ok := s.known[name]
	return schema, ok
}

// Has reports whether name resolves in the snapshot, as a full name or as
// an alias of a visible type
func (s *Snapshot) Has(name string) bool {
	if _, ok := s.Lookup(name); ok {
		return true
	}
	for _, visible := range s.Names() {
		schema, _ := s.Lookup(visible)
		if slices.Contains(schema.Aliases(), name) {
			return true
		}
	}
	return false
}

// Define records a type learned by the batch. Defining a name again with an
// identical schema is a no-op.
func (s *Snapshot) Define(schema avro.NamedSchema) error {
	name := schema.FullName()
	if existing, ok := s.Lookup(name); ok {
		if sameSchema(existing, schema) {
			return nil
		}
		if !s.allowRedefinition {
			return fmt.Errorf("%w: %s", codegen.ErrTypeRedefined, name)
		}
	}

	if _, ok := s.learned[name]; !ok {
		s.order = append(s.order, name)
	}
	s.learned[name] = schema
	return nil
}

// Learned returns the types defined through this snapshot, in definition order
func (s *Snapshot) Learned() []avro.NamedSchema {
	out := make([]avro.NamedSchema, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.learned[name])
	}
	return out
}

// Names returns every name visible in the snapshot, sorted
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.known)+len(s.learned))
	for name := range s.known {
		if _, ok := s.learned[name]; !ok {
			names = append(names, name)
		}
	}
	for name := range s.learned {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Cache returns a parser cache holding every visible type under its full
// name and aliases. Records are added as references, the same way the parser
// caches the records it defines.
func (s *Snapshot) Cache() *avro.SchemaCache {
	cache := &avro.SchemaCache{}
	for _, name := range s.Names() {
		schema, _ := s.Lookup(name)
		var cached avro.Schema = schema
		if rec, ok := schema.(*avro.RecordSchema); ok {
			cached = avro.NewRefSchema(rec)
		}
		cache.Add(name, cached)
		for _, alias := range schema.Aliases() {
			cache.Add(alias, cached)
		}
	}
	return cache
}
