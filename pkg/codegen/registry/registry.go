// Package registry holds named Avro types shared between compile batches.
//
// A Registry is owned by whoever drives the build. Compilers never touch it
// directly: they receive a Snapshot, which copies the known types, extend the
// snapshot while parsing, and the owner publishes the snapshot back once the
// batch succeeded. Types registered under a name must resolve to the same
// canonical schema until Reset is called, unless redefinition is allowed.
package registry

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/hamba/avro/v2"
	"github.com/platinummonkey/avrobuild/pkg/codegen"
)

// Registry is the set of named types learned so far
type Registry struct {
	mu                sync.Mutex
	types             map[string]avro.NamedSchema
	seed              []avro.NamedSchema
	allowRedefinition bool
}

// Option configures a Registry
type Option func(*Registry)

// WithSeed pre-registers schemas. Seeded types survive Reset.
func WithSeed(schemas ...avro.NamedSchema) Option {
	return func(r *Registry) {
		r.seed = append(r.seed, schemas...)
	}
}

// WithAllowRedefinition lets later definitions replace registered ones
func WithAllowRedefinition(allow bool) Option {
	return func(r *Registry) {
		r.allowRedefinition = allow
	}
}

// New creates a registry
func New(opts ...Option) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	r.Reset()
	return r
}

// Snapshot copies the registry for use by one compile batch
func (r *Registry) Snapshot() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	known := make(map[string]avro.NamedSchema, len(r.types))
	for name, schema := range r.types {
		known[name] = schema
	}

	return &Snapshot{
		known:             known,
		learned:           make(map[string]avro.NamedSchema),
		allowRedefinition: r.allowRedefinition,
	}
}

// Publish adds the types a snapshot learned. A type registered by another
// publisher since the snapshot was taken must still agree with the learned one.
func (r *Registry) Publish(s *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range s.order {
		schema := s.learned[name]
		if existing, ok := r.types[name]; ok && !r.allowRedefinition && !sameSchema(existing, schema) {
			return fmt.Errorf("%w: %s", codegen.ErrTypeRedefined, name)
		}
	}
	for _, name := range s.order {
		r.types[name] = s.learned[name]
	}
	return nil
}

// Reset forgets every learned type, keeping only the seed
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.types = make(map[string]avro.NamedSchema, len(r.seed))
	for _, schema := range r.seed {
		r.types[schema.FullName()] = schema
	}
}

// Lookup returns the type registered under a full name
func (r *Registry) Lookup(name string) (avro.NamedSchema, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	schema, ok := r.types[name]
	return schema, ok
}

// Names returns the registered full names, sorted
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered types
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.types)
}

// LoadSeed parses schema files in order and returns every named type they
// define, for use with WithSeed
func LoadSeed(paths ...string) ([]avro.NamedSchema, error) {
	cache := &avro.SchemaCache{}
	seen := make(map[string]bool)

	var seed []avro.NamedSchema
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed schema: %w", err)
		}

		schema, err := avro.ParseWithCache(string(data), "", cache)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", codegen.ErrParse, path, err)
		}
		for _, named := range NamedTypes(schema) {
			if !seen[named.FullName()] {
				seen[named.FullName()] = true
				seed = append(seed, named)
			}
		}
	}
	return seed, nil
}

// NamedTypes returns the named types inside schema, in definition order.
// Record references are not followed; enums and fixed types the parser took
// from its cache are returned like definitions.
func NamedTypes(schema avro.Schema) []avro.NamedSchema {
	var (
		out  []avro.NamedSchema
		seen = make(map[string]bool)
	)

	var walk func(avro.Schema)
	walk = func(s avro.Schema) {
		switch t := s.(type) {
		case *avro.RecordSchema:
			if seen[t.FullName()] {
				return
			}
			seen[t.FullName()] = true
			out = append(out, t)
			for _, f := range t.Fields() {
				walk(f.Type())
			}
		case *avro.EnumSchema:
			if !seen[t.FullName()] {
				seen[t.FullName()] = true
				out = append(out, t)
			}
		case *avro.FixedSchema:
			if !seen[t.FullName()] {
				seen[t.FullName()] = true
				out = append(out, t)
			}
		case *avro.ArraySchema:
			walk(t.Items())
		case *avro.MapSchema:
			walk(t.Values())
		case *avro.UnionSchema:
			for _, u := range t.Types() {
				walk(u)
			}
		}
	}
	walk(schema)

	return out
}

func sameSchema(a, b avro.NamedSchema) bool {
	return a.String() == b.String()
}
