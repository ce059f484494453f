// Package avsc compiles compact JSON schema files (.avsc) into Go.
//
// Files of one batch may reference each other in any order, and may reference
// types known to the registry snapshot the batch runs against. The batch is
// parsed completely before anything is written.
package avsc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hamba/avro/v2"
	"github.com/platinummonkey/avrobuild/pkg/codegen"
	"github.com/platinummonkey/avrobuild/pkg/codegen/registry"
	"github.com/platinummonkey/avrobuild/pkg/schema"
	"github.com/sirupsen/logrus"
)

// Compiler compiles batches of compact schema files
type Compiler struct {
	log *logrus.Logger
}

// NewCompiler creates a compiler
func NewCompiler(log *logrus.Logger) *Compiler {
	if log == nil {
		log = logrus.New()
	}
	return &Compiler{log: log}
}

type unit struct {
	ref   schema.SourceFile
	text  string
	names *names
}

// Compile parses refs as one unit against snap and writes one Go file per
// record, enum and fixed type the batch declares. Types are recorded in snap;
// publishing them is up to the caller.
func (c *Compiler) Compile(ctx context.Context, refs []schema.SourceFile, outDir string, policy codegen.Policy, snap *registry.Snapshot) (*codegen.Output, error) {
	if len(refs) == 0 {
		return &codegen.Output{}, nil
	}

	units, err := load(refs)
	if err != nil {
		return nil, err
	}

	if policy.ValidateNamespace {
		if err := validateNamespaces(units); err != nil {
			return nil, err
		}
	}

	if err := checkReferences(units, snap); err != nil {
		return nil, err
	}

	ordered, err := order(units)
	if err != nil {
		return nil, err
	}

	declared, err := parse(ctx, ordered, snap)
	if err != nil {
		return nil, err
	}

	emitter, err := codegen.NewEmitter(outDir, policy)
	if err != nil {
		return nil, err
	}
	for _, named := range declared {
		if err := emitter.Emit(named); err != nil {
			return nil, err
		}
	}

	out := emitter.Output()
	c.log.WithFields(logrus.Fields{
		"files":   len(refs),
		"types":   len(declared),
		"written": out.Written,
	}).Debug("Compiled compact schemas")
	return out, nil
}

func load(refs []schema.SourceFile) ([]*unit, error) {
	units := make([]*unit, 0, len(refs))
	for _, ref := range refs {
		data, err := os.ReadFile(ref.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", ref.Path, err)
		}

		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", codegen.ErrParse, ref.Rel, err)
		}

		units = append(units, &unit{ref: ref, text: string(data), names: scanNames(doc)})
	}
	return units, nil
}

func validateNamespaces(units []*unit) error {
	for _, u := range units {
		want := schema.NamespaceFromDir(u.ref.Dir())
		for _, d := range u.names.declared {
			if d.TopLevel && d.Namespace != want {
				return fmt.Errorf("%w: %s declares namespace %q but is located in %q",
					codegen.ErrNamespaceMismatch, u.ref.Rel, d.Namespace, u.ref.Dir())
			}
		}
	}
	return nil
}

func checkReferences(units []*unit, snap *registry.Snapshot) error {
	declared := make(map[string]bool)
	for _, u := range units {
		for _, d := range u.names.declared {
			declared[d.FullName] = true
		}
		for _, alias := range u.names.aliases {
			declared[alias] = true
		}
	}

	for _, u := range units {
		for _, name := range u.names.referenced {
			if !declared[name] && !snap.Has(name) {
				return fmt.Errorf("%w: %s references unknown type %s", codegen.ErrTypeResolution, u.ref.Rel, name)
			}
		}
	}
	return nil
}

// order sorts units so every file comes after the files declaring the types
// it references. Ties keep the input order.
func order(units []*unit) ([]*unit, error) {
	owner := make(map[string]int)
	for i, u := range units {
		for _, d := range u.names.declared {
			if _, ok := owner[d.FullName]; !ok {
				owner[d.FullName] = i
			}
		}
		for _, alias := range u.names.aliases {
			if _, ok := owner[alias]; !ok {
				owner[alias] = i
			}
		}
	}

	indegree := make([]int, len(units))
	dependents := make([][]int, len(units))
	for i, u := range units {
		deps := make(map[int]bool)
		for _, name := range u.names.referenced {
			if j, ok := owner[name]; ok && j != i && !deps[j] {
				deps[j] = true
				dependents[j] = append(dependents[j], i)
				indegree[i]++
			}
		}
	}

	var ready []int
	for i := range units {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	ordered := make([]*unit, 0, len(units))
	for len(ready) > 0 {
		sort.Ints(ready)
		i := ready[0]
		ready = ready[1:]
		ordered = append(ordered, units[i])

		for _, j := range dependents[i] {
			indegree[j]--
			if indegree[j] == 0 {
				ready = append(ready, j)
			}
		}
	}

	if len(ordered) != len(units) {
		var cyclic []string
		for i, u := range units {
			if indegree[i] > 0 {
				cyclic = append(cyclic, u.ref.Rel)
			}
		}
		return nil, fmt.Errorf("%w: cyclic references between %s", codegen.ErrTypeResolution, strings.Join(cyclic, ", "))
	}
	return ordered, nil
}

// parse parses units in order, recording every declared type in snap, and
// returns the declared types in declaration order
func parse(ctx context.Context, units []*unit, snap *registry.Snapshot) ([]avro.NamedSchema, error) {
	cache := snap.Cache()

	var declared []avro.NamedSchema
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if _, err := avro.ParseWithCache(u.text, "", cache); err != nil {
			if strings.Contains(err.Error(), "unknown type") {
				return nil, fmt.Errorf("%w: %s: %v", codegen.ErrTypeResolution, u.ref.Rel, err)
			}
			return nil, fmt.Errorf("%w: %s: %v", codegen.ErrParse, u.ref.Rel, err)
		}

		for _, d := range u.names.declared {
			named, ok := lookup(cache, d.FullName)
			if !ok {
				return nil, fmt.Errorf("%w: %s: %s was not defined by the parser", codegen.ErrParse, u.ref.Rel, d.FullName)
			}
			if err := snap.Define(named); err != nil {
				return nil, fmt.Errorf("%s: %w", u.ref.Rel, err)
			}
			declared = append(declared, named)
		}
	}
	return declared, nil
}

func lookup(cache *avro.SchemaCache, name string) (avro.NamedSchema, bool) {
	switch s := cache.Get(name).(type) {
	case *avro.RefSchema:
		return s.Schema(), true
	case avro.NamedSchema:
		return s, true
	default:
		return nil, false
	}
}
