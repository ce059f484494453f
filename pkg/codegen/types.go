package codegen

import (
	"encoding/json"
	"fmt"
	"math"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/hamba/avro/v2"
)

// Logical type names as they appear in schemas
const (
	logicalDecimal              = "decimal"
	logicalUUID                 = "uuid"
	logicalDate                 = "date"
	logicalTimeMillis           = "time-millis"
	logicalTimeMicros           = "time-micros"
	logicalTimestampMillis      = "timestamp-millis"
	logicalTimestampMicros      = "timestamp-micros"
	logicalLocalTimestampMillis = "local-timestamp-millis"
	logicalLocalTimestampMicros = "local-timestamp-micros"
)

// goFile maps Avro types to Go types for one generated file and records the
// imports they need
type goFile struct {
	namespace string
	policy    Policy
	imports   map[string]string
}

func newGoFile(namespace string, policy Policy) *goFile {
	return &goFile{
		namespace: namespace,
		policy:    policy,
		imports:   make(map[string]string),
	}
}

func (f *goFile) use(importPath, alias string) {
	f.imports[importPath] = alias
}

func (f *goFile) header(source string) headerView {
	paths := make([]string, 0, len(f.imports))
	for p := range f.imports {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	imports := make([]importView, 0, len(paths))
	for _, p := range paths {
		imports = append(imports, importView{Alias: f.imports[p], Path: p})
	}

	return headerView{
		Source:  source,
		Package: packageName(f.namespace, f.policy.DefaultPackage),
		Imports: imports,
	}
}

// typeOf returns the Go type used for schema
func (f *goFile) typeOf(schema avro.Schema) string {
	switch s := schema.(type) {
	case *avro.PrimitiveSchema:
		return f.primitiveType(s)
	case *avro.RefSchema:
		return f.typeOf(s.Schema())
	case *avro.RecordSchema:
		return f.namedType(s)
	case *avro.EnumSchema:
		return f.namedType(s)
	case *avro.FixedSchema:
		if logicalName(s.Logical()) == logicalDecimal && f.policy.EnableDecimalLogicalType {
			f.use("math/big", "")
			return "*big.Rat"
		}
		return f.namedType(s)
	case *avro.ArraySchema:
		return "[]" + f.typeOf(s.Items())
	case *avro.MapSchema:
		return "map[string]" + f.typeOf(s.Values())
	case *avro.UnionSchema:
		if inner, ok := nullableInner(s); ok {
			t := f.typeOf(inner)
			if nillable(t) {
				return t
			}
			return "*" + t
		}
		return "any"
	default:
		return "any"
	}
}

func (f *goFile) primitiveType(s *avro.PrimitiveSchema) string {
	switch logicalName(s.Logical()) {
	case logicalDecimal:
		if f.policy.EnableDecimalLogicalType {
			f.use("math/big", "")
			return "*big.Rat"
		}
	case logicalUUID:
		return "string"
	case logicalDate, logicalTimestampMillis, logicalTimestampMicros,
		logicalLocalTimestampMillis, logicalLocalTimestampMicros:
		f.use("time", "")
		return "time.Time"
	case logicalTimeMillis, logicalTimeMicros:
		f.use("time", "")
		return "time.Duration"
	}

	switch s.Type() {
	case avro.Boolean:
		return "bool"
	case avro.Int:
		return "int32"
	case avro.Long:
		return "int64"
	case avro.Float:
		return "float32"
	case avro.Double:
		return "float64"
	case avro.Bytes:
		return "[]byte"
	case avro.String:
		return f.stringType()
	default:
		return "any"
	}
}

func (f *goFile) stringType() string {
	switch f.policy.StringType {
	case StringTypeCharSequence:
		return "[]byte"
	case StringTypeUtf8:
		f.use("unique", "")
		return "unique.Handle[string]"
	default:
		return "string"
	}
}

// namedType returns the name of a generated type, qualified and imported
// when it lives in another namespace
func (f *goFile) namedType(n avro.NamedSchema) string {
	name := exportedName(n.Name())
	if n.Namespace() == f.namespace {
		return name
	}

	importPath := f.policy.ModulePath
	if n.Namespace() != "" {
		importPath = path.Join(importPath, strings.ReplaceAll(n.Namespace(), ".", "/"))
	}
	alias := importAlias(n.Namespace(), f.policy.DefaultPackage)
	f.use(importPath, alias)
	return alias + "." + name
}

// defaultLiteral renders value as a Go literal assignable to goType. Only
// primitive and enum defaults are rendered.
func (f *goFile) defaultLiteral(schema avro.Schema, goType string, value any) (string, bool) {
	switch s := schema.(type) {
	case *avro.RefSchema:
		return f.defaultLiteral(s.Schema(), goType, value)
	case *avro.EnumSchema:
		symbol, ok := value.(string)
		if !ok {
			return "", false
		}
		for _, c := range enumConsts(s) {
			if c.Symbol == symbol {
				qualifier := strings.TrimSuffix(goType, exportedName(s.Name()))
				return qualifier + c.Name, true
			}
		}
		return "", false
	case *avro.PrimitiveSchema:
		if s.Logical() != nil {
			return "", false
		}
		switch s.Type() {
		case avro.Boolean:
			b, ok := value.(bool)
			return strconv.FormatBool(b), ok
		case avro.Int, avro.Long:
			return intLiteral(value)
		case avro.Float, avro.Double:
			return floatLiteral(value)
		case avro.Bytes:
			str, ok := stringValue(value)
			return "[]byte(" + strconv.Quote(str) + ")", ok
		case avro.String:
			str, ok := stringValue(value)
			if !ok {
				return "", false
			}
			switch f.policy.StringType {
			case StringTypeCharSequence:
				return "[]byte(" + strconv.Quote(str) + ")", true
			case StringTypeUtf8:
				return "unique.Make(" + strconv.Quote(str) + ")", true
			default:
				return strconv.Quote(str), true
			}
		}
	}
	return "", false
}

func stringValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}

func intLiteral(value any) (string, bool) {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float32:
		return intLiteral(float64(v))
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return "", false
		}
		return strconv.FormatInt(int64(v), 10), true
	case json.Number:
		if _, err := v.Int64(); err != nil {
			return "", false
		}
		return v.String(), true
	default:
		return "", false
	}
}

func floatLiteral(value any) (string, bool) {
	var v float64
	switch n := value.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int32:
		v = float64(n)
	case int64:
		v = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return "", false
		}
		v = parsed
	default:
		return "", false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", false
	}
	return strconv.FormatFloat(v, 'g', -1, 64), true
}

type enumConst struct {
	Name   string
	Symbol string
}

// enumConsts names the constants of an enum, in symbol order
func enumConsts(e *avro.EnumSchema) []enumConst {
	typeName := exportedName(e.Name())
	seen := map[string]bool{
		typeName + "Symbols":       true,
		typeName + "DefaultSymbol": true,
	}

	consts := make([]enumConst, 0, len(e.Symbols()))
	for _, symbol := range e.Symbols() {
		base := typeName + exportedName(symbol)
		name := base
		for i := 2; seen[name]; i++ {
			name = fmt.Sprintf("%s%d", base, i)
		}
		seen[name] = true
		consts = append(consts, enumConst{Name: name, Symbol: symbol})
	}
	return consts
}

// nullableInner returns the non-null branch of a two-branch union with null
func nullableInner(u *avro.UnionSchema) (avro.Schema, bool) {
	if !u.Nullable() {
		return nil, false
	}
	for _, t := range u.Types() {
		if t.Type() != avro.Null {
			return t, true
		}
	}
	return nil, false
}

func nillable(goType string) bool {
	return goType == "any" ||
		strings.HasPrefix(goType, "*") ||
		strings.HasPrefix(goType, "[]") ||
		strings.HasPrefix(goType, "map[")
}

func logicalName(ls avro.LogicalSchema) string {
	if ls == nil {
		return ""
	}
	return string(ls.Type())
}
