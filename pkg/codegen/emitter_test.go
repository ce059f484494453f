package codegen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hamba/avro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userSchema = `{
	"type": "record",
	"name": "User",
	"namespace": "com.example",
	"doc": "A registered user.",
	"fields": [
		{"name": "name", "type": "string", "doc": "Display name"},
		{"name": "age", "type": "int", "default": 18},
		{"name": "score", "type": "double", "default": 1.5},
		{"name": "active", "type": "boolean", "default": true},
		{"name": "color", "type": {"type": "enum", "name": "Color", "symbols": ["RED", "DARK_BLUE"], "default": "RED"}, "default": "DARK_BLUE"},
		{"name": "nickname", "type": ["null", "string"], "default": null},
		{"name": "tags", "type": {"type": "array", "items": "string"}},
		{"name": "amount", "type": {"type": "bytes", "logicalType": "decimal", "precision": 9, "scale": 2}},
		{"name": "created", "type": {"type": "long", "logicalType": "timestamp-millis"}},
		{"name": "schema", "type": "string"}
	]
}`

func parseRecord(t *testing.T, text string) *avro.RecordSchema {
	t.Helper()
	schema, err := avro.Parse(text)
	require.NoError(t, err)
	rec, ok := schema.(*avro.RecordSchema)
	require.True(t, ok)
	return rec
}

func readGenerated(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestEmitterRecord(t *testing.T) {
	outDir := t.TempDir()
	emitter, err := NewEmitter(outDir, DefaultPolicy())
	require.NoError(t, err)

	require.NoError(t, emitter.Emit(parseRecord(t, userSchema)))

	path := filepath.Join(outDir, "com", "example", "user.go")
	src := readGenerated(t, path)

	assert.Contains(t, src, GeneratedHeader)
	assert.Contains(t, src, "package example")
	assert.Contains(t, src, "// User is generated from the Avro record com.example.User.")
	assert.Contains(t, src, "// A registered user.")
	assert.Regexp(t, `Name\s+string\s+`+"`"+`avro:"name" json:"name"`+"`", src)
	assert.Regexp(t, `Nickname\s+\*string`, src)
	assert.Regexp(t, `Tags\s+\[\]string`, src)
	assert.Regexp(t, `Amount\s+\*big\.Rat`, src)
	assert.Regexp(t, `Created\s+time\.Time`, src)
	assert.Regexp(t, `Schema_\s+string`, src, "field colliding with Schema() is renamed")
	assert.Regexp(t, `Color\s+Color`, src)

	assert.Contains(t, src, "func NewUser() *User {")
	assert.Regexp(t, `Age:\s+18,`, src)
	assert.Regexp(t, `Score:\s+1\.5,`, src)
	assert.Regexp(t, `Active:\s+true,`, src)
	assert.Regexp(t, `Color:\s+ColorDarkBlue,`, src)

	assert.Contains(t, src, "func (r *User) GetName() string {")
	assert.Contains(t, src, "func (r *User) SetName(v string) {")
	assert.Contains(t, src, "func (r *User) Schema() string {")
	assert.NotContains(t, src, "GetNicknameOptional")
	assert.NotContains(t, src, "Deprecated")

	out := emitter.Output()
	assert.Equal(t, []string{path}, out.Files)
	assert.Equal(t, 1, out.Written)
}

func TestEmitterEnumAndFixed(t *testing.T) {
	outDir := t.TempDir()
	emitter, err := NewEmitter(outDir, DefaultPolicy())
	require.NoError(t, err)

	rec := parseRecord(t, userSchema)
	for _, f := range rec.Fields() {
		if f.Name() == "color" {
			require.NoError(t, emitter.Emit(f.Type().(*avro.EnumSchema)))
		}
	}

	src := readGenerated(t, filepath.Join(outDir, "com", "example", "color.go"))
	assert.Contains(t, src, "type Color string")
	assert.Regexp(t, `ColorRed\s+Color = "RED"`, src)
	assert.Regexp(t, `ColorDarkBlue\s+Color = "DARK_BLUE"`, src)
	assert.Contains(t, src, "const ColorDefaultSymbol = ColorRed")
	assert.Contains(t, src, "var ColorSymbols = []Color{")
	assert.Contains(t, src, "func (e Color) IsValid() bool {")

	fixed, err := avro.Parse(`{"type": "fixed", "name": "MD5", "namespace": "com.example.hash", "size": 16}`)
	require.NoError(t, err)
	require.NoError(t, emitter.Emit(fixed.(*avro.FixedSchema)))

	src = readGenerated(t, filepath.Join(outDir, "com", "example", "hash", "md5.go"))
	assert.Contains(t, src, "package hash")
	assert.Contains(t, src, "type MD5 [16]byte")
}

func TestEmitterRecursiveRecord(t *testing.T) {
	outDir := t.TempDir()
	emitter, err := NewEmitter(outDir, DefaultPolicy())
	require.NoError(t, err)

	node := parseRecord(t, `{"type": "record", "name": "Node", "namespace": "com.example.list",
		"fields": [{"name": "value", "type": "long"}, {"name": "next", "type": ["null", "Node"]}]}`)
	require.NoError(t, emitter.Emit(node))
	assert.Equal(t, filepath.Join(outDir, "com", "example", "list", "node.go"), emitter.Path(node))

	src := readGenerated(t, emitter.Path(node))
	assert.Regexp(t, `Next\s+\*Node`, src)
}

func TestEmitterPolicy(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Policy)
		contains []string
		regexps  []string
		excludes []string
	}{
		{
			name:    "char sequence strings",
			mutate:  func(p *Policy) { p.StringType = StringTypeCharSequence },
			regexps: []string{`Name\s+\[\]byte`, `Nickname\s+\[\]byte`},
		},
		{
			name:     "interned strings",
			mutate:   func(p *Policy) { p.StringType = StringTypeUtf8 },
			contains: []string{`"unique"`},
			regexps:  []string{`Name\s+unique\.Handle\[string\]`},
		},
		{
			name:     "private fields",
			mutate:   func(p *Policy) { p.FieldVisibility = FieldVisibilityPrivate },
			contains: []string{"func (r *User) GetName() string {", "return r.name", "`avro:\"name\"`"},
			regexps:  []string{`\bname\s+string`, `\bschema_\s+string`},
			excludes: []string{`json:"`},
		},
		{
			name:     "deprecated public fields",
			mutate:   func(p *Policy) { p.FieldVisibility = FieldVisibilityPublicDeprecated },
			contains: []string{"// Deprecated: use GetName and SetName."},
		},
		{
			name:     "optional getters",
			mutate:   func(p *Policy) { p.OptionalGetters = true },
			contains: []string{"func (r *User) GetNicknameOptional() (string, bool) {"},
			excludes: []string{"GetNameOptional"},
		},
		{
			name:     "decimal disabled",
			mutate:   func(p *Policy) { p.EnableDecimalLogicalType = false },
			regexps:  []string{`Amount\s+\[\]byte`},
			excludes: []string{`"math/big"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := DefaultPolicy()
			tt.mutate(&policy)

			outDir := t.TempDir()
			emitter, err := NewEmitter(outDir, policy)
			require.NoError(t, err)
			require.NoError(t, emitter.Emit(parseRecord(t, userSchema)))

			src := readGenerated(t, filepath.Join(outDir, "com", "example", "user.go"))
			for _, s := range tt.contains {
				assert.Contains(t, src, s)
			}
			for _, re := range tt.regexps {
				assert.Regexp(t, re, src)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, src, s)
			}
		})
	}
}

func TestEmitterCrossNamespace(t *testing.T) {
	cache := &avro.SchemaCache{}
	_, err := avro.ParseWithCache(`{"type": "record", "name": "Money", "namespace": "com.example.common", "fields": [{"name": "cents", "type": "long"}]}`, "", cache)
	require.NoError(t, err)

	schema, err := avro.ParseWithCache(`{
		"type": "error",
		"name": "PaymentFailed",
		"namespace": "com.example.billing",
		"fields": [
			{"name": "amount", "type": "com.example.common.Money"},
			{"name": "refund", "type": ["null", "com.example.common.Money"]}
		]
	}`, "", cache)
	require.NoError(t, err)

	policy := DefaultPolicy()
	policy.ModulePath = "github.com/acme/schemas"

	outDir := t.TempDir()
	emitter, err := NewEmitter(outDir, policy)
	require.NoError(t, err)
	require.NoError(t, emitter.Emit(schema.(*avro.RecordSchema)))

	src := readGenerated(t, filepath.Join(outDir, "com", "example", "billing", "payment_failed.go"))
	assert.Contains(t, src, `comexamplecommon "github.com/acme/schemas/com/example/common"`)
	assert.Regexp(t, `Amount\s+comexamplecommon\.Money`, src)
	assert.Regexp(t, `Refund\s+\*comexamplecommon\.Money`, src)
	assert.Contains(t, src, "func (r *PaymentFailed) Error() string {")
}

func TestEmitterSkipsUnchangedFiles(t *testing.T) {
	outDir := t.TempDir()
	rec := parseRecord(t, userSchema)

	first, err := NewEmitter(outDir, DefaultPolicy())
	require.NoError(t, err)
	require.NoError(t, first.Emit(rec))

	path := filepath.Join(outDir, "com", "example", "user.go")
	before, err := os.Stat(path)
	require.NoError(t, err)

	second, err := NewEmitter(outDir, DefaultPolicy())
	require.NoError(t, err)
	require.NoError(t, second.Emit(rec))

	out := second.Output()
	assert.Equal(t, 0, out.Written)
	assert.Equal(t, 1, out.Unchanged)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())

	generated, err := IsGenerated(path)
	require.NoError(t, err)
	assert.True(t, generated)
}

func TestEmitterRejectsFileCollision(t *testing.T) {
	outDir := t.TempDir()
	emitter, err := NewEmitter(outDir, DefaultPolicy())
	require.NoError(t, err)

	a := parseRecord(t, `{"type": "record", "name": "user_profile", "namespace": "com.example", "fields": []}`)
	b := parseRecord(t, `{"type": "record", "name": "UserProfile", "namespace": "com.example", "fields": []}`)

	require.NoError(t, emitter.Emit(a))
	assert.Error(t, emitter.Emit(b))
}

func TestNewEmitterRejectsInvalidPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy.StringType = "Rope"

	_, err := NewEmitter(t.TempDir(), policy)
	assert.ErrorIs(t, err, ErrUnsupportedOption)
}

func TestDocLines(t *testing.T) {
	assert.Nil(t, docLines(""))
	assert.Equal(t, []string{"first", "", "second"}, docLines("\n  first\n\n  second  \n"))
}
