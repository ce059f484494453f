package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/hamba/avro/v2"
)

// Protocol is a protocol declaration ready for emission
type Protocol struct {
	Name      string
	Namespace string
	Doc       string
	Messages  []Message

	// Declaration is the JSON protocol text
	Declaration string
}

// FullName returns the namespace-qualified protocol name
func (p *Protocol) FullName() string {
	if p.Namespace == "" {
		return p.Name
	}
	return p.Namespace + "." + p.Name
}

// Message is one protocol message. Request holds the message parameters as a
// record; Response is nil for messages without a response.
type Message struct {
	Name     string
	Doc      string
	Request  *avro.RecordSchema
	Response avro.Schema
	OneWay   bool
}

// Emitter renders schemas into Go source files under an output root
//
// IMPORTANT: Use NewEmitter() to create instances. The zero value is not usable.
type Emitter struct {
	outDir    string
	policy    Policy
	templates *template.Template
	owners    map[string]string
	output    Output
}

// NewEmitter creates an emitter writing below outDir
func NewEmitter(outDir string, policy Policy) (*Emitter, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	tmpl, err := lookupTemplateSet(policy.templateSetName())
	if err != nil {
		return nil, err
	}

	return &Emitter{
		outDir:    outDir,
		policy:    policy,
		templates: tmpl,
		owners:    make(map[string]string),
	}, nil
}

// Output returns the files emitted so far
func (e *Emitter) Output() *Output {
	out := e.output
	out.Files = append([]string(nil), e.output.Files...)
	return &out
}

// Emit writes the Go file for a record, enum or fixed schema
func (e *Emitter) Emit(schema avro.NamedSchema) error {
	switch s := schema.(type) {
	case *avro.RecordSchema:
		return e.emitRecord(s)
	case *avro.EnumSchema:
		return e.emitEnum(s)
	case *avro.FixedSchema:
		return e.emitFixed(s)
	default:
		return fmt.Errorf("cannot emit %s: unsupported schema type %s", schema.FullName(), schema.Type())
	}
}

// Path returns the file schema is emitted to
func (e *Emitter) Path(schema avro.NamedSchema) string {
	return e.path(schema.Namespace(), schema.Name())
}

func (e *Emitter) path(namespace, name string) string {
	return filepath.Join(e.outDir, namespaceDir(namespace), fileName(exportedName(name)))
}

// EmitProtocol writes the request records of every message and the protocol
// interface
func (e *Emitter) EmitProtocol(p *Protocol) error {
	for _, m := range p.Messages {
		if err := e.emitRecord(m.Request); err != nil {
			return err
		}
	}

	f := newGoFile(p.Namespace, e.policy)
	view := &protocolView{
		Name:     exportedName(p.Name),
		FullName: p.FullName(),
		Doc:      typeDoc(exportedName(p.Name), "protocol", p.FullName(), p.Doc),
		Schema:   strconv.Quote(p.Declaration),
	}
	for _, m := range p.Messages {
		method := methodView{
			Name:    exportedName(m.Name),
			Doc:     docLines(m.Doc),
			Request: f.typeOf(m.Request),
		}
		if !m.OneWay && m.Response != nil && m.Response.Type() != avro.Null {
			method.Response = f.typeOf(m.Response)
		}
		view.Methods = append(view.Methods, method)
	}
	if len(view.Methods) > 0 {
		f.use("context", "")
	}

	return e.render("protocol", fileView{Header: f.header(p.FullName()), Protocol: view}, p.Namespace, p.Name, p.FullName())
}

func (e *Emitter) emitRecord(s *avro.RecordSchema) error {
	f := newGoFile(s.Namespace(), e.policy)
	name := exportedName(s.Name())

	kind := "record"
	if s.IsError() {
		kind = "error"
	}

	view := &recordView{
		Name:            name,
		FullName:        s.FullName(),
		Doc:             typeDoc(name, kind, s.FullName(), s.Doc()),
		IsError:         s.IsError(),
		Deprecated:      e.policy.FieldVisibility == FieldVisibilityPublicDeprecated,
		OptionalGetters: e.policy.OptionalGetters,
		Schema:          strconv.Quote(s.String()),
	}

	reserved := map[string]bool{"Schema": true}
	if s.IsError() {
		reserved["Error"] = true
	}

	for _, field := range s.Fields() {
		accessor := exportedName(field.Name())
		for reserved[accessor] {
			accessor += "_"
		}
		reserved[accessor] = true

		fieldName := accessor
		if e.policy.FieldVisibility == FieldVisibilityPrivate {
			fieldName = lowerIdent(accessor)
		}

		goType := f.typeOf(field.Type())
		fv := fieldView{
			Name:     fieldName,
			Accessor: accessor,
			AvroName: field.Name(),
			Type:     goType,
			Doc:      docLines(field.Doc()),
			Exported: fieldName == accessor,
		}

		if u, ok := field.Type().(*avro.UnionSchema); ok {
			if inner, ok := nullableInner(u); ok {
				fv.Optional = true
				fv.ElemType = f.typeOf(inner)
				fv.Pointer = !nillable(fv.ElemType)
			}
		}

		if field.HasDefault() && field.Default() != nil {
			if lit, ok := f.defaultLiteral(field.Type(), goType, field.Default()); ok {
				fv.Default = lit
			}
		}

		view.Fields = append(view.Fields, fv)
	}

	return e.render("record", fileView{Header: f.header(s.FullName()), Record: view}, s.Namespace(), s.Name(), s.FullName())
}

func (e *Emitter) emitEnum(s *avro.EnumSchema) error {
	f := newGoFile(s.Namespace(), e.policy)
	name := exportedName(s.Name())

	view := &enumView{
		Name:     name,
		FullName: s.FullName(),
		Doc:      typeDoc(name, "enum", s.FullName(), s.Doc()),
		Consts:   enumConsts(s),
		Schema:   strconv.Quote(s.String()),
	}
	if def := s.Default(); def != "" {
		for _, c := range view.Consts {
			if c.Symbol == def {
				view.Default = c.Name
			}
		}
	}

	return e.render("enum", fileView{Header: f.header(s.FullName()), Enum: view}, s.Namespace(), s.Name(), s.FullName())
}

func (e *Emitter) emitFixed(s *avro.FixedSchema) error {
	f := newGoFile(s.Namespace(), e.policy)

	view := &fixedView{
		Name:     exportedName(s.Name()),
		FullName: s.FullName(),
		Size:     s.Size(),
		Schema:   strconv.Quote(s.String()),
	}

	return e.render("fixed", fileView{Header: f.header(s.FullName()), Fixed: view}, s.Namespace(), s.Name(), s.FullName())
}

func (e *Emitter) render(tmpl string, data fileView, namespace, name, fullName string) error {
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, tmpl, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", fullName, err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("failed to format generated source for %s: %w", fullName, err)
	}

	path := e.path(namespace, name)
	if owner, ok := e.owners[path]; ok {
		if owner != fullName {
			return fmt.Errorf("%s and %s both generate %s", owner, fullName, path)
		}
	}

	changed, err := WriteFile(path, src)
	if err != nil {
		return err
	}
	if _, ok := e.owners[path]; !ok {
		e.owners[path] = fullName
		e.output.add(path, changed)
	}
	return nil
}

// typeDoc returns the doc comment lines of a generated type
func typeDoc(goName, kind, fullName, doc string) []string {
	lines := []string{fmt.Sprintf("%s is generated from the Avro %s %s.", goName, kind, fullName)}
	if body := docLines(doc); len(body) > 0 {
		lines = append(lines, "")
		lines = append(lines, body...)
	}
	return lines
}

// docLines splits a schema doc string into trimmed comment lines
func docLines(doc string) []string {
	var lines []string
	for _, line := range strings.Split(doc, "\n") {
		lines = append(lines, strings.TrimSpace(line))
	}

	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
