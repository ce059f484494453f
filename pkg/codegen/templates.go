package codegen

import (
	"fmt"
	"text/template"
)

// GeneratedHeader is the first line of every generated file. Files carrying
// it are owned by the build and may be deleted when no longer produced.
const GeneratedHeader = "// Code generated by avrobuild. DO NOT EDIT."

type importView struct {
	Alias string
	Path  string
}

type headerView struct {
	Source  string
	Package string
	Imports []importView
}

type fileView struct {
	Header   headerView
	Record   *recordView
	Enum     *enumView
	Fixed    *fixedView
	Protocol *protocolView
}

type recordView struct {
	Name            string
	FullName        string
	Doc             []string
	IsError         bool
	Fields          []fieldView
	Deprecated      bool
	OptionalGetters bool
	Schema          string
}

type fieldView struct {
	Name     string
	Accessor string
	AvroName string
	Type     string
	Doc      []string
	Default  string
	Optional bool
	Pointer  bool
	ElemType string
	Exported bool
}

type enumView struct {
	Name     string
	FullName string
	Doc      []string
	Consts   []enumConst
	Default  string
	Schema   string
}

type fixedView struct {
	Name     string
	FullName string
	Size     int
	Schema   string
}

type protocolView struct {
	Name     string
	FullName string
	Doc      []string
	Methods  []methodView
	Schema   string
}

type methodView struct {
	Name     string
	Doc      []string
	Request  string
	Response string
}

const classicHeader = `{{define "header" -}}
` + GeneratedHeader + `
// source: {{.Source}}

package {{.Package}}
{{if .Imports}}
import (
{{- range .Imports}}
	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{- end}}
)
{{end}}
{{- end}}`

const classicRecord = `{{define "record" -}}
{{template "header" .Header}}
{{- with .Record}}
{{range .Doc}}//{{if .}} {{.}}{{end}}
{{end -}}
type {{.Name}} struct {
{{- range .Fields}}
{{- range .Doc}}
	//{{if .}} {{.}}{{end}}
{{- end}}
{{- if $.Record.Deprecated}}
{{- if .Doc}}
	//
{{- end}}
	// Deprecated: use Get{{.Accessor}} and Set{{.Accessor}}.
{{- end}}
	{{.Name}} {{.Type}} ` + "`" + `avro:"{{.AvroName}}"{{if .Exported}} json:"{{.AvroName}}"{{end}}` + "`" + `
{{- end}}
}

// New{{.Name}} returns a {{.Name}} with schema defaults applied
func New{{.Name}}() *{{.Name}} {
	return &{{.Name}}{
{{- range .Fields}}
{{- if .Default}}
		{{.Name}}: {{.Default}},
{{- end}}
{{- end}}
	}
}

// Schema returns the canonical Avro schema of {{.Name}}
func (r *{{.Name}}) Schema() string {
	return avroSchema{{.Name}}
}
{{range .Fields}}
// Get{{.Accessor}} returns the {{.AvroName}} field
func (r *{{$.Record.Name}}) Get{{.Accessor}}() {{.Type}} {
	return r.{{.Name}}
}

// Set{{.Accessor}} sets the {{.AvroName}} field
func (r *{{$.Record.Name}}) Set{{.Accessor}}(v {{.Type}}) {
	r.{{.Name}} = v
}
{{if and $.Record.OptionalGetters .Optional}}
// Get{{.Accessor}}Optional returns the {{.AvroName}} field and whether it is set
func (r *{{$.Record.Name}}) Get{{.Accessor}}Optional() ({{.ElemType}}, bool) {
{{- if .Pointer}}
	if r.{{.Name}} == nil {
		var zero {{.ElemType}}
		return zero, false
	}
	return *r.{{.Name}}, true
{{- else}}
	return r.{{.Name}}, r.{{.Name}} != nil
{{- end}}
}
{{end}}
{{- end}}
{{- if .IsError}}
// Error implements error
func (r *{{.Name}}) Error() string {
	return "{{.FullName}}"
}
{{end}}
const avroSchema{{.Name}} = {{.Schema}}
{{- end}}
{{end}}`

const classicEnum = `{{define "enum" -}}
{{template "header" .Header}}
{{- with .Enum}}
{{range .Doc}}//{{if .}} {{.}}{{end}}
{{end -}}
type {{.Name}} string

const (
{{- range .Consts}}
	{{.Name}} {{$.Enum.Name}} = "{{.Symbol}}"
{{- end}}
)
{{if .Default}}
// {{.Name}}DefaultSymbol is used by readers for symbols they do not know
const {{.Name}}DefaultSymbol = {{.Default}}
{{end}}
// {{.Name}}Symbols lists the symbols of {{.Name}} in schema order
var {{.Name}}Symbols = []{{.Name}}{
{{- range .Consts}}
	{{.Name}},
{{- end}}
}

// String implements fmt.Stringer
func (e {{.Name}}) String() string {
	return string(e)
}

// IsValid reports whether e is a declared symbol
func (e {{.Name}}) IsValid() bool {
{{- if .Consts}}
	switch e {
	case {{range $i, $c := .Consts}}{{if $i}}, {{end}}{{$c.Name}}{{end}}:
		return true
	}
{{- end}}
	return false
}

// Schema returns the canonical Avro schema of {{.Name}}
func (e {{.Name}}) Schema() string {
	return avroSchema{{.Name}}
}

const avroSchema{{.Name}} = {{.Schema}}
{{- end}}
{{end}}`

const classicFixed = `{{define "fixed" -}}
{{template "header" .Header}}
{{- with .Fixed}}
// {{.Name}} is the Avro fixed type {{.FullName}}
type {{.Name}} [{{.Size}}]byte

// Schema returns the canonical Avro schema of {{.Name}}
func (f {{.Name}}) Schema() string {
	return avroSchema{{.Name}}
}

const avroSchema{{.Name}} = {{.Schema}}
{{- end}}
{{end}}`

const classicProtocol = `{{define "protocol" -}}
{{template "header" .Header}}
{{- with .Protocol}}
{{range .Doc}}//{{if .}} {{.}}{{end}}
{{end -}}
type {{.Name}} interface {
{{- range .Methods}}
{{- range .Doc}}
	//{{if .}} {{.}}{{end}}
{{- end}}
	{{.Name}}(ctx context.Context, req *{{.Request}}) {{if .Response}}({{.Response}}, error){{else}}error{{end}}
{{- end}}
}

// {{.Name}}Protocol is the protocol declaration {{.Name}} was generated from
const {{.Name}}Protocol = {{.Schema}}
{{- end}}
{{end}}`

var templateSets = map[string][]string{
	"classic": {classicHeader, classicRecord, classicEnum, classicFixed, classicProtocol},
}

// lookupTemplateSet parses the named template set
func lookupTemplateSet(name string) (*template.Template, error) {
	sources, ok := templateSets[name]
	if !ok {
		return nil, fmt.Errorf("%w: template set %q", ErrUnsupportedOption, name)
	}

	tmpl := template.New(name)
	for _, src := range sources {
		if _, err := tmpl.Parse(src); err != nil {
			return nil, fmt.Errorf("failed to parse template set %s: %w", name, err)
		}
	}
	return tmpl, nil
}
