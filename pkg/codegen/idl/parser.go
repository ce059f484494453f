package idl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/platinummonkey/avrobuild/pkg/codegen"
	"github.com/platinummonkey/avrobuild/pkg/codegen/avpr"
)

var primitiveTypes = map[string]bool{
	"boolean": true, "int": true, "long": true, "float": true,
	"double": true, "bytes": true, "string": true, "null": true,
}

// logicalTypes maps IDL keywords to the schema they stand for
var logicalTypes = map[string][2]string{
	"date":               {"int", "date"},
	"time_ms":            {"int", "time-millis"},
	"timestamp_ms":       {"long", "timestamp-millis"},
	"local_timestamp_ms": {"long", "local-timestamp-millis"},
	"uuid":               {"string", "uuid"},
}

// loader parses one IDL file and everything it imports. Every file is read
// at most once, which also breaks import cycles.
type loader struct {
	visited  map[string]bool
	declared map[string]string // simple name -> full name
}

// ParseFile parses the IDL file at path, resolving imports relative to it
func ParseFile(path string) (*avpr.Document, error) {
	l := &loader{
		visited:  make(map[string]bool),
		declared: make(map[string]string),
	}
	return l.parseFile(path)
}

// Parse parses IDL read from r. name is used in errors and to resolve
// imports.
func Parse(name string, r io.Reader) (*avpr.Document, error) {
	l := &loader{
		visited:  make(map[string]bool),
		declared: make(map[string]string),
	}
	return l.parse(name, r)
}

func (l *loader) parseFile(path string) (*avpr.Document, error) {
	if abs, err := filepath.Abs(path); err == nil {
		l.visited[abs] = true
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return l.parse(path, f)
}

func (l *loader) parse(name string, r io.Reader) (*avpr.Document, error) {
	p := &parser{
		s:      NewScanner(r),
		file:   name,
		loader: l,
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	return p.parseProtocol()
}

type parser struct {
	s         *Scanner
	file      string
	tok       Token
	namespace string
	loader    *loader
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s:%s: %s", codegen.ErrParse, p.file, p.tok.Pos, fmt.Sprintf(format, args...))
}

// next advances to the next significant token, attaching any doc comment
// directly before it
func (p *parser) next() error {
	doc := ""
	for {
		tok, err := p.s.Scan()
		if err != nil {
			p.tok = tok
			return p.errorf("%v", err)
		}
		switch tok.Type {
		case TokenComment:
			continue
		case TokenDocComment:
			doc = tok.Text
			continue
		}
		tok.Doc = doc
		p.tok = tok
		return nil
	}
}

func (p *parser) is(text string) bool {
	return p.tok.Type == TokenPunctuation && p.tok.Text == text
}

func (p *parser) isKeyword(text string) bool {
	return p.tok.Type == TokenIdentifier && p.tok.Text == text
}

func (p *parser) expect(text string) error {
	if (p.tok.Type != TokenPunctuation && p.tok.Type != TokenIdentifier) || p.tok.Text != text {
		return p.errorf("expected %q, found %s", text, p.describe())
	}
	return p.next()
}

func (p *parser) ident() (string, error) {
	if p.tok.Type != TokenIdentifier {
		return "", p.errorf("expected identifier, found %s", p.describe())
	}
	text := p.tok.Text
	return text, p.next()
}

func (p *parser) describe() string {
	if p.tok.Type == TokenEOF {
		return "end of file"
	}
	return strconv.Quote(p.tok.Text)
}

func (p *parser) parseProtocol() (*avpr.Document, error) {
	doc := p.tok.Doc
	props, err := p.annotations()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("protocol") {
		return nil, p.errorf("expected \"protocol\", found %s", p.describe())
	}
	if err := p.next(); err != nil {
		return nil, err
	}

	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	p.namespace, _ = stringProperty(props, "namespace")

	d := &avpr.Document{
		Protocol:  name,
		Namespace: p.namespace,
		Doc:       doc,
		Messages:  make(map[string]avpr.Message),
	}

	if err := p.expect("{"); err != nil {
		return nil, err
	}
	for !p.is("}") {
		if p.tok.Type == TokenEOF {
			return nil, p.errorf("unexpected end of file in protocol %s", name)
		}
		if err := p.parseDeclaration(d); err != nil {
			return nil, err
		}
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.tok.Type != TokenEOF {
		return nil, p.errorf("unexpected %s after protocol", p.describe())
	}
	return d, nil
}

func (p *parser) parseDeclaration(d *avpr.Document) error {
	doc := p.tok.Doc
	if p.isKeyword("import") {
		return p.parseImport(d)
	}

	props, err := p.annotations()
	if err != nil {
		return err
	}

	var raw any
	switch {
	case p.isKeyword("record"), p.isKeyword("error"):
		raw, err = p.parseRecord(doc, props)
	case p.isKeyword("enum"):
		raw, err = p.parseEnum(doc, props)
	case p.isKeyword("fixed"):
		raw, err = p.parseFixed(doc, props)
	default:
		return p.parseMessage(d, doc)
	}
	if err != nil {
		return err
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode type: %w", err)
	}
	d.Types = append(d.Types, data)
	return nil
}

func (p *parser) annotations() ([]property, error) {
	var props []property
	for p.tok.Type == TokenAnnotation {
		name := p.tok.Text
		if err := p.next(); err != nil {
			return nil, err
		}
		if err := p.expect("("); err != nil {
			return nil, err
		}
		value, err := p.parseJSON()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		props = append(props, property{name: name, value: value})
	}
	return props, nil
}

// declare registers a named type and starts its schema object
func (p *parser) declare(kind, name, doc string, props []property) *object {
	namespace := p.namespace
	if ns, ok := stringProperty(props, "namespace"); ok {
		namespace = ns
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		namespace, name = name[:i], name[i+1:]
	}

	full := name
	if namespace != "" {
		full = namespace + "." + name
	}
	p.loader.declared[name] = full

	obj := newObject()
	obj.set("type", kind)
	obj.set("name", name)
	if namespace != "" {
		obj.set("namespace", namespace)
	}
	if doc != "" {
		obj.set("doc", doc)
	}
	for _, prop := range props {
		if prop.name != "namespace" {
			obj.set(prop.name, prop.value)
		}
	}
	return obj
}

// resolve returns the full name of a referenced type
func (p *parser) resolve(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	if full, ok := p.loader.declared[name]; ok {
		return full
	}
	if p.namespace == "" {
		return name
	}
	return p.namespace + "." + name
}

func (p *parser) parseRecord(doc string, props []property) (any, error) {
	kind := p.tok.Text
	if err := p.next(); err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	obj := p.declare(kind, name, doc, props)

	if err := p.expect("{"); err != nil {
		return nil, err
	}
	fields := []any{}
	for !p.is("}") {
		if p.tok.Type == TokenEOF {
			return nil, p.errorf("unexpected end of file in %s %s", kind, name)
		}
		declared, err := p.parseFields()
		if err != nil {
			return nil, err
		}
		fields = append(fields, declared...)
	}
	if err := p.next(); err != nil {
		return nil, err
	}

	obj.set("fields", fields)
	return obj, nil
}

// parseFields parses one field declaration, which may declare several
// variables of the same type
func (p *parser) parseFields() ([]any, error) {
	doc := p.tok.Doc
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}

	var fields []any
	for {
		field, err := p.parseVariable(typ, doc)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)

		if p.is(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		return fields, p.expect(";")
	}
}

// parseVariable parses "[annotations] name [= default]"
func (p *parser) parseVariable(typ any, doc string) (*object, error) {
	if p.tok.Doc != "" {
		doc = p.tok.Doc
	}
	props, err := p.annotations()
	if err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}

	var def json.RawMessage
	if p.is("=") {
		if err := p.next(); err != nil {
			return nil, err
		}
		if def, err = p.parseJSON(); err != nil {
			return nil, err
		}
	}

	field := newObject()
	field.set("name", name)
	field.set("type", resolveType(typ, def))
	if doc != "" {
		field.set("doc", doc)
	}
	if def != nil {
		field.set("default", def)
	}
	for _, prop := range props {
		field.set(prop.name, prop.value)
	}
	return field, nil
}

func (p *parser) parseEnum(doc string, props []property) (any, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	obj := p.declare("enum", name, doc, props)

	if err := p.expect("{"); err != nil {
		return nil, err
	}
	symbols := []string{}
	for !p.is("}") {
		symbol, err := p.ident()
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, symbol)
		if !p.is(",") {
			break
		}
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	if err := p.expect("}"); err != nil {
		return nil, err
	}
	obj.set("symbols", symbols)

	if p.is("=") {
		if err := p.next(); err != nil {
			return nil, err
		}
		def, err := p.ident()
		if err != nil {
			return nil, err
		}
		obj.set("default", def)
		if err := p.expect(";"); err != nil {
			return nil, err
		}
	} else if p.is(";") {
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func (p *parser) parseFixed(doc string, props []property) (any, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	obj := p.declare("fixed", name, doc, props)

	if err := p.expect("("); err != nil {
		return nil, err
	}
	size, err := p.integer()
	if err != nil {
		return nil, err
	}
	obj.set("size", size)
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return obj, p.expect(";")
}

func (p *parser) integer() (int, error) {
	if p.tok.Type != TokenNumber {
		return 0, p.errorf("expected integer, found %s", p.describe())
	}
	n, err := strconv.Atoi(p.tok.Text)
	if err != nil {
		return 0, p.errorf("invalid integer %q", p.tok.Text)
	}
	return n, p.next()
}

// parseType parses a type with its leading annotations. The result is a
// schema JSON value, or an optional wrapping one.
func (p *parser) parseType() (any, error) {
	props, err := p.annotations()
	if err != nil {
		return nil, err
	}

	base, err := p.parseBaseType()
	if err != nil {
		return nil, err
	}

	if len(props) > 0 {
		obj, ok := base.(*object)
		if !ok {
			obj = newObject()
			obj.set("type", base)
		}
		for _, prop := range props {
			obj.set(prop.name, prop.value)
		}
		base = obj
	}

	if p.is("?") {
		if err := p.next(); err != nil {
			return nil, err
		}
		return optional{inner: base}, nil
	}
	return base, nil
}

func (p *parser) parseBaseType() (any, error) {
	if p.tok.Type != TokenIdentifier {
		return nil, p.errorf("expected type, found %s", p.describe())
	}
	word := p.tok.Text

	switch {
	case primitiveTypes[word]:
		return word, p.next()
	case word == "decimal":
		return p.parseDecimal()
	case word == "array", word == "map":
		return p.parseContainer(word)
	case word == "union":
		return p.parseUnion()
	}

	if logical, ok := logicalTypes[word]; ok {
		obj := newObject()
		obj.set("type", logical[0])
		obj.set("logicalType", logical[1])
		return obj, p.next()
	}

	return p.resolve(word), p.next()
}

func (p *parser) parseDecimal() (any, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expect("("); err != nil {
		return nil, err
	}
	precision, err := p.integer()
	if err != nil {
		return nil, err
	}
	if err := p.expect(","); err != nil {
		return nil, err
	}
	scale, err := p.integer()
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}

	obj := newObject()
	obj.set("type", "bytes")
	obj.set("logicalType", "decimal")
	obj.set("precision", precision)
	obj.set("scale", scale)
	return obj, nil
}

func (p *parser) parseContainer(kind string) (any, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expect("<"); err != nil {
		return nil, err
	}
	elem, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expect(">"); err != nil {
		return nil, err
	}

	obj := newObject()
	obj.set("type", kind)
	if kind == "array" {
		obj.set("items", resolveType(elem, nil))
	} else {
		obj.set("values", resolveType(elem, nil))
	}
	return obj, nil
}

func (p *parser) parseUnion() (any, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expect("{"); err != nil {
		return nil, err
	}

	branches := []any{}
	for !p.is("}") {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		branches = append(branches, resolveType(t, nil))
		if !p.is(",") {
			break
		}
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	return branches, p.expect("}")
}

// parseMessage parses "type name(params) [oneway | throws errors];"
func (p *parser) parseMessage(d *avpr.Document, doc string) error {
	var response any = "null"
	if p.isKeyword("void") {
		if err := p.next(); err != nil {
			return err
		}
	} else {
		t, err := p.parseType()
		if err != nil {
			return err
		}
		response = resolveType(t, nil)
	}

	name, err := p.ident()
	if err != nil {
		return err
	}
	if err := p.expect("("); err != nil {
		return err
	}

	msg := avpr.Message{Doc: doc, Request: []json.RawMessage{}}
	for !p.is(")") {
		pdoc := p.tok.Doc
		typ, err := p.parseType()
		if err != nil {
			return err
		}
		param, err := p.parseVariable(typ, pdoc)
		if err != nil {
			return err
		}
		data, err := json.Marshal(param)
		if err != nil {
			return fmt.Errorf("failed to encode parameter: %w", err)
		}
		msg.Request = append(msg.Request, data)

		if !p.is(",") {
			break
		}
		if err := p.next(); err != nil {
			return err
		}
	}
	if err := p.expect(")"); err != nil {
		return err
	}

	if msg.Response, err = json.Marshal(response); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	switch {
	case p.isKeyword("oneway"):
		msg.OneWay = true
		if err := p.next(); err != nil {
			return err
		}
	case p.isKeyword("throws"):
		for {
			if err := p.next(); err != nil {
				return err
			}
			errName, err := p.ident()
			if err != nil {
				return err
			}
			data, _ := json.Marshal(p.resolve(errName))
			msg.Errors = append(msg.Errors, data)
			if !p.is(",") {
				break
			}
		}
	}

	d.Messages[name] = msg
	return p.expect(";")
}

// parseJSON parses a JSON value spelled in IDL tokens
func (p *parser) parseJSON() (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := p.writeJSON(&buf); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}

func (p *parser) writeJSON(buf *bytes.Buffer) error {
	switch {
	case p.tok.Type == TokenString:
		data, _ := json.Marshal(p.tok.Text)
		buf.Write(data)
		return p.next()
	case p.tok.Type == TokenNumber:
		if !json.Valid([]byte(p.tok.Text)) {
			return p.errorf("invalid number %q", p.tok.Text)
		}
		buf.WriteString(p.tok.Text)
		return p.next()
	case p.isKeyword("true"), p.isKeyword("false"), p.isKeyword("null"):
		buf.WriteString(p.tok.Text)
		return p.next()
	case p.is("["):
		buf.WriteByte('[')
		if err := p.next(); err != nil {
			return err
		}
		for i := 0; !p.is("]"); i++ {
			if i > 0 {
				if err := p.expect(","); err != nil {
					return err
				}
				buf.WriteByte(',')
			}
			if err := p.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return p.next()
	case p.is("{"):
		buf.WriteByte('{')
		if err := p.next(); err != nil {
			return err
		}
		for i := 0; !p.is("}"); i++ {
			if i > 0 {
				if err := p.expect(","); err != nil {
					return err
				}
				buf.WriteByte(',')
			}
			if p.tok.Type != TokenString {
				return p.errorf("expected object key, found %s", p.describe())
			}
			key, _ := json.Marshal(p.tok.Text)
			buf.Write(key)
			if err := p.next(); err != nil {
				return err
			}
			if err := p.expect(":"); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := p.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return p.next()
	default:
		return p.errorf("expected JSON value, found %s", p.describe())
	}
}

// parseImport parses `import idl|protocol|schema "path";` and merges the
// imported declarations into d. Paths are relative to the importing file.
func (p *parser) parseImport(d *avpr.Document) error {
	if err := p.next(); err != nil {
		return err
	}
	kind, err := p.ident()
	if err != nil {
		return err
	}
	if p.tok.Type != TokenString {
		return p.errorf("expected import path, found %s", p.describe())
	}
	path := p.tok.Text
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(p.file), path)
	}
	if err := p.next(); err != nil {
		return err
	}
	if err := p.expect(";"); err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if p.loader.visited[abs] {
		return nil
	}

	switch kind {
	case "idl":
		imported, err := p.loader.parseFile(path)
		if err != nil {
			return err
		}
		merge(d, imported)
	case "protocol":
		p.loader.visited[abs] = true
		imported, err := readProtocol(path)
		if err != nil {
			return err
		}
		for i, raw := range imported.Types {
			imported.Types[i] = p.loader.register(raw, imported.Namespace)
		}
		merge(d, imported)
	case "schema":
		p.loader.visited[abs] = true
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read import %s: %w", path, err)
		}
		if !json.Valid(data) {
			return fmt.Errorf("%w: %s: invalid JSON", codegen.ErrParse, path)
		}
		d.Types = append(d.Types, p.loader.register(data, ""))
	default:
		return p.errorf("unknown import kind %q", kind)
	}
	return nil
}

func readProtocol(path string) (*avpr.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import %s: %w", path, err)
	}
	var doc avpr.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", codegen.ErrParse, path, err)
	}
	return &doc, nil
}

// register records the name a JSON type declares so IDL references can use
// its simple name. Types without a namespace take namespace.
func (l *loader) register(raw json.RawMessage, namespace string) json.RawMessage {
	var decl map[string]any
	if err := json.Unmarshal(raw, &decl); err != nil {
		return raw
	}
	name, _ := decl["name"].(string)
	if name == "" {
		return raw
	}

	ns, _ := decl["namespace"].(string)
	if ns == "" && namespace != "" && !strings.Contains(name, ".") {
		ns = namespace
		decl["namespace"] = ns
		if data, err := json.Marshal(decl); err == nil {
			raw = data
		}
	}

	full := name
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	} else if ns != "" {
		full = ns + "." + name
	}
	l.declared[name] = full
	return raw
}

func merge(d, imported *avpr.Document) {
	d.Types = append(d.Types, imported.Types...)
	for name, msg := range imported.Messages {
		if _, ok := d.Messages[name]; !ok {
			d.Messages[name] = msg
		}
	}
}
