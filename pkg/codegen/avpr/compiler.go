// Package avpr compiles JSON protocol documents (.avpr) into Go.
package avpr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hamba/avro/v2"
	"github.com/platinummonkey/avrobuild/pkg/codegen"
	"github.com/platinummonkey/avrobuild/pkg/codegen/registry"
	"github.com/platinummonkey/avrobuild/pkg/schema"
	"github.com/sirupsen/logrus"
)

// Compiler compiles protocol documents one file at a time
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

// Compile reads a protocol document and writes its types, message requests
// and protocol interface below outDir
func (c *Compiler) Compile(ctx context.Context, file schema.SourceFile, outDir string, policy codegen.Policy) (*codegen.Output, error) {
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file.Path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", codegen.ErrParse, file.Rel, err)
	}

	out, err := c.CompileDocument(ctx, &doc, outDir, policy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file.Rel, err)
	}
	return out, nil
}

// CompileDocument compiles an already decoded protocol. Protocol documents
// are self-contained: types resolve only against the document itself.
func (c *Compiler) CompileDocument(ctx context.Context, doc *Document, outDir string, policy codegen.Policy) (*codegen.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc.Protocol == "" {
		return nil, fmt.Errorf("%w: protocol name is missing", codegen.ErrParse)
	}

	cache := &avro.SchemaCache{}
	seen := make(map[string]bool)

	var named []avro.NamedSchema
	for _, raw := range doc.Types {
		s, err := parse(raw, doc.Namespace, cache)
		if err != nil {
			return nil, err
		}
		for _, n := range registry.NamedTypes(s) {
			if !seen[n.FullName()] {
				seen[n.FullName()] = true
				named = append(named, n)
			}
		}
	}

	protocol := &codegen.Protocol{
		Name:      doc.Protocol,
		Namespace: doc.Namespace,
		Doc:       doc.Doc,
	}
	for _, name := range doc.MessageNames() {
		msg, err := message(name, doc.Messages[name], doc.Namespace, cache)
		if err != nil {
			return nil, err
		}
		protocol.Messages = append(protocol.Messages, msg)
	}

	declaration, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode protocol %s: %w", doc.FullName(), err)
	}
	protocol.Declaration = string(declaration)

	emitter, err := codegen.NewEmitter(outDir, policy)
	if err != nil {
		return nil, err
	}
	for _, n := range named {
		if err := emitter.Emit(n); err != nil {
			return nil, err
		}
	}
	if err := emitter.EmitProtocol(protocol); err != nil {
		return nil, err
	}

	out := emitter.Output()
	c.log.WithFields(logrus.Fields{
		"protocol": doc.FullName(),
		"types":    len(named),
		"messages": len(protocol.Messages),
		"written":  out.Written,
	}).Debug("Compiled protocol")
	return out, nil
}

func message(name string, m Message, namespace string, cache *avro.SchemaCache) (codegen.Message, error) {
	fields, err := json.Marshal(m.Request)
	if err != nil {
		return codegen.Message{}, fmt.Errorf("%w: message %s: %v", codegen.ErrParse, name, err)
	}
	if m.Request == nil {
		fields = []byte("[]")
	}

	requestName, err := json.Marshal(requestRecordName(name))
	if err != nil {
		return codegen.Message{}, err
	}
	if full := qualify(namespace, requestRecordName(name)); cache.Get(full) != nil {
		return codegen.Message{}, fmt.Errorf("%w: message %s: %s is already defined", codegen.ErrTypeRedefined, name, full)
	}
	record := fmt.Sprintf(`{"type":"record","name":%s,"fields":%s}`, requestName, fields)

	request, err := parse(json.RawMessage(record), namespace, cache)
	if err != nil {
		return codegen.Message{}, fmt.Errorf("message %s: %w", name, err)
	}

	rec, ok := request.(*avro.RecordSchema)
	if !ok {
		return codegen.Message{}, fmt.Errorf("%w: message %s: request is not a record", codegen.ErrParse, name)
	}

	msg := codegen.Message{
		Name:    name,
		Doc:     m.Doc,
		Request: rec,
		OneWay:  m.OneWay,
	}

	if len(m.Response) > 0 {
		response, err := parse(m.Response, namespace, cache)
		if err != nil {
			return codegen.Message{}, fmt.Errorf("message %s: %w", name, err)
		}
		if response.Type() != avro.Null {
			msg.Response = response
		}
	}

	for _, raw := range m.Errors {
		if _, err := parse(raw, namespace, cache); err != nil {
			return codegen.Message{}, fmt.Errorf("message %s: %w", name, err)
		}
	}
	return msg, nil
}

// requestRecordName names the record holding a message's parameters
func requestRecordName(message string) string {
	if message == "" {
		return "Request"
	}
	return strings.ToUpper(message[:1]) + message[1:] + "Request"
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

func parse(raw json.RawMessage, namespace string, cache *avro.SchemaCache) (avro.Schema, error) {
	s, err := avro.ParseWithCache(string(raw), namespace, cache)
	if err != nil {
		if strings.Contains(err.Error(), "unknown type") {
			return nil, fmt.Errorf("%w: %v", codegen.ErrTypeResolution, err)
		}
		return nil, fmt.Errorf("%w: %v", codegen.ErrParse, err)
	}
	return s, nil
}
