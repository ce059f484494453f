// Package idl compiles Avro IDL (.avdl) files into Go.
//
// An IDL file is parsed into the equivalent protocol document, which is then
// emitted exactly like a .avpr file. Imports are resolved relative to the
// importing file and every file is read at most once per compile.
package idl

import (
	"context"
	"fmt"

	"github.com/platinummonkey/avrobuild/pkg/codegen"
	"github.com/platinummonkey/avrobuild/pkg/codegen/avpr"
	"github.com/platinummonkey/avrobuild/pkg/schema"
	"github.com/sirupsen/logrus"
)

// Compiler compiles IDL files one at a time
type Compiler struct {
	log      *logrus.Logger
	protocol *avpr.Compiler
}

// NewCompiler creates a compiler
func NewCompiler(log *logrus.Logger) *Compiler {
	if log == nil {
		log = logrus.New()
	}
	return &Compiler{
		log:      log,
		protocol: avpr.NewCompiler(log),
	}
}

// Compile parses file and writes the generated sources below outDir
func (c *Compiler) Compile(ctx context.Context, file schema.SourceFile, outDir string, policy codegen.Policy) (*codegen.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := ParseFile(file.Path)
	if err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"file":     file.Rel,
		"protocol": doc.FullName(),
	}).Debug("Parsed IDL")

	out, err := c.protocol.CompileDocument(ctx, doc, outDir, policy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file.Rel, err)
	}
	return out, nil
}
