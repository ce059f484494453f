package incremental

import (
	"github.com/platinummonkey/avrobuild/pkg/codegen/avpr"
	"github.com/platinummonkey/avrobuild/pkg/codegen/avsc"
	"github.com/platinummonkey/avrobuild/pkg/codegen/idl"
)

func idlCompiler() *idl.Compiler       { return idl.NewCompiler(nil) }
func schemaCompiler() *avsc.Compiler   { return avsc.NewCompiler(nil) }
func protocolCompiler() *avpr.Compiler { return avpr.NewCompiler(nil) }
