package idl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/platinummonkey/avrobuild/pkg/codegen"
	"github.com/platinummonkey/avrobuild/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeIDL(t *testing.T, content string) schema.SourceFile {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "shop.avdl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return schema.SourceFile{Root: root, Path: path, Rel: "shop.avdl", Format: schema.FormatIDL}
}

func TestCompile(t *testing.T) {
	outDir := t.TempDir()
	out, err := NewCompiler(nil).Compile(context.Background(), writeIDL(t, shopIDL), outDir, codegen.DefaultPolicy())
	require.NoError(t, err)

	dir := filepath.Join(outDir, "com", "example", "shop")
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "status.go"),
		filepath.Join(dir, "digest.go"),
		filepath.Join(dir, "item.go"),
		filepath.Join(dir, "order.go"),
		filepath.Join(dir, "rejected.go"),
		filepath.Join(dir, "place_request.go"),
		filepath.Join(dir, "cancel_request.go"),
		filepath.Join(dir, "shop.go"),
	}, out.Files)

	data, err := os.ReadFile(filepath.Join(dir, "shop.go"))
	require.NoError(t, err)
	src := string(data)
	assert.Contains(t, src, codegen.GeneratedHeader)
	assert.Contains(t, src, "type Shop interface {")
	assert.Contains(t, src, "Place(ctx context.Context, req *PlaceRequest) (Order, error)")
	assert.Contains(t, src, "Cancel(ctx context.Context, req *CancelRequest) error")

	data, err = os.ReadFile(filepath.Join(dir, "order.go"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "// An order.")
}

func TestCompileSyntaxError(t *testing.T) {
	outDir := t.TempDir()
	_, err := NewCompiler(nil).Compile(context.Background(), writeIDL(t, "protocol {"), outDir, codegen.DefaultPolicy())
	assert.ErrorIs(t, err, codegen.ErrParse)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompileUnknownType(t *testing.T) {
	outDir := t.TempDir()
	_, err := NewCompiler(nil).Compile(context.Background(),
		writeIDL(t, "protocol P { record R { Missing m; } }"), outDir, codegen.DefaultPolicy())
	assert.ErrorIs(t, err, codegen.ErrTypeResolution)
}

func TestCompileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCompiler(nil).Compile(ctx, writeIDL(t, shopIDL), t.TempDir(), codegen.DefaultPolicy())
	assert.ErrorIs(t, err, context.Canceled)
}
