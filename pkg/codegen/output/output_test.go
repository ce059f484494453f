package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("package x\n"), 0644))
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "com", "example", "b.go"))
	touch(t, filepath.Join(dir, "com", "example", "a.go"))
	touch(t, filepath.Join(dir, "avro", "c.go"))
	touch(t, filepath.Join(dir, "avro", "notes.txt"))

	files, err := Collect(dir, Extension)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "avro", "c.go"),
		filepath.Join(dir, "com", "example", "a.go"),
		filepath.Join(dir, "com", "example", "b.go"),
	}, files)
}

func TestCollect_ReflectsDeletion(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.go"))
	touch(t, filepath.Join(dir, "b.go"))

	files, err := Collect(dir, Extension)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	require.NoError(t, os.Remove(filepath.Join(dir, "a.go")))

	files, err = Collect(dir, Extension)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.go")}, files)
}

func TestCollect_MissingDir(t *testing.T) {
	files, err := Collect(filepath.Join(t.TempDir(), "missing"), Extension)
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.NotNil(t, files)
}
