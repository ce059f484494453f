package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/platinummonkey/avrobuild/pkg/codegen/incremental"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingBuilder struct {
	runs atomic.Int32
	err  error
}

func (b *countingBuilder) Run(ctx context.Context) (*incremental.Result, error) {
	b.runs.Add(1)
	if b.err != nil {
		return nil, b.err
	}
	return &incremental.Result{State: incremental.StateStale}, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func startWatcher(t *testing.T, w *Watcher) (<-chan error, context.CancelFunc) {
	t.Helper()
	built := make(chan error, 16)
	w.built = built

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})

	waitBuild(t, built)
	return built, cancel
}

func waitBuild(t *testing.T, built <-chan error) error {
	t.Helper()
	select {
	case err := <-built:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for build")
		return nil
	}
}

func assertNoBuild(t *testing.T, built <-chan error, wait time.Duration) {
	t.Helper()
	select {
	case <-built:
		t.Fatal("unexpected build")
	case <-time.After(wait):
	}
}

func TestWatcher_RebuildsOnSchemaChange(t *testing.T) {
	dir := t.TempDir()
	builder := &countingBuilder{}
	w := NewWatcher(builder, []string{dir}, nil, 50*time.Millisecond, quietLogger())

	built, _ := startWatcher(t, w)
	assert.EqualValues(t, 1, builder.runs.Load())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Color.avsc"), []byte(colorSchema), 0644))
	waitBuild(t, built)
	assert.EqualValues(t, 2, builder.runs.Load())
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	builder := &countingBuilder{}
	w := NewWatcher(builder, []string{dir}, nil, 50*time.Millisecond, quietLogger())

	built, _ := startWatcher(t, w)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("docs"), 0644))
	assertNoBuild(t, built, 300*time.Millisecond)
	assert.EqualValues(t, 1, builder.runs.Load())
}

func TestWatcher_Debounces(t *testing.T) {
	dir := t.TempDir()
	builder := &countingBuilder{}
	w := NewWatcher(builder, []string{dir}, nil, 200*time.Millisecond, quietLogger())

	built, _ := startWatcher(t, w)

	for _, name := range []string{"A.avsc", "B.avsc", "C.avdl"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
	}
	waitBuild(t, built)
	assertNoBuild(t, built, 400*time.Millisecond)
	assert.EqualValues(t, 2, builder.runs.Load())
}

func TestWatcher_NewDirectories(t *testing.T) {
	dir := t.TempDir()
	builder := &countingBuilder{}
	w := NewWatcher(builder, []string{dir}, nil, 50*time.Millisecond, quietLogger())

	built, _ := startWatcher(t, w)

	nested := filepath.Join(dir, "com", "example")
	require.NoError(t, os.MkdirAll(nested, 0755))
	waitBuild(t, built)

	require.NoError(t, os.WriteFile(filepath.Join(nested, "Color.avsc"), []byte(colorSchema), 0644))
	waitBuild(t, built)
	assert.GreaterOrEqual(t, builder.runs.Load(), int32(3))
}

func TestWatcher_Archives(t *testing.T) {
	dir := t.TempDir()
	libs := filepath.Join(t.TempDir(), "libs")
	require.NoError(t, os.MkdirAll(libs, 0755))
	archive := filepath.Join(libs, "colors.jar")
	writeArchive(t, archive, map[string]string{"Color.avsc": colorSchema})

	builder := &countingBuilder{}
	w := NewWatcher(builder, []string{dir}, []string{archive}, 50*time.Millisecond, quietLogger())

	built, _ := startWatcher(t, w)

	now := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(archive, now, now))
	waitBuild(t, built)

	// Other files next to the archive are not watched
	require.NoError(t, os.WriteFile(filepath.Join(libs, "other.jar"), []byte("zip"), 0644))
	assertNoBuild(t, built, 300*time.Millisecond)
}

func TestWatcher_BuildFailureKeepsWatching(t *testing.T) {
	dir := t.TempDir()
	builder := &countingBuilder{err: errors.New("boom")}
	w := NewWatcher(builder, []string{dir}, nil, 50*time.Millisecond, quietLogger())

	built, _ := startWatcher(t, w)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Color.avsc"), []byte(colorSchema), 0644))
	err := waitBuild(t, built)
	assert.EqualError(t, err, "boom")
}

func TestWatcher_CreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "src", "main", "avro")
	builder := &countingBuilder{}
	w := NewWatcher(builder, []string{dir}, nil, 50*time.Millisecond, quietLogger())

	startWatcher(t, w)
	assert.DirExists(t, dir)
}
