package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/answerdesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	changed []string
	removed []string
}

func (r *recorder) onChange(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = append(r.changed, path)
}

func (r *recorder) onRemove(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, path)
}

func (r *recorder) changedCount(suffix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.changed {
		if strings.HasSuffix(p, suffix) {
			n++
		}
	}
	return n
}

func (r *recorder) wasRemoved(suffix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.removed {
		if strings.HasSuffix(p, suffix) {
			return true
		}
	}
	return false
}

func startWatcher(t *testing.T, cfg config.WatchConfig, rec *recorder) *Watcher {
	t.Helper()
	w := New(cfg, rec.onChange, rec.onRemove, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		w.Stop()
		cancel()
	})
	require.NoError(t, w.Start(ctx))
	return w
}

func yamlOnly(dirs ...string) config.WatchConfig {
	return config.WatchConfig{Directories: dirs, Extensions: []string{".yaml", ".json"}}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestWatcher_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, yamlOnly(), &recorder{})

	require.NoError(t, w.AddDirectory(dir, false))
	require.NoError(t, w.AddDirectory(dir, false))
	assert.Equal(t, []string{filepath.Clean(dir)}, w.Directories())

	require.NoError(t, w.RemoveDirectory(dir))
	assert.Empty(t, w.Directories())
	require.NoError(t, w.RemoveDirectory(dir), "removing an unknown root is a no-op")
}

func TestWatcher_DebounceAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, yamlOnly(dir), rec)

	path := filepath.Join(dir, "bundle.yaml")
	for i := 0; i < 5; i++ {
		writeFile(t, path, strings.Repeat("a", i+1))
	}
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	assert.Eventually(t, func() bool { return rec.changedCount("bundle.yaml") >= 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.LessOrEqual(t, rec.changedCount("bundle.yaml"), 2, "burst of writes should be debounced")
	assert.Zero(t, rec.changedCount("notes.txt"))
}

func TestWatcher_RemoveCallsOnRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.yaml")
	writeFile(t, path, "answers: []")

	rec := &recorder{}
	startWatcher(t, yamlOnly(dir), rec)
	require.NoError(t, os.Remove(path))

	assert.Eventually(t, func() bool { return rec.wasRemoved("gone.yaml") }, 2*time.Second, 20*time.Millisecond)
}

func TestWatcher_RenameCountsAsRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.yaml")
	writeFile(t, path, "answers: []")

	rec := &recorder{}
	startWatcher(t, yamlOnly(dir), rec)
	require.NoError(t, os.Rename(path, filepath.Join(dir, "new.yaml")))

	assert.Eventually(t, func() bool { return rec.wasRemoved("old.yaml") }, 2*time.Second, 20*time.Millisecond)
	assert.Eventually(t, func() bool { return rec.changedCount("new.yaml") >= 1 }, 2*time.Second, 20*time.Millisecond)
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.yaml", []string{".yaml"}, true},
		{"/a/b.YML", []string{"yml"}, true},
		{"/a/b.md", []string{".yaml"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchExtension(tt.path, tt.extensions), "matchExtension(%q, %v)", tt.path, tt.extensions)
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.yaml", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inDir(tt.dir, tt.path), "inDir(%q, %q)", tt.dir, tt.path)
	}
}

func TestWatcher_SyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "answers: []")
	writeFile(t, filepath.Join(dir, "ignore.xyz"), "x")

	rec := &recorder{}
	w := startWatcher(t, yamlOnly(dir), rec)
	w.SyncExistingFiles()

	assert.Equal(t, 1, rec.changedCount("a.yaml"))
	assert.Zero(t, rec.changedCount("ignore.xyz"))
}

func TestWatcher_SyncExistingFiles_nonRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0755))
	writeFile(t, filepath.Join(dir, "top.yaml"), "answers: []")
	writeFile(t, filepath.Join(sub, "nested.yaml"), "answers: []")

	off := false
	cfg := yamlOnly(dir)
	cfg.Recursive = &off
	rec := &recorder{}
	w := startWatcher(t, cfg, rec)
	w.SyncExistingFiles()

	assert.Equal(t, 1, rec.changedCount("top.yaml"))
	assert.Zero(t, rec.changedCount("nested.yaml"))
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "watch", "me")
	startWatcher(t, yamlOnly(root), &recorder{})

	_, err := os.Stat(root)
	assert.NoError(t, err, "root directory should exist after Start")
}

func TestWatcher_NewDirectoryImportsItsFiles(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, yamlOnly(dir), rec)

	nested := filepath.Join(dir, "level1", "level2")
	require.NoError(t, os.MkdirAll(nested, 0755))
	writeFile(t, filepath.Join(nested, "deep.yaml"), "answers: []")
	writeFile(t, filepath.Join(nested, "skip.xyz"), "x")

	assert.Eventually(t, func() bool { return rec.changedCount("deep.yaml") >= 1 }, 2*time.Second, 20*time.Millisecond)
	assert.Zero(t, rec.changedCount("skip.xyz"))
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := New(yamlOnly(t.TempDir()), nil, nil)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
	assert.NoError(t, w.AddDirectory(t.TempDir(), false), "AddDirectory after Stop is a no-op")
}
