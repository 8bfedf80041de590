package fsnotify

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// fsnotify Watcher Adapter: detect pattern file changes, trigger rebuild
// Expectation: writes, creates and deletes of pattern files fire the callback
// within 100ms; scratch files and other extensions stay silent.
// =============================================================================

// waitForCallback waits up to timeout for the callback channel to receive a value.
func waitForCallback(ch <-chan string, timeout time.Duration) (string, bool) {
	select {
	case v := <-ch:
		return v, true
	case <-time.After(timeout):
		return "", false
	}
}

// startWatcher watches dir and forwards every callback to the returned channel.
func startWatcher(t *testing.T, dir string, exts ...string) (*Watcher, <-chan string) {
	t.Helper()
	w, err := NewWatcher(exts...)
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	changed := make(chan string, 10)
	require.NoError(t, w.Watch(dir, func(path string) {
		changed <- path
	}))

	// Give watcher time to start
	time.Sleep(50 * time.Millisecond)
	return w, changed
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "errors.yaml")
	require.NoError(t, os.WriteFile(testFile, []byte("name: errors\n"), 0644))

	_, changed := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(testFile, []byte("name: errors\nkind: standard\n"), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for file change")
	assert.Equal(t, testFile, path)
}

func TestWatcher_DetectsNewFile(t *testing.T) {
	dir := t.TempDir()
	_, changed := startWatcher(t, dir)

	newFile := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(newFile, []byte("alpha\nbeta\n"), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for new file")
	assert.Equal(t, newFile, path)
}

func TestWatcher_DetectsDeletedFile(t *testing.T) {
	// Deleting a pattern file must fire so the set can be dropped.
	dir := t.TempDir()
	testFile := filepath.Join(dir, "gone.tsv")
	require.NoError(t, os.WriteFile(testFile, []byte("a\t1\n"), 0644))

	_, changed := startWatcher(t, dir)

	require.NoError(t, os.Remove(testFile))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for deleted file")
	assert.Equal(t, testFile, path)
}

func TestWatcher_DetectsFileInNewSubdir(t *testing.T) {
	dir := t.TempDir()
	_, changed := startWatcher(t, dir)

	sub := filepath.Join(dir, "team")
	require.NoError(t, os.Mkdir(sub, 0755))
	time.Sleep(50 * time.Millisecond)

	newFile := filepath.Join(sub, "names.yml")
	require.NoError(t, os.WriteFile(newFile, []byte("name: names\n"), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for file in new subdirectory")
	assert.Equal(t, newFile, path)
}

func TestWatcher_IgnoresNonPatternFiles(t *testing.T) {
	dir := t.TempDir()
	hidden := filepath.Join(dir, ".git")
	require.NoError(t, os.MkdirAll(hidden, 0755))

	_, changed := startWatcher(t, dir)

	os.WriteFile(filepath.Join(hidden, "HEAD.txt"), []byte("ref"), 0644)
	os.WriteFile(filepath.Join(dir, ".errors.yaml.swp"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "errors.yaml~"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "acsearch.db"), []byte("x"), 0644)

	_, ok := waitForCallback(changed, 500*time.Millisecond)
	assert.False(t, ok, "should not have received callback for ignored files")

	// Extensions match case-insensitively
	patternFile := filepath.Join(dir, "LIST.TXT")
	require.NoError(t, os.WriteFile(patternFile, []byte("a\n"), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for pattern file")
	assert.Equal(t, patternFile, path)
}

func TestWatcher_CustomExtensions(t *testing.T) {
	dir := t.TempDir()
	_, changed := startWatcher(t, dir, ".lst")

	os.WriteFile(filepath.Join(dir, "skip.yaml"), []byte("x"), 0644)
	_, ok := waitForCallback(changed, 300*time.Millisecond)
	assert.False(t, ok, "yaml is not watched when custom extensions are given")

	want := filepath.Join(dir, "keep.lst")
	require.NoError(t, os.WriteFile(want, []byte("x"), 0644))
	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok)
	assert.Equal(t, want, path)
}

func TestWatcher_MissingDir(t *testing.T) {
	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Stop()

	err = w.Watch(filepath.Join(t.TempDir(), "does-not-exist"), func(string) {})
	assert.Error(t, err)
}

func TestWatcher_Latency(t *testing.T) {
	// Time from file change to onChange callback < 100ms.
	dir := t.TempDir()
	testFile := filepath.Join(dir, "latency.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("initial\n"), 0644))

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Stop()

	var callbackTime time.Time
	var mu sync.Mutex
	err = w.Watch(dir, func(path string) {
		mu.Lock()
		callbackTime = time.Now()
		mu.Unlock()
	})
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	writeTime := time.Now()
	require.NoError(t, os.WriteFile(testFile, []byte("changed\n"), 0644))

	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	latency := callbackTime.Sub(writeTime)
	mu.Unlock()

	assert.Less(t, latency, 100*time.Millisecond, "callback latency %v exceeds 100ms", latency)
	t.Logf("Callback latency: %v", latency)
}

func TestWatcher_StopCleanup(t *testing.T) {
	// After Stop(), no more callbacks fire.
	dir := t.TempDir()

	w, err := NewWatcher()
	require.NoError(t, err)

	callCount := 0
	var mu sync.Mutex
	err = w.Watch(dir, func(path string) {
		mu.Lock()
		callCount++
		mu.Unlock()
	})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, w.Stop())

	mu.Lock()
	countAfterStop := callCount
	mu.Unlock()

	os.WriteFile(filepath.Join(dir, "after_stop.yaml"), []byte("x"), 0644)
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	countAfterWrite := callCount
	mu.Unlock()

	assert.Equal(t, countAfterStop, countAfterWrite, "callbacks fired after Stop()")

	// Double-stop should be safe
	assert.NoError(t, w.Stop())
}

func TestIsPatternFile(t *testing.T) {
	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Stop()

	for path, want := range map[string]bool{
		"/p/errors.yaml":      true,
		"/p/errors.YML":       true,
		"/p/list.txt":         true,
		"/p/table.tsv":        true,
		"/p/.hidden.yaml":     false,
		"/p/errors.yaml.swp":  false,
		"/p/errors.yaml~":     false,
		"/p/errors.yaml.tmp":  false,
		"/p/readme.md":        false,
		"/p/no-extension":     false,
	} {
		assert.Equal(t, want, w.isPatternFile(path), path)
	}
}
