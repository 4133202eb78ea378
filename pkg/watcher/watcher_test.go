package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForCalls(t *testing.T, calls *atomic.Int64, want int64) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		if calls.Load() >= want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d onChange calls, got %d", want, calls.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWatcherTriggersOnChange(t *testing.T) {
	root := t.TempDir()

	var calls atomic.Int64
	w, err := New(root, func(context.Context) { calls.Add(1) }, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "SKILL.md"), []byte("x"), 0o644))
	waitForCalls(t, &calls, 1)
}

func TestWatcherDebouncesBursts(t *testing.T) {
	root := t.TempDir()

	var calls atomic.Int64
	w, err := New(root, func(context.Context) { calls.Add(1) }, WithDebounce(200*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	// A burst of writes well inside one debounce window.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "SKILL.md"), []byte{byte('a' + i)}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	waitForCalls(t, &calls, 1)
	// Give a full extra window to catch spurious second invocations.
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int64(1), calls.Load())
}

func TestWatcherSeesNewDirectories(t *testing.T) {
	root := t.TempDir()

	var calls atomic.Int64
	w, err := New(root, func(context.Context) { calls.Add(1) }, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	newDir := filepath.Join(root, "skills", "fresh-skill")
	require.NoError(t, os.MkdirAll(newDir, 0o755))
	waitForCalls(t, &calls, 1)

	// Writes inside the directory created after Start are still seen.
	before := calls.Load()
	require.NoError(t, os.WriteFile(filepath.Join(newDir, "SKILL.md"), []byte("x"), 0o644))
	waitForCalls(t, &calls, before+1)
}

func TestWatcherIgnoresPatterns(t *testing.T) {
	root := t.TempDir()

	var calls atomic.Int64
	w, err := New(root, func(context.Context) { calls.Add(1) }, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, ".SKILL.md.swp"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "SKILL.md~"), []byte("x"), 0o644))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int64(0), calls.Load())
}

func TestStopIsIdempotent(t *testing.T) {
	w, err := New(t.TempDir(), func(context.Context) {})
	require.NoError(t, err)

	// Stop before Start is a no-op.
	w.Stop()

	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()

	// Restart after Stop works.
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
}

func TestStartTwiceFails(t *testing.T) {
	w, err := New(t.TempDir(), func(context.Context) {})
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	assert.Error(t, w.Start(context.Background()))
}

func TestBadIgnorePattern(t *testing.T) {
	_, err := New(t.TempDir(), func(context.Context) {}, WithIgnorePatterns("[unclosed"))
	assert.Error(t, err)
}

func TestBadDebounce(t *testing.T) {
	_, err := New(t.TempDir(), func(context.Context) {}, WithDebounce(0))
	assert.Error(t, err)
}
