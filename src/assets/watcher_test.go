package assets

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitEvent(t *testing.T, w *Watcher, path string) FileEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-w.Events():
			require.True(t, ok, "events closed while waiting for %s", path)
			if e.Path == path {
				return e
			}
		case <-timeout:
			t.Fatalf("no event for %s", path)
		}
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models"), 0755))

	w, err := NewWatcher(zap.NewNop().Sugar(), dir)
	require.NoError(t, err)
	defer func() {
		_ = w.Close()
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "models", "cube.obj"), []byte("v 0 0 0"), 0644))
	e := waitEvent(t, w, "models/cube.obj")
	assert.Equal(t, KindFile, e.Kind)
	assert.Contains(t, []Action{Create, Write}, e.Action)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "sounds"), 0755))
	e = waitEvent(t, w, "sounds")
	assert.Equal(t, KindDir, e.Kind)
	assert.Equal(t, Create, e.Action)

	// the new directory is watched by the time its event is delivered
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sounds", "beep.wav"), []byte("RIFF"), 0644))
	e = waitEvent(t, w, "sounds/beep.wav")
	assert.Equal(t, KindFile, e.Kind)

	require.NoError(t, os.Remove(filepath.Join(dir, "sounds", "beep.wav")))
	e = waitEvent(t, w, "sounds/beep.wav")
	for e.Action != Delete {
		e = waitEvent(t, w, "sounds/beep.wav")
	}
	assert.Equal(t, KindUnknown, e.Kind)
}

func TestWatcher_CloseTwice(t *testing.T) {
	w, err := NewWatcher(zap.NewNop().Sugar(), t.TempDir())
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.NotPanics(t, func() {
		assert.NoError(t, w.Close())
	})

	_, ok := <-w.Events()
	assert.False(t, ok)
}

func TestWatcher_MissingRoot(t *testing.T) {
	_, err := NewWatcher(zap.NewNop().Sugar(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
