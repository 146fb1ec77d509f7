package events

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()
	var a, b int
	unsubA := bus.Subscribe(LogCall, func() { a++ })
	bus.Subscribe(LogCall, func() { b++ })
	bus.Subscribe("other", func() { t.Fatal("wrong event delivered") })

	assert.Equal(t, 2, bus.Publish(LogCall))
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)

	unsubA()
	unsubA()
	assert.Equal(t, 1, bus.Publish(LogCall))
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	assert.Zero(t, NewBus().Publish(LogCall))
}

func TestDropWritesSignalFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spool")

	path, err := Drop(dir, LogCall)
	require.NoError(t, err)

	assert.Equal(t, ".signal", filepath.Ext(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, LogCall, string(b))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp file left behind")
}

func TestWatcherPublishesOnePerSignal(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	bus := NewBus()
	var got atomic.Int32
	bus.Subscribe(LogCall, func() { got.Add(1) })

	w, err := Watch(context.Background(), dir, bus, zaptest.NewLogger(t))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := Drop(dir, LogCall)
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool { return got.Load() == 3 }, 5*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		entries, _ := os.ReadDir(dir)
		return len(entries) == 0
	}, 5*time.Second, 10*time.Millisecond, "signals are consumed")

	require.NoError(t, w.Close())
}

func TestWatcherDiscardsStaleSignals(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	_, err := Drop(dir, LogCall)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0644))

	bus := NewBus()
	var got atomic.Int32
	bus.Subscribe(LogCall, func() { got.Add(1) })

	w, err := Watch(context.Background(), dir, bus, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer w.Close()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "notes.txt", entries[0].Name())
	assert.Zero(t, got.Load())
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	w, err := Watch(ctx, t.TempDir(), NewBus(), zaptest.NewLogger(t))
	require.NoError(t, err)

	cancel()
	select {
	case <-w.done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher goroutine did not exit")
	}
	require.NoError(t, w.Close())
}
