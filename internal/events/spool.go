package events

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const signalExt = ".signal"

// Drop writes one signal file for name into dir. The file is written under a
// temporary name and renamed, so a watcher never sees partial content.
func Drop(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create spool dir: %w", err)
	}
	id := uuid.NewString()
	tmp := filepath.Join(dir, id+".tmp")
	if err := os.WriteFile(tmp, []byte(name), 0644); err != nil {
		return "", fmt.Errorf("write signal: %w", err)
	}
	path := filepath.Join(dir, id+signalExt)
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("publish signal: %w", err)
	}
	return path, nil
}

// Watcher turns signal files appearing in a spool directory into Bus
// publications, one per file. Each file is removed once consumed.
type Watcher struct {
	dir     string
	bus     *Bus
	logger  *zap.Logger
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch starts watching dir until ctx is cancelled or Close is called.
// Signal files already present are stale and are discarded.
func Watch(ctx context.Context, dir string, bus *Bus, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		dir:     dir,
		bus:     bus,
		logger:  logger,
		watcher: fw,
		done:    make(chan struct{}),
	}
	w.discardStale()
	go w.loop(ctx)
	return w, nil
}

func (w *Watcher) discardStale() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("failed to list spool dir", zap.String("dir", w.dir), zap.Error(err))
		return
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != signalExt {
			continue
		}
		if err := os.Remove(filepath.Join(w.dir, e.Name())); err == nil {
			n++
		}
	}
	if n > 0 {
		w.logger.Warn("discarded stale signals", zap.String("dir", w.dir), zap.Int("count", n))
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) && filepath.Ext(ev.Name) == signalExt {
				w.consume(ev.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("spool watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) consume(path string) {
	b, err := os.ReadFile(path)
	if err != nil {
		// Another watcher on the same directory got there first.
		if !errors.Is(err, os.ErrNotExist) {
			w.logger.Warn("failed to read signal", zap.String("path", path), zap.Error(err))
		}
		return
	}
	if err := os.Remove(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.logger.Warn("failed to remove signal", zap.String("path", path), zap.Error(err))
		}
		return
	}
	name := strings.TrimSpace(string(b))
	if name == "" {
		name = LogCall
	}
	n := w.bus.Publish(name)
	w.logger.Debug("signal received", zap.String("event", name), zap.Int("handlers", n))
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
