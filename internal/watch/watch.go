// Package watch notices writes to a SQLite database made by other processes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses bursts of writes into one notification.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches the directory holding a database for changes to the
// database file or its WAL.
type Watcher struct {
	fw       *fsnotify.Watcher
	names    map[string]bool
	debounce time.Duration
	log      *zap.Logger
}

// New starts watching dbPath. The watch is active when New returns.
func New(dbPath string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dbPath, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	// SQLite replaces and recreates the -wal and -shm files, so watch the
	// directory rather than the files.
	dir := filepath.Dir(abs)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	base := filepath.Base(abs)
	return &Watcher{
		fw:       fw,
		names:    map[string]bool{base: true, base + "-wal": true},
		debounce: debounce,
		log:      log.With(zap.String("db", abs)),
	}, nil
}

// Run calls fn once per settled burst of writes until ctx is done. It
// closes the watcher before returning.
func (w *Watcher) Run(ctx context.Context, fn func()) error {
	defer w.fw.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !w.names[filepath.Base(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.log.Debug("database changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-fire:
			fn()
		}
	}
}

// Watch calls fn, debounced, whenever the database at dbPath or its WAL is
// written. It blocks until ctx is done.
func Watch(ctx context.Context, dbPath string, debounce time.Duration, fn func()) error {
	w, err := New(dbPath, debounce, nil)
	if err != nil {
		return err
	}
	return w.Run(ctx, fn)
}
