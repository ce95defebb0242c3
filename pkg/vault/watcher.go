package vault

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher accumulates filesystem activity in the vault directory so a
// caller can periodically drain it and decide what to sync.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *zap.Logger

	mu      sync.Mutex
	dirty   map[string]struct{}
	removed map[string]struct{}

	done chan struct{}
}

func NewWatcher(dir string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		logger:  logger,
		dirty:   make(map[string]struct{}),
		removed: make(map[string]struct{}),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if !strings.HasSuffix(name, ".md") {
				continue
			}
			w.mu.Lock()
			switch {
			case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
				delete(w.dirty, name)
				w.removed[name] = struct{}{}
			case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
				delete(w.removed, name)
				w.dirty[name] = struct{}{}
			}
			w.mu.Unlock()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("vault watch error", zap.Error(err))
		case <-w.done:
			return
		}
	}
}

// Drain returns and clears the accumulated dirty and removed artifact
// filenames.
func (w *Watcher) Drain() (dirty, removed []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for name := range w.dirty {
		dirty = append(dirty, name)
	}
	for name := range w.removed {
		removed = append(removed, name)
	}
	w.dirty = make(map[string]struct{})
	w.removed = make(map[string]struct{})
	return dirty, removed
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
