// Package watch reloads case study files when they change on disk.
package watch

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the bursts of events editors emit on save.
const DefaultDebounce = 200 * time.Millisecond

// Reloader re-reads one study file. It reports whether the content changed.
type Reloader interface {
	Reload(path string) (bool, error)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a changed file is reloaded.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithFilter limits reloads to files for which keep returns true.
func WithFilter(keep func(name string) bool) Option {
	return func(w *Watcher) { w.keep = keep }
}

// WithOnReload is called after every reload attempt, successful or not.
func WithOnReload(fn func(path string, changed bool, err error)) Option {
	return func(w *Watcher) { w.onReload = fn }
}

// Watcher watches a directory and hands changed files to a Reloader.
type Watcher struct {
	dir      string
	target   Reloader
	debounce time.Duration
	logger   *log.Logger
	keep     func(string) bool
	onReload func(string, bool, error)

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher for dir. Nothing is watched until Run.
func New(dir string, target Reloader, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		target:   target,
		debounce: DefaultDebounce,
		keep:     func(string) bool { return true },
		onReload: func(string, bool, error) {},
		pending:  make(map[string]*time.Timer),
	}
	for _, o := range opts {
		o(w)
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}
	return w
}

// Run watches until ctx is done. It returns an error only if the directory
// cannot be watched.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watching studies", "dir", w.dir)

	defer w.stopPending()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !w.keep(filepath.Base(ev.Name)) {
				continue
			}
			w.schedule(ev.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.reload(path)
	})
}

func (w *Watcher) reload(path string) {
	changed, err := w.target.Reload(path)
	switch {
	case err != nil:
		w.logger.Warn("reload failed", "path", path, "error", err)
	case changed:
		w.logger.Debug("reloaded", "path", path)
	}
	w.onReload(path, changed, err)
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}
