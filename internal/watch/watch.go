// Package watch re-runs a handler for every .alm map written into a
// directory.
package watch

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultSettle is how long a map must stay unmodified before it is handled.
// The editor writes a map in several passes.
const DefaultSettle = 500 * time.Millisecond

// Handler is called with the path of a map that finished changing.
type Handler func(path string)

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle overrides DefaultSettle.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		w.settle = d
	}
}

// WithLogger routes watcher output to l.
func WithLogger(l logrus.FieldLogger) Option {
	return func(w *Watcher) {
		w.log = l
	}
}

// Watcher watches a single directory.
type Watcher struct {
	dir     string
	handle  Handler
	settle  time.Duration
	log     logrus.FieldLogger
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
}

// New creates a watcher for dir. Nothing happens until Start.
func New(dir string, h Handler, opts ...Option) *Watcher {
	w := &Watcher{
		dir:     dir,
		handle:  h,
		settle:  DefaultSettle,
		log:     logrus.StandardLogger(),
		pending: make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. Events are processed on a background goroutine
// until Stop.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	go w.loop()

	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return err
	}
	w.log.WithField("dir", w.dir).Info("watching for maps")
	return nil
}

// Stop ends watching and drops maps still settling.
func (w *Watcher) Stop() {
	w.mu.Lock()
	w.stopped = true
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	if w.watcher != nil {
		w.watcher.Close()
	}
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) && IsMapFile(event.Name) {
				w.schedule(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Error("watch")
		}
	}
}

// schedule (re)starts the settle timer for path
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		stopped := w.stopped
		w.mu.Unlock()
		if !stopped {
			w.handle(path)
		}
	})
}

// IsMapFile reports whether name has the .alm extension, in any case.
func IsMapFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".alm")
}
