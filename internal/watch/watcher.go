// Package watch reloads mapper sources when they change on disk, so a long
// validate session keeps reporting against the current documents.
package watch

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce batches editor save bursts into one reload.
const DefaultDebounce = 200 * time.Millisecond

// Watcher monitors a set of mapper source files and invokes a reload
// callback with the batch of changed paths.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce *debouncer
	files    map[string]bool
	onChange func([]string) error
	logger   *zap.Logger
	stop     chan struct{}
	wg       sync.WaitGroup
}

// New builds a Watcher over the given files. The callback runs on the
// watcher's goroutine after changes settle.
func New(files []string, onChange func([]string) error, logger *zap.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		fs:       fs,
		files:    make(map[string]bool, len(files)),
		onChange: onChange,
		logger:   logger,
		stop:     make(chan struct{}),
	}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		w.files[abs] = true
	}
	w.debounce = newDebouncer(DefaultDebounce, func(changed []string) {
		if err := w.onChange(changed); err != nil {
			w.logger.Warn("reload failed", zap.Error(err))
		}
	})
	return w, nil
}

// Start registers the watched directories and begins dispatching events.
// Directories rather than files are watched so editors that replace files
// on save keep getting picked up.
func (w *Watcher) Start() error {
	dirs := make(map[string]bool)
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.logger.Debug("watching", zap.String("dir", dir))
	}
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop halts event dispatch and releases the underlying watcher.
func (w *Watcher) Stop() error {
	select {
	case <-w.stop:
		return nil
	default:
		close(w.stop)
	}
	w.wg.Wait()
	w.debounce.stop()
	return w.fs.Close()
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.relevant(abs) {
				continue
			}
			w.logger.Debug("source changed", zap.String("file", abs))
			w.debounce.add(abs)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) relevant(abs string) bool {
	if w.files[abs] {
		return true
	}
	// new files in a watched directory count when they look like sources
	return strings.EqualFold(filepath.Ext(abs), ".xml")
}

// debouncer batches changed paths until they stop arriving for the
// configured interval.
type debouncer struct {
	interval time.Duration
	callback func([]string)

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]bool
	stopped bool
}

func newDebouncer(interval time.Duration, callback func([]string)) *debouncer {
	return &debouncer{
		interval: interval,
		callback: callback,
		pending:  make(map[string]bool),
	}
}

func (d *debouncer) add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending[path] = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

func (d *debouncer) flush() {
	d.mu.Lock()
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(d.pending))
	for p := range d.pending {
		changed = append(changed, p)
	}
	d.pending = make(map[string]bool)
	d.mu.Unlock()

	sort.Strings(changed)
	d.callback(changed)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
