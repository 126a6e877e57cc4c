// Package watcher reports files that land in a directory once they stop changing.
// It backs the document inbox and the speech voice directory.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// maxSettleChecks bounds how often a still-growing file is re-armed before it is reported anyway.
const maxSettleChecks = 10

// Partial downloads, editor swap files and office lock files.
var ignoredSuffixes = []string{".part", ".crdownload", ".download", ".tmp", ".swp"}

// pendingFile is a file waiting for its quiet period to elapse.
type pendingFile struct {
	timer  *time.Timer
	size   int64
	checks int
}

// Watcher watches root directories (non-recursively) and invokes callbacks on file changes.
type Watcher struct {
	roots      []string
	extensions []string
	onChange   func(path string)
	onRemove   func(path string)
	debounce   time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	pending  map[string]*pendingFile
	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the quiet period before onChange fires.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithRemoveHandler sets a callback for removed files.
func WithRemoveHandler(fn func(path string)) WatcherOption {
	return func(w *Watcher) { w.onRemove = fn }
}

// NewWatcher creates a watcher over roots. onChange is called once per burst of
// create/write events for a file whose extension is in extensions (empty = all),
// after its size has held steady for one debounce period.
func NewWatcher(roots []string, extensions []string, onChange func(path string), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		roots:      roots,
		extensions: extensions,
		onChange:   onChange,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		pending:    make(map[string]*pendingFile),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. Missing roots are created. It runs until ctx is
// cancelled or Stop is called; a second Start is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range w.roots {
		root = filepath.Clean(root)
		if err := os.MkdirAll(root, 0755); err != nil {
			_ = fsw.Close()
			return err
		}
		if err := fsw.Add(root); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	w.fsw = fsw
	w.logger.Debug("watching", zap.Strings("roots", w.roots), zap.Strings("extensions", w.extensions))
	go w.loop(ctx, fsw)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.dispatch(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Debug("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) dispatch(ev fsnotify.Event) {
	path := ev.Name
	if !w.wants(path) {
		return
	}
	w.logger.Debug("watch event", zap.String("op", ev.Op.String()), zap.String("path", path))
	if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
		w.forget(path)
		if w.onRemove != nil {
			w.onRemove(path)
		}
		return
	}
	if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return
		}
		w.arm(path, info.Size())
	}
}

// wants reports whether path passes the extension filter and is not a hidden
// or lock file. With no extension filter, partial downloads are skipped too.
func (w *Watcher) wants(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return false
	}
	if !matchExtension(path, w.extensions) {
		return false
	}
	if len(w.extensions) > 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, s := range ignoredSuffixes {
		if strings.HasSuffix(lower, s) {
			return false
		}
	}
	return true
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// arm (re)starts the quiet period for path.
func (w *Watcher) arm(path string, size int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
		p.size = size
		p.timer.Reset(w.debounce)
		return
	}
	p := &pendingFile{size: size}
	p.timer = time.AfterFunc(w.debounce, func() { w.settle(path) })
	w.pending[path] = p
}

// settle fires onChange when the file size matches the last event's size,
// otherwise it waits another period.
func (w *Watcher) settle(path string) {
	info, err := os.Stat(path)
	w.mu.Lock()
	p, ok := w.pending[path]
	if !ok {
		w.mu.Unlock()
		return
	}
	if err != nil {
		delete(w.pending, path)
		w.mu.Unlock()
		return
	}
	if info.Size() != p.size && p.checks < maxSettleChecks {
		p.size = info.Size()
		p.checks++
		p.timer.Reset(w.debounce)
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	onChange := w.onChange
	w.mu.Unlock()

	w.logger.Debug("file settled", zap.String("path", path), zap.Int64("size", info.Size()))
	if onChange != nil {
		onChange(path)
	}
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

// Directories returns a copy of the watched roots.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// SyncExistingFiles calls onChange for every regular file already present in the
// roots that the watcher would report.
func (w *Watcher) SyncExistingFiles() {
	if w.onChange == nil {
		return
	}
	for _, root := range w.Directories() {
		entries, err := os.ReadDir(root)
		if err != nil {
			w.logger.Debug("inbox scan failed", zap.String("root", root), zap.Error(err))
			continue
		}
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			if path := filepath.Join(root, e.Name()); w.wants(path) {
				w.onChange(path)
			}
		}
	}
}

// Stop stops the watcher and drops pending callbacks. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.fsw == nil {
		w.mu.Unlock()
		return
	}
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	_ = w.fsw.Close()
	w.fsw = nil
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
