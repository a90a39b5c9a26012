// Package watch re-runs analysis when workspace files change on disk.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// DefaultDebounce batches rapid editor save bursts into one rerun.
const DefaultDebounce = 250 * time.Millisecond

// Watcher observes a workspace root and reports changed Kite files. Events
// are debounced; each callback receives the batch of paths that changed
// since the previous one.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	debounce   time.Duration
	exclude    []glob.Glob
	onChange   func([]string)
	onError    func(error)
	callbackMu sync.Mutex

	pending   map[string]bool
	pendingMu sync.Mutex
	timer     *time.Timer
}

// Options configures a Watcher.
type Options struct {
	// Debounce is the settle delay before a batch fires; 0 uses DefaultDebounce.
	Debounce time.Duration
	// Exclude holds glob patterns matched against path base names.
	Exclude []string
	// OnError, when set, receives watcher errors instead of dropping them.
	OnError func(error)
}

// New builds a watcher that calls onChange with batches of changed paths.
func New(onChange func([]string), opts Options) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}
	compiled := make([]glob.Glob, 0, len(opts.Exclude))
	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, g)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		exclude:   compiled,
		onChange:  onChange,
		onError:   opts.OnError,
		pending:   make(map[string]bool),
	}, nil
}

// Watch registers root and its subdirectories, then starts the event loop.
func (w *Watcher) Watch(root string) error {
	if err := w.watchRecursive(root); err != nil {
		return err
	}
	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if w.excludedDir(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.excludedDir(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							w.reportError(err)
						} else {
							w.enqueueExistingFiles(event.Name)
						}
					}
					continue
				}
			}
			if !w.relevantFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.scheduleChange(event.Name)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.pending[filepath.ToSlash(path)] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()

	if len(paths) > 0 {
		w.callbackMu.Lock()
		defer w.callbackMu.Unlock()
		w.onChange(paths)
	}
}

// relevantFile keeps Kite sources and the project manifest.
func (w *Watcher) relevantFile(path string) bool {
	base := filepath.Base(path)
	if base != "kite.toml" && !strings.EqualFold(filepath.Ext(base), ".kite") {
		return false
	}
	for _, g := range w.exclude {
		if g.Match(base) {
			return false
		}
	}
	return true
}

func (w *Watcher) excludedDir(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") && base != "." && base != ".." {
		return true
	}
	for _, g := range w.exclude {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if w.relevantFile(path) {
			w.scheduleChange(path)
		}
		return nil
	})
}

func (w *Watcher) reportError(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}

// Close stops the watcher. Pending batches are dropped.
func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}
