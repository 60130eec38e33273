// Package watch turns filesystem notifications into debounced, classified
// change events.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zulandar/planboard/internal/classify"
	"github.com/zulandar/planboard/internal/logging"
)

// DefaultDebounce is the stability window: a path is reported once no
// further event has arrived for it within this long.
const DefaultDebounce = 500 * time.Millisecond

// Change is a settled change to a classified artifact.
type Change struct {
	Path    string
	Kind    classify.Kind
	Removed bool
}

// Opts holds parameters for creating a Watcher.
type Opts struct {
	Classifier classify.Classifier
	Debounce   time.Duration // defaults to DefaultDebounce
	Logger     *slog.Logger  // defaults to logging.Logger()
}

// Watcher watches the project root and the artifact directories.
type Watcher struct {
	classifier classify.Classifier
	debounce   time.Duration
	log        *slog.Logger

	fs      *fsnotify.Watcher
	changes chan Change
	errs    chan error
	done    <-chan struct{}
}

// New creates a Watcher. Nothing is watched until Run.
func New(opts Opts) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create: %w", err)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	log := opts.Logger
	if log == nil {
		log = logging.Logger()
	}
	return &Watcher{
		classifier: opts.Classifier,
		debounce:   debounce,
		log:        log.With("component", "watch"),
		fs:         fw,
		changes:    make(chan Change, 64),
		errs:       make(chan error, 16),
	}, nil
}

// Errors reports watcher failures such as unreadable directories. Errors
// are dropped when nobody drains the channel. It is closed when Run ends.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Run registers the watches and starts the event loop. Settled changes are
// sent on the returned channel, which is closed when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) <-chan Change {
	w.done = ctx.Done()
	w.addRoots()
	go w.loop(ctx)
	return w.changes
}

// addRoots watches the root, the backlog's directory and every directory
// below the artifact dirs. Missing dirs are skipped; the parent watch picks
// them up when they appear.
func (w *Watcher) addRoots() {
	seen := map[string]bool{}
	add := func(dir string) {
		if dir == "" || seen[dir] {
			return
		}
		seen[dir] = true
		if err := w.fs.Add(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			w.report(fmt.Errorf("watch: add %s: %w", dir, err))
		}
	}
	add(w.classifier.Dir("."))
	add(filepath.Dir(w.classifier.BacklogPath()))
	for _, dir := range w.classifier.WatchDirs() {
		add(filepath.Dir(dir))
		w.addTree(dir, add)
	}
}

// addTree adds dir and all of its subdirectories.
func (w *Watcher) addTree(dir string, add func(string)) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			w.report(fmt.Errorf("watch: walk %s: %w", path, err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			add(path)
		}
		return nil
	})
	if err != nil {
		w.report(fmt.Errorf("watch: walk %s: %w", dir, err))
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.changes)
	defer close(w.errs)
	defer w.fs.Close()

	timers := map[string]*time.Timer{}
	settled := make(chan string, 64)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev, timers, settled)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.report(fmt.Errorf("watch: %w", err))
		case path := <-settled:
			delete(timers, path)
			ch, ok := w.settle(path)
			if !ok {
				continue
			}
			select {
			case w.changes <- ch:
			case <-ctx.Done():
				return
			}
		}
	}
}

// handle records an event, restarting the stability timer for its path.
func (w *Watcher) handle(ev fsnotify.Event, timers map[string]*time.Timer, settled chan<- string) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if w.inWatchDir(ev.Name) {
				w.addTree(ev.Name, func(dir string) {
					if err := w.fs.Add(dir); err != nil {
						w.report(fmt.Errorf("watch: add %s: %w", dir, err))
					}
				})
				w.scheduleTree(ev.Name, timers, settled)
			}
			return
		}
	}
	if ev.Op == fsnotify.Chmod {
		return
	}
	if _, ok := w.classifier.Classify(ev.Name); !ok {
		return
	}
	w.schedule(ev.Name, timers, settled)
}

func (w *Watcher) schedule(path string, timers map[string]*time.Timer, settled chan<- string) {
	if t, ok := timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	timers[path] = time.AfterFunc(w.debounce, func() {
		select {
		case settled <- path:
		case <-w.done:
		}
	})
}

// scheduleTree reports files that already exist in a newly created
// directory, since they may have been written before the watch was added.
func (w *Watcher) scheduleTree(dir string, timers map[string]*time.Timer, settled chan<- string) {
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if _, ok := w.classifier.Classify(path); ok {
			w.schedule(path, timers, settled)
		}
		return nil
	})
}

// settle builds the change for a path whose stability window elapsed.
func (w *Watcher) settle(path string) (Change, bool) {
	kind, ok := w.classifier.Classify(path)
	if !ok {
		return Change{}, false
	}
	_, err := os.Stat(path)
	removed := errors.Is(err, fs.ErrNotExist)
	w.log.Debug("change settled", "path", path, "kind", kind, "removed", removed)
	return Change{Path: path, Kind: kind, Removed: removed}, true
}

func (w *Watcher) inWatchDir(path string) bool {
	for _, dir := range w.classifier.WatchDirs() {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) report(err error) {
	w.log.Warn("watcher error", "error", err)
	select {
	case w.errs <- err:
	default:
	}
}
