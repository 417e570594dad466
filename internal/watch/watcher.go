// Package watch monitors a scan root and reports changes to type definition
// files and archives.
//
// Events within the debounce window are coalesced so the callback fires once
// with the full set of changed paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"github.com/funvibe/reflector/internal/config"
)

// defaultDebounce is the quiet period before the callback fires.
const defaultDebounce = 300 * time.Millisecond

// defaultExcludes are never watched.
var defaultExcludes = []string{
	"**/.git",
	".git",
	"**/*.swp",
	"**/*~",
}

// Config holds the parameters for a Watcher.
type Config struct {
	// Root is the directory to watch recursively.
	Root string

	// Exclude are glob patterns ('/' separated, relative to Root) for paths
	// that never trigger callbacks. Excluded directories are not descended.
	Exclude []string

	// Debounce is the quiet period after the last event before the callback
	// fires. Zero or negative values fall back to defaultDebounce.
	Debounce time.Duration

	// Logger receives watcher diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// OnChange is called with the sorted, deduplicated changed paths
	// (relative to Root, slash separated). Calls never overlap.
	OnChange func(ctx context.Context, changed []string) error
}

// Watcher monitors Root and fires a debounced callback. Run must be called
// exactly once.
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	exclude  []glob.Glob
	debounce time.Duration
	root     string
	logger   *slog.Logger
	started  atomic.Bool
}

// New creates a Watcher and registers every non-excluded directory under
// Root.
func New(cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, errors.New("watch: root is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", root)
	}

	var exclude []glob.Glob
	for _, p := range append(slices.Clone(defaultExcludes), cfg.Exclude...) {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("watch: invalid exclude pattern %q: %w", p, err)
		}
		exclude = append(exclude, g)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		exclude:  exclude,
		debounce: debounce,
		root:     root,
		logger:   logger,
	}
	if err := w.addDirectories(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string { return w.root }

// Run blocks until ctx is cancelled, dispatching debounced callbacks. It
// returns nil on cancellation and an error if the watcher breaks. A callback
// in progress when Run stops is waited for before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu       sync.Mutex
		pending  = make(map[string]struct{})
		timer    *time.Timer
		running  atomic.Bool
		stopped  bool
		inflight sync.WaitGroup
	)

	fire := func() {
		mu.Lock()
		if stopped {
			mu.Unlock()
			return
		}
		inflight.Add(1)
		mu.Unlock()
		defer inflight.Done()

		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			// retry once the current callback is done
			mu.Lock()
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		w.logger.Debug("changes detected", "count", len(changed))
		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("change handler failed", "error", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		stopped = true
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		inflight.Wait()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("closing watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			rel, ok := w.relative(evt.Name)
			if !ok || w.excluded(rel) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			if !relevant(evt, rel) {
				continue
			}

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("events dropped", "error", err)
				continue
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

// relevant reports whether an event can change a scan result: any change to
// a type file or archive, and removal or rename of anything else (it may be a
// directory holding definitions).
func relevant(evt fsnotify.Event, rel string) bool {
	if config.HasTypeFileExt(rel) || config.HasArchiveExt(rel) {
		return true
	}
	return evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename)
}

func (w *Watcher) addDirectories(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch: walk %s: %w", root, err)
			}
			w.logger.Warn("skipping inaccessible path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.relative(path); ok && rel != "." && w.excluded(rel) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %s: %w", path, err)
		}
		return nil
	})
}

// maybeAddDir extends the watch to a directory created after startup,
// including its subdirectories.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addDirectories(path); err != nil {
		w.logger.Warn("watching new directory", "path", path, "error", err)
	}
}

func (w *Watcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) excluded(rel string) bool {
	for _, g := range w.exclude {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
