// Package watch re-runs a function when watched files change or on a
// fixed interval, whichever comes first.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/agentstation/armory/pkg/constants"
	"github.com/agentstation/armory/pkg/errors"
	"github.com/agentstation/armory/pkg/logging"
)

// Func is the work run on every trigger.
type Func func(ctx context.Context) error

// Watcher triggers a Func on file changes and on an interval.
type Watcher struct {
	fn       Func
	paths    []string
	filter   func(name string) bool
	debounce time.Duration
	interval time.Duration
	initial  bool
	logger   *zerolog.Logger

	runs    atomic.Int64
	failed  atomic.Int64
	running atomic.Bool

	mu         sync.Mutex
	mutedUntil time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithPaths watches directories and files. A file is watched through its
// parent directory so replace-by-rename saves are seen.
func WithPaths(paths ...string) Option {
	return func(w *Watcher) { w.paths = append(w.paths, paths...) }
}

// WithFilter limits file events to base names for which keep returns true.
func WithFilter(keep func(name string) bool) Option {
	return func(w *Watcher) { w.filter = keep }
}

// WithDebounce sets how long events must settle before a run.
// Events caused by a run itself are dropped for the same duration.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithInterval runs the function at a fixed interval. Zero disables it.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) { w.interval = d }
}

// WithInitialRun controls whether Run calls the function once on start.
// Default true.
func WithInitialRun(enabled bool) Option {
	return func(w *Watcher) { w.initial = enabled }
}

// WithLogger sets the logger; the context logger is used otherwise.
func WithLogger(logger *zerolog.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// New creates a watcher for fn.
func New(fn Func, opts ...Option) *Watcher {
	w := &Watcher{
		fn:       fn,
		debounce: constants.WatchDebounce,
		initial:  true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Runs returns how many times the function has been called.
func (w *Watcher) Runs() int64 { return w.runs.Load() }

// Failures returns how many calls returned an error.
func (w *Watcher) Failures() int64 { return w.failed.Load() }

// Run blocks until ctx is canceled. Errors from the function are logged
// and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return errors.NewValidationError("watcher", nil, "watcher is already running")
	}
	defer w.running.Store(false)

	logger := w.logger
	if logger == nil {
		logger = logging.Ctx(ctx)
	}

	var events <-chan fsnotify.Event
	var errs <-chan error
	var targets map[string]map[string]bool
	if len(w.paths) > 0 {
		fw, err := fsnotify.NewWatcher()
		if err != nil {
			return errors.WrapIO("watch", "", err)
		}
		defer func() { _ = fw.Close() }()

		targets, err = w.addPaths(fw)
		if err != nil {
			return err
		}
		events, errs = fw.Events, fw.Errors
		logger.Info().Strs("paths", w.paths).Dur("debounce", w.debounce).Msg("Watching for changes")
	}

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
		logger.Info().Dur("interval", w.interval).Msg("Running on interval")
	}

	if w.initial {
		w.run(ctx, logger, "start")
	}

	var settle *time.Timer
	var settled <-chan time.Time
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("Watcher stopped")
			return nil

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !w.relevant(targets, ev) || w.muted() {
				continue
			}
			logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("Change detected")
			if settle == nil {
				settle = time.NewTimer(w.debounce)
			} else {
				settle.Stop()
				settle.Reset(w.debounce)
			}
			settled = settle.C

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn().Err(err).Msg("File watcher error")

		case <-settled:
			settled = nil
			w.run(ctx, logger, "change")

		case <-tick:
			w.run(ctx, logger, "interval")
		}
	}
}

func (w *Watcher) run(ctx context.Context, logger *zerolog.Logger, trigger string) {
	if ctx.Err() != nil {
		return
	}
	w.runs.Add(1)
	start := time.Now()
	err := w.fn(ctx)
	w.mu.Lock()
	w.mutedUntil = time.Now().Add(w.debounce)
	w.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		w.failed.Add(1)
		logger.Error().Err(err).Str("trigger", trigger).Msg("Triggered run failed")
		return
	}
	logger.Debug().Str("trigger", trigger).Dur("duration", time.Since(start)).Msg("Triggered run finished")
}

func (w *Watcher) muted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return time.Now().Before(w.mutedUntil)
}

// addPaths registers the watched directories. The result maps each
// directory to the base names of interest, nil meaning every file.
func (w *Watcher) addPaths(fw *fsnotify.Watcher) (map[string]map[string]bool, error) {
	targets := make(map[string]map[string]bool)
	for _, p := range w.paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, errors.WrapIO("watch", p, err)
		}
		dir, name := abs, ""
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			dir, name = filepath.Dir(abs), filepath.Base(abs)
		}

		names, seen := targets[dir]
		switch {
		case !seen && name == "":
			targets[dir] = nil
		case !seen:
			targets[dir] = map[string]bool{name: true}
		case names != nil && name == "":
			targets[dir] = nil
		case names != nil:
			names[name] = true
		}
		if seen {
			continue
		}
		if err := fw.Add(dir); err != nil {
			return nil, errors.WrapIO("watch", dir, err)
		}
	}
	return targets, nil
}

func (w *Watcher) relevant(targets map[string]map[string]bool, ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	dir, name := filepath.Dir(ev.Name), filepath.Base(ev.Name)
	names, ok := targets[dir]
	if !ok {
		return false
	}
	if names != nil && !names[name] {
		return false
	}
	return w.filter == nil || w.filter(name)
}
