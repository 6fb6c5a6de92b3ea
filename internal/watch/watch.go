// Package watch re-reads the context file whenever it changes.
//
// Some hypervisors hot-plug an updated context image when the instance
// template is edited. The watcher observes the directory holding the
// context file, debounces bursts of events (a remount produces several),
// reparses, and reports what changed.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stensonb/cloud-agent/internal/logging"
	"github.com/stensonb/cloud-agent/internal/render"
	"github.com/stensonb/cloud-agent/internal/sysconfig"
)

// DefaultDebounce is used when no debounce interval is configured.
const DefaultDebounce = 500 * time.Millisecond

// Loader parses the context into a fresh SystemConfig.
// *opennebula.Provider satisfies it.
type Loader interface {
	Load(sc *sysconfig.SystemConfig) (bool, error)
	Path() string
}

// Event reports the outcome of one (re)load.
type Event struct {
	Config *sysconfig.SystemConfig
	Found  bool
	Err    error

	// Diff is a unified diff of the YAML rendering against the previous
	// successful load. It is empty on the first load.
	Diff string
}

// Handler receives load events. It runs on the watcher goroutine.
type Handler func(ctx context.Context, ev Event)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last event before reloading.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		w.log = l
	}
}

// Watcher reloads the context file on change.
type Watcher struct {
	loader   Loader
	handler  Handler
	debounce time.Duration
	log      *logging.Logger

	prev *sysconfig.SystemConfig
}

// New creates a watcher. Nothing happens until Run is called.
func New(loader Loader, handler Handler, opts ...Option) *Watcher {
	w := &Watcher{
		loader:   loader,
		handler:  handler,
		debounce: DefaultDebounce,
		log:      logging.WithComponent("watch"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run loads the context once, then reloads after every change until ctx
// is cancelled. The handler sees the initial load and every load whose
// outcome differs from the previous one.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	path := filepath.Clean(w.loader.Path())
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.log.Info("watching context", "path", path, "debounce", w.debounce)

	w.reload(ctx, true)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || ev.Op == fsnotify.Chmod {
				continue
			}
			w.log.Debug("context event", "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)

		case <-timerC:
			timerC = nil
			w.reload(ctx, false)
		}
	}
}

// reload parses the context and notifies the handler if anything changed.
func (w *Watcher) reload(ctx context.Context, initial bool) {
	sc := sysconfig.New()
	found, err := w.loader.Load(sc)

	ev := Event{Config: sc, Found: found, Err: err}
	if err != nil {
		w.log.Warn("context reload failed", "error", err)
		w.handler(ctx, ev)
		return
	}
	if !found {
		sc = nil
		ev.Config = nil
	}

	if !initial {
		diff, derr := render.DiffConfigs(w.prev, sc, "previous", "current")
		if derr != nil {
			w.log.Warn("diff failed", "error", derr)
		}
		if diff == "" && derr == nil {
			w.log.Debug("context unchanged")
			return
		}
		ev.Diff = diff
		w.log.Info("context changed", "found", found)
	}

	w.prev = sc
	w.handler(ctx, ev)
}
