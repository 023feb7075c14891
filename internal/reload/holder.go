// Package reload shares a configuration store between goroutines and rebuilds it when
// the config file changes on disk.
package reload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/Azhovan/confschema"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce collapses bursts of file events (editors often write several times).
const DefaultDebounce = 500 * time.Millisecond

// ErrWatcherRunning is returned by StartWatcher when a watcher is already active.
var ErrWatcherRunning = errors.New("reload: watcher already running")

// LoadFunc builds a fresh store, typically schema plus config files.
type LoadFunc func(ctx context.Context) (*confschema.Store, error)

// Change describes one property whose value differs after a reload.
type Change struct {
	Key string
	Old confschema.Value
	New confschema.Value
}

// Event is delivered to listeners after every successful reload.
type Event struct {
	Changes []Change
}

// Option configures a Holder.
type Option func(*Holder)

// WithLogger sets the logger. Default: disabled.
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Holder) {
		h.logger = logger
	}
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(h *Holder) {
		h.debounce = d
	}
}

// Holder guards a store with a RWMutex and swaps it atomically on reload.
type Holder struct {
	mu      sync.RWMutex
	current *confschema.Store
	load    LoadFunc

	configPath string
	debounce   time.Duration
	logger     zerolog.Logger

	watchMu sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}

	listenMu  sync.RWMutex
	listeners []chan<- Event
}

// NewHolder wraps an initial store. load is used by Reload; configPath is the file
// StartWatcher observes and may be empty.
func NewHolder(initial *confschema.Store, load LoadFunc, configPath string, opts ...Option) *Holder {
	h := &Holder{
		current:    initial,
		load:       load,
		configPath: configPath,
		debounce:   DefaultDebounce,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Read runs fn with the current store under a read lock. fn must not keep the store.
func (h *Holder) Read(fn func(*confschema.Store)) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn(h.current)
}

// Update runs fn with the current store under the write lock.
func (h *Holder) Update(fn func(*confschema.Store) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn(h.current)
}

// Value returns a property's current value.
func (h *Holder) Value(section, property string) (confschema.Value, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current.Value(section, property)
}

// Reload builds a new store and swaps it in. On failure the current store is kept.
func (h *Holder) Reload(ctx context.Context) error {
	h.logger.Info().Str("event", "config.reload_start").Msg("reloading configuration")

	next, err := h.load(ctx)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("event", "config.reload_failed").
			Msg("failed to load new configuration")
		return fmt.Errorf("load config: %w", err)
	}

	h.mu.Lock()
	prev := h.current
	h.current = next
	h.mu.Unlock()

	changes := diff(prev, next)
	for _, c := range changes {
		h.logger.Info().
			Str("event", "config.changed").
			Str("key", c.Key).
			Str("old", c.Old.String()).
			Str("new", c.New.String()).
			Msg("property changed")
	}
	h.notifyListeners(Event{Changes: changes})

	h.logger.Info().
		Str("event", "config.reload_success").
		Int("changes", len(changes)).
		Msg("configuration reloaded successfully")
	return nil
}

// diff lists properties whose values differ. Keys present in only one store are skipped.
func diff(prev, next *confschema.Store) []Change {
	if prev == nil || next == nil {
		return nil
	}
	var changes []Change
	for _, key := range next.Keys() {
		np, _ := next.Lookup(key)
		op, ok := prev.Lookup(key)
		if !ok || op.Value().Equal(np.Value()) {
			continue
		}
		changes = append(changes, Change{Key: key, Old: op.Value(), New: np.Value()})
	}
	return changes
}

// StartWatcher watches the config file and reloads after changes settle.
// The file's directory is watched so atomic replace-by-rename is seen too.
// No-op when the holder has no config path.
func (h *Holder) StartWatcher(ctx context.Context) error {
	if h.configPath == "" {
		h.logger.Info().
			Str("event", "config.watcher_disabled").
			Msg("config file watcher disabled (no config file)")
		return nil
	}

	h.watchMu.Lock()
	defer h.watchMu.Unlock()
	if h.watcher != nil {
		return ErrWatcherRunning
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(h.configPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config file: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	h.watcher = watcher
	h.cancel = cancel
	h.done = make(chan struct{})

	h.logger.Info().
		Str("event", "config.watcher_started").
		Str("path", h.configPath).
		Msg("watching config file for changes")

	go h.watchLoop(ctx, watcher, h.done)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, done chan<- struct{}) {
	defer close(done)
	defer watcher.Close() //nolint:errcheck

	target := filepath.Clean(h.configPath)
	debounce := time.NewTimer(h.debounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str("event", "config.watcher_stopped").Msg("config watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				h.logger.Debug().
					Str("event", "config.file_changed").
					Str("op", event.Op.String()).
					Msg("config file changed")
				debounce.Reset(h.debounce)
			}

		case <-debounce.C:
			if err := h.Reload(ctx); err != nil {
				h.logger.Error().
					Err(err).
					Str("event", "config.auto_reload_failed").
					Msg("automatic config reload failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str("event", "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// Stop stops the watcher and waits for its goroutine to exit. Safe to call repeatedly.
func (h *Holder) Stop() {
	h.watchMu.Lock()
	defer h.watchMu.Unlock()
	if h.watcher == nil {
		return
	}
	h.cancel()
	<-h.done
	h.watcher = nil
	h.cancel = nil
	h.done = nil
}

// RegisterListener registers a channel to receive reload events. Sends never block:
// a full channel misses the event. The caller owns the channel.
func (h *Holder) RegisterListener(ch chan<- Event) {
	h.listenMu.Lock()
	defer h.listenMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notifyListeners(ev Event) {
	h.listenMu.RLock()
	defer h.listenMu.RUnlock()

	for _, ch := range h.listeners {
		select {
		case ch <- ev:
		default:
			h.logger.Warn().
				Str("event", "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}
