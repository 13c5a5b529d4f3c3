package config

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/dshills/folio/internal/config/notify"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before reloading.
const DefaultDebounce = 100 * time.Millisecond

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the debounce duration for rapid changes.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the logger for reload failures.
func WithWatchLogger(logger *zap.Logger) WatchOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher reloads a configuration file when it or its .env file changes.
// Each successful reload notifies one ChangeSet per changed section
// ("editor", "codec", "media", "logging", "server", "script") followed by
// a ChangeReload carrying the old and new *Config.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *zap.Logger
	notifier *notify.Notifier

	mu      sync.RWMutex
	current *Config
}

// NewWatcher creates a watcher for path starting from initial.
func NewWatcher(path string, initial *Config, opts ...WatchOption) *Watcher {
	w := &Watcher{
		path:     path,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		notifier: notify.New(),
		current:  initial,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Notifier returns the notifier reloads are published on.
func (w *Watcher) Notifier() *notify.Notifier {
	return w.notifier
}

// Run watches until ctx is done. The directory holding the file is
// watched so that editors replacing the file by rename are noticed.
func (w *Watcher) Run(ctx context.Context) error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	envFile := filepath.Join(filepath.Dir(abs), ".env")

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	defer fsw.Close()
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(ev.Name)
			if name != abs && name != envFile {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watch error", zap.String("path", w.path), zap.Error(err))
		case <-fire:
			fire = nil
			_ = w.Reload()
		}
	}
}

// Reload loads the file now. On failure the current configuration is
// kept and the error is returned.
func (w *Watcher) Reload() error {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload failed", zap.String("path", w.path), zap.Error(err))
		return err
	}

	w.mu.Lock()
	old := w.current
	w.current = cfg
	w.mu.Unlock()

	if old != nil {
		oldSections, newSections := sections(old), sections(cfg)
		for i, s := range newSections {
			if !reflect.DeepEqual(oldSections[i].value, s.value) {
				w.notifier.NotifySet(s.name, oldSections[i].value, s.value, w.path)
			}
		}
	}
	w.notifier.NotifyReload(old, cfg, w.path)
	w.logger.Info("config reloaded", zap.String("path", w.path))
	return nil
}

// Close releases the notifier.
func (w *Watcher) Close() {
	w.notifier.Close()
}

type section struct {
	name  string
	value any
}

func sections(c *Config) []section {
	return []section{
		{"editor", c.Editor},
		{"codec", c.Codec},
		{"media", c.Media},
		{"logging", c.Logging},
		{"server", c.Server},
		{"script", c.Script},
	}
}

// Watch loads path and calls fn with every configuration successfully
// reloaded from it until ctx is done.
func Watch(ctx context.Context, path string, fn func(*Config), opts ...WatchOption) error {
	initial, err := Load(path)
	if err != nil {
		return err
	}
	w := NewWatcher(path, initial, opts...)
	defer w.Close()
	w.Notifier().Subscribe(func(c notify.Change) {
		if c.Type != notify.ChangeReload {
			return
		}
		if cfg, ok := c.NewValue.(*Config); ok {
			fn(cfg)
		}
	})
	return w.Run(ctx)
}
