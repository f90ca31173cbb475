package logging

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type watcherOptions struct {
	Log             *zap.SugaredLogger
	Attempts        int
	InitialInterval time.Duration
	OnReload        func(*Config)
}

func newWatcherOptions() *watcherOptions {
	return &watcherOptions{
		Log:             zap.NewNop().Sugar(),
		Attempts:        5,
		InitialInterval: 50 * time.Millisecond,
		OnReload:        func(*Config) {},
	}
}

// WatcherOption is a function that configures the Watcher.
type WatcherOption func(*watcherOptions)

// WithWatcherLog sets the logger for the Watcher.
func WithWatcherLog(log *zap.SugaredLogger) WatcherOption {
	return func(o *watcherOptions) {
		o.Log = log
	}
}

// WithReloadAttempts sets how many times a broken configuration is re-read
// before the change is given up on.
func WithReloadAttempts(attempts int, initialInterval time.Duration) WatcherOption {
	return func(o *watcherOptions) {
		o.Attempts = max(attempts, 1)
		o.InitialInterval = initialInterval
	}
}

// WithOnReload sets a callback invoked after every successful reload.
func WithOnReload(fn func(*Config)) WatcherOption {
	return func(o *watcherOptions) {
		o.OnReload = fn
	}
}

// Watcher reapplies the configuration file whenever it changes.
type Watcher struct {
	path  string
	admin *Admin
	opts  *watcherOptions
	log   *zap.SugaredLogger
}

// NewWatcher creates a new Watcher for the configuration file at the given
// path.
func NewWatcher(path string, admin *Admin, options ...WatcherOption) *Watcher {
	opts := newWatcherOptions()
	for _, o := range options {
		o(opts)
	}

	return &Watcher{
		path:  path,
		admin: admin,
		opts:  opts,
		log:   opts.Log,
	}
}

// Run watches the configuration file until the context is canceled.
//
// The parent directory is watched rather than the file itself, so that
// editors and config managers replacing the file by rename are noticed.
func (m *Watcher) Run(ctx context.Context) error {
	path, err := filepath.Abs(m.path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}
	dir, file := filepath.Split(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	m.log.Infow("watching logging configuration", zap.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("file watcher closed")
			}
			if filepath.Base(event.Name) != file {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if err := m.reload(ctx, path); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				m.log.Errorw("failed to reload logging configuration", zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("file watcher closed")
			}
			m.log.Warnw("error watching logging configuration", zap.Error(err))
		}
	}
}

// reload loads and applies the configuration, retrying with exponential
// backoff while the file is unreadable or half-written.
func (m *Watcher) reload(ctx context.Context, path string) error {
	runBackoff := backoff.ExponentialBackOff{
		InitialInterval:     m.opts.InitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         5 * time.Second,
	}
	runBackoff.Reset()

	for attempt := 1; ; attempt++ {
		cfg, err := m.apply(path)
		if err == nil {
			m.log.Infow("reloaded logging configuration", zap.Int("rules", len(cfg.Subsystems)))
			m.opts.OnReload(cfg)
			return nil
		}
		if attempt >= m.opts.Attempts {
			return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		}

		m.log.Warnw("failed to apply logging configuration, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(runBackoff.NextBackOff()):
		}
	}
}

func (m *Watcher) apply(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := m.admin.Reload(cfg.Subsystems); err != nil {
		return nil, err
	}
	if m.admin.atom != nil {
		if err := m.admin.UpdateLevel(cfg.Level); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}
