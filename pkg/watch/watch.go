// Package watch reloads definitions when files under the load path change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/vanity/internal/logging"
	"github.com/aretw0/vanity/pkg/loader"
	"github.com/fsnotify/fsnotify"
)

// Reloader is what a change triggers. *registry.Registry satisfies it.
type Reloader interface {
	ReloadAndLoad(ctx context.Context) error
}

// Config holds watcher configuration options.
type Config struct {
	LoadPath    string
	DebounceDur time.Duration
	Logger      *slog.Logger
}

// DefaultConfig returns the defaults for watching loadPath.
func DefaultConfig(loadPath string) Config {
	return Config{
		LoadPath:    loadPath,
		DebounceDur: 500 * time.Millisecond,
	}
}

// Watcher monitors the experiment and metric directories.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	loadPath  string
	debounce  time.Duration
	logger    *slog.Logger
	onChange  chan struct{}
	done      chan struct{}
}

// New creates a watcher. Nothing is watched until Start.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		fsWatcher: fsw,
		loadPath:  cfg.LoadPath,
		debounce:  cfg.DebounceDur,
		logger:    logger,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start watches the load path and its metrics directory, if present.
// The returned channel receives one signal per burst of changes.
func (w *Watcher) Start() (<-chan struct{}, error) {
	if err := w.fsWatcher.Add(w.loadPath); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", w.loadPath, err)
	}
	metrics := filepath.Join(w.loadPath, loader.MetricsDir)
	if info, err := os.Stat(metrics); err == nil && info.IsDir() {
		if err := w.fsWatcher.Add(metrics); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", metrics, err)
		}
	}

	go w.loop()
	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !isRelevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case w.onChange <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "path", w.loadPath, "err", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func isRelevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return loader.IsDefinitionFile(event.Name)
}

// Run reloads r on every change signal until ctx is done.
// A failed reload is logged and leaves the registry empty until the files are fixed.
func Run(ctx context.Context, changes <-chan struct{}, r Reloader, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			logger.Info("definitions changed, reloading")
			if err := r.ReloadAndLoad(ctx); err != nil {
				logger.Error("reload failed", "err", err)
			}
		}
	}
}
