package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize config watcher")

// Store holds the current configuration and swaps it atomically on reload.
//
// Readers call Current on every use, so a reload is picked up by the next
// call without restarting the process.
type Store struct {
	path    string
	current atomic.Pointer[Config]
	logger  *zap.Logger

	// load is LoadWithFile; replaced in tests.
	load func(string) (*Config, error)
}

// NewStore creates a store seeded with cfg. path is the file Reload and
// Watch read; it may be empty to use DefaultPath.
func NewStore(path string, cfg *Config, logger *zap.Logger) *Store {
	if cfg == nil {
		cfg = Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		path:   path,
		logger: logger,
		load:   LoadWithFile,
	}
	s.current.Store(cfg)
	return s
}

// Current returns the active configuration. The result must not be mutated.
func (s *Store) Current() *Config {
	return s.current.Load()
}

// Path returns the file the store reloads from.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the file. On failure the previous configuration stays
// active and the error is returned.
func (s *Store) Reload() error {
	cfg, err := s.load(s.path)
	if err != nil {
		return err
	}
	s.current.Store(cfg)
	return nil
}

// Watcher reloads a Store whenever its file is written or replaced.
type Watcher struct {
	store   *Store
	watcher *fsnotify.Watcher
	stop    chan struct{}
	once    sync.Once
	done    chan struct{}
}

// Watch starts watching the store's file. The parent directory is watched
// rather than the file so that editors which write-and-rename are handled.
// Call Stop to release the watcher. With no path the default config directory
// is created if missing.
func (s *Store) Watch(ctx context.Context) (*Watcher, error) {
	if s.path == "" {
		if err := EnsureConfigDir(); err != nil {
			return nil, err
		}
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		s.path = p
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	dir := filepath.Dir(s.path)
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &Watcher{
		store:   s,
		watcher: fw,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run(ctx)
	return w, nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stop)
		_ = w.watcher.Close()
	})
	<-w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	target := filepath.Clean(w.store.path)
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := w.store.Reload(); err != nil {
				w.store.logger.Warn("config reload failed, keeping previous config",
					zap.String("path", target), zap.Error(err))
				continue
			}
			w.store.logger.Info("config reloaded", zap.String("path", target))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.store.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}
