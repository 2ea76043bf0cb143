package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	domainconfig "conceptmap/domain/config"
)

// EditorConfigLoader reads the editor rules from a YAML file on top of the
// defaults for an environment, and can watch the file for changes
type EditorConfigLoader struct {
	path        string
	environment string
	logger      *zap.Logger

	mu       sync.RWMutex
	current  *domainconfig.DomainConfig
	onChange []func(*domainconfig.DomainConfig)
}

// NewEditorConfigLoader creates a loader and performs the initial load.
// An empty path yields the environment defaults and nothing to watch.
func NewEditorConfigLoader(path, environment string, logger *zap.Logger) (*EditorConfigLoader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &EditorConfigLoader{path: path, environment: environment, logger: logger}

	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Config returns the current configuration
func (l *EditorConfigLoader) Config() *domainconfig.DomainConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the file reloads
func (l *EditorConfigLoader) OnChange(fn func(*domainconfig.DomainConfig)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch hot-reloads the file on change until stop is called. A file that
// fails to parse or validate is logged and the previous rules stay active.
func (l *EditorConfigLoader) Watch() (stop func(), err error) {
	if l.path == "" {
		return func() {}, nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("editor config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("editor config watcher add %s: %w", l.path, err)
	}

	done := make(chan struct{})
	var once sync.Once
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						l.logger.Warn("Keeping previous editor config", zap.String("path", l.path), zap.Error(err))
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.logger.Warn("Editor config watcher error", zap.Error(err))
			case <-done:
				return
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the file
func (l *EditorConfigLoader) Reload() (*domainconfig.DomainConfig, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*domainconfig.DomainConfig), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()

	l.logger.Info("Editor config loaded",
		zap.String("path", l.path),
		zap.Float64("link_threshold", cfg.LinkThreshold),
	)
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *EditorConfigLoader) load() (*domainconfig.DomainConfig, error) {
	cfg := domainconfig.LoadDomainConfig(l.environment)
	if l.path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read editor config %s: %w", l.path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse editor config %s: %w", l.path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid editor config %s: %w", l.path, err)
	}
	return cfg, nil
}
