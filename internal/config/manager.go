package config

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/leonardotrapani/healthtranslate/internal/logging"
)

// ChangeFunc receives the previous and the newly loaded config after a
// successful reload.
type ChangeFunc func(old, updated *Config)

type Manager struct {
	path string

	mu          sync.RWMutex
	config      *Config
	subscribers []ChangeFunc

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

func NewManager() (*Manager, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	if _, err := Load(); err != nil {
		return nil, err
	}
	return NewManagerWithPath(configPath)
}

// NewManagerWithPath manages an existing config file at path.
func NewManagerWithPath(path string) (*Manager, error) {
	logging.Sugar.Infof("Config manager: loading %s", path)

	config, err := LoadFile(path)
	if err != nil {
		logging.Sugar.Errorf("Config manager: failed to load initial configuration: %v", err)
		return nil, err
	}

	if err := config.Validate(); err != nil {
		logging.Sugar.Warnf("Config manager: validation warning: %v", err)
	}

	return &Manager{path: path, config: config}, nil
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	configCopy := *m.config
	return &configCopy
}

// OnChange registers fn to run after every successful reload.
func (m *Manager) OnChange(fn ChangeFunc) {
	m.mu.Lock()
	m.subscribers = append(m.subscribers, fn)
	m.mu.Unlock()
}

// Update validates config, saves it, and applies it without waiting for the
// watcher.
func (m *Manager) Update(config *Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	if err := Save(m.path, config); err != nil {
		return err
	}
	m.apply(config)
	return nil
}

func (m *Manager) StartWatching(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// watch the directory so editors that replace the file are still seen
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		watcher.Close()
		return err
	}
	m.watcher = watcher

	m.wg.Add(1)
	go m.watchLoop(ctx)

	logging.Sugar.Infof("Config manager: watching %s for changes", m.path)
	return nil
}

func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.wg.Wait()
}

func (m *Manager) watchLoop(ctx context.Context) {
	defer m.wg.Done()
	configFileName := filepath.Base(m.path)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFileName {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				logging.Sugar.Infof("Config manager: file change detected: %s. Reloading config...", event.Name)
				m.reload()
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			logging.Sugar.Warnf("Config manager: watcher error: %v", err)

		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) reload() {
	updated, err := LoadFile(m.path)
	if err != nil {
		logging.Sugar.Errorf("Config manager: failed to reload config: %v", err)
		return
	}
	if err := updated.Validate(); err != nil {
		logging.Sugar.Errorf("Config manager: invalid config after reload: %v", err)
		return
	}
	m.apply(updated)
	logging.Sugar.Infof("Config manager: configuration successfully reloaded")
}

func (m *Manager) apply(updated *Config) {
	m.mu.Lock()
	old := m.config
	m.config = updated
	subscribers := make([]ChangeFunc, len(m.subscribers))
	copy(subscribers, m.subscribers)
	m.mu.Unlock()

	for _, fn := range subscribers {
		oldCopy, newCopy := *old, *updated
		fn(&oldCopy, &newCopy)
	}
}
