package devtools

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/streamio/streamio/internal/events"
	"github.com/streamio/streamio/internal/logger"
)

// configWatcher watches the loaded configuration file and publishes
// config.changed events so the inspector stream shows external edits.
type configWatcher struct {
	watcher    *fsnotify.Watcher
	configPath string
	eventBus   events.EventBus

	mu       sync.Mutex
	debounce *time.Timer
	closed   chan struct{}
}

const debounceDelay = 500 * time.Millisecond

func newConfigWatcher(configPath string, eventBus events.EventBus) (*configWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory rather than the file so editors that replace the
	// file on save keep being observed.
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	cw := &configWatcher{
		watcher:    watcher,
		configPath: filepath.Clean(configPath),
		eventBus:   eventBus,
		closed:     make(chan struct{}),
	}

	go cw.run()
	return cw, nil
}

func (cw *configWatcher) run() {
	for {
		select {
		case <-cw.closed:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.configPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			cw.scheduleNotify()
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Config watcher error: %v", err)
		}
	}
}

// scheduleNotify debounces rapid write bursts from editors into one event.
func (cw *configWatcher) scheduleNotify() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounce != nil {
		cw.debounce.Stop()
	}
	cw.debounce = time.AfterFunc(debounceDelay, cw.notify)
}

func (cw *configWatcher) notify() {
	if cw.eventBus == nil {
		return
	}

	event := events.NewSystemEvent(events.EventConfigChanged,
		"Configuration Changed", cw.configPath)
	if err := cw.eventBus.PublishAsync(event); err != nil {
		logger.Debug("Failed to publish config change event: %v", err)
	}
}

func (cw *configWatcher) Close() error {
	cw.mu.Lock()
	if cw.debounce != nil {
		cw.debounce.Stop()
	}
	cw.mu.Unlock()

	close(cw.closed)
	return cw.watcher.Close()
}
