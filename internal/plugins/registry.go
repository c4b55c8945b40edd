package plugins

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/streamio/streamio/internal/events"
	"github.com/streamio/streamio/internal/logger"
)

// Registry holds plugins as an ordered list so application order is
// deterministic across runs.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	applied bool
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a plugin to the registry. Order of registration is the
// order of application.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.applied {
		return fmt.Errorf("plugin registered after startup: %s", p.ID())
	}

	for _, existing := range r.plugins {
		if existing.ID() == p.ID() {
			return fmt.Errorf("plugin already registered: %s", p.ID())
		}
	}

	r.plugins = append(r.plugins, p)
	logger.Info("Plugin registered: %s (%s)", p.Name(), p.ID())
	return nil
}

// ApplyAll migrates and initializes every plugin in registration order,
// failing fast on the first error.
func (r *Registry) ApplyAll(deps Deps) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.applied {
		return fmt.Errorf("plugins already applied")
	}

	for _, p := range r.plugins {
		if deps.DB != nil {
			if err := p.Migrate(deps.DB); err != nil {
				return fmt.Errorf("failed to migrate plugin %s: %w", p.ID(), err)
			}
		}

		if err := p.Init(deps); err != nil {
			if deps.EventBus != nil {
				deps.EventBus.PublishAsync(events.NewPluginEvent(
					events.EventPluginError, p.ID(), "Plugin Failed", err.Error()))
			}
			return fmt.Errorf("failed to initialize plugin %s: %w", p.ID(), err)
		}

		if deps.EventBus != nil {
			deps.EventBus.PublishAsync(events.NewPluginEvent(
				events.EventPluginLoaded, p.ID(), "Plugin Loaded", p.Name()))
		}

		logger.Info("Plugin loaded: %s", p.Name())
	}

	r.applied = true
	return nil
}

// RegisterRoutes mounts routes for every plugin implementing RouteRegistrar,
// in registration order.
func (r *Registry) RegisterRoutes(router *gin.Engine) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if registrar, ok := p.(RouteRegistrar); ok {
			registrar.RegisterRoutes(router)
		}
	}
}

// Shutdown tears plugins down in reverse registration order.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for i := len(r.plugins) - 1; i >= 0; i-- {
		if closer, ok := r.plugins[i].(Shutdowner); ok {
			if err := closer.Shutdown(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// List returns plugin IDs in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.plugins))
	for _, p := range r.plugins {
		ids = append(ids, p.ID())
	}
	return ids
}

// Get returns a plugin by ID.
func (r *Registry) Get(id string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}
