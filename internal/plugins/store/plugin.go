package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/streamio/streamio/internal/plugins"
)

const (
	PluginID   = "capability.store"
	PluginName = "Key-Value Store"
)

// Plugin exposes the key-value store as a capability plugin.
type Plugin struct {
	store       *Store
	initialized bool
}

// New creates the store plugin descriptor.
func New() *Plugin {
	return &Plugin{}
}

// ID returns the plugin ID
func (p *Plugin) ID() string {
	return PluginID
}

// Name returns the plugin name
func (p *Plugin) Name() string {
	return PluginName
}

// Migrate creates the store schema
func (p *Plugin) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Entry{})
}

// Init wires the store to the shared database and event bus
func (p *Plugin) Init(deps plugins.Deps) error {
	if deps.DB == nil {
		return fmt.Errorf("store plugin requires a database")
	}

	p.store = NewStore(deps.DB, deps.EventBus, deps.Logger.Named("store"), deps.Config.Store.MaxValueSize)
	p.initialized = true
	return nil
}

// Store returns the underlying store for in-process callers.
func (p *Plugin) Store() *Store {
	return p.store
}
