package playback

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/streamio/streamio/internal/plugins"
)

const (
	PluginID   = "capability.playback"
	PluginName = "Playback Backend"
)

// Plugin exposes the playback backend as a capability plugin.
type Plugin struct {
	sessions         *SessionManager
	artwork          *ArtworkProcessor
	progressInterval time.Duration
	initialized      bool
}

// New creates the playback plugin descriptor.
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

// Migrate creates the playback schema
func (p *Plugin) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Session{})
}

// Init wires the session manager to the shared host facilities
func (p *Plugin) Init(deps plugins.Deps) error {
	if deps.DB == nil {
		return fmt.Errorf("playback plugin requires a database")
	}

	p.sessions = NewSessionManager(deps.Logger.Named("playback"), deps.DB, deps.EventBus,
		deps.Config.Playback.MediaDirs)
	p.artwork = NewArtworkProcessor(deps.Config.Playback.ArtworkQuality)
	p.progressInterval = deps.Config.Playback.ProgressInterval
	p.initialized = true
	return nil
}

// Shutdown stops all active sessions
func (p *Plugin) Shutdown() error {
	if p.sessions != nil {
		p.sessions.StopAll()
	}
	return nil
}

// Sessions returns the session manager for in-process callers.
func (p *Plugin) Sessions() *SessionManager {
	return p.sessions
}
