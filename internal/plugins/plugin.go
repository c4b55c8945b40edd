// Package plugins defines the capability-plugin model: each plugin is an
// ordered descriptor the bootstrap applies uniformly during startup.
package plugins

import (
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/streamio/streamio/internal/commands"
	"github.com/streamio/streamio/internal/config"
	"github.com/streamio/streamio/internal/events"
)

// Plugin is the capability descriptor interface every plugin implements.
type Plugin interface {
	ID() string
	Name() string
	Migrate(db *gorm.DB) error
	Init(deps Deps) error
}

// RouteRegistrar is an optional interface for plugins that expose HTTP routes
type RouteRegistrar interface {
	RegisterRoutes(router *gin.Engine)
}

// Shutdowner is an optional interface for plugins with teardown work
type Shutdowner interface {
	Shutdown() error
}

// Deps carries the host facilities handed to each plugin at Init time.
type Deps struct {
	DB       *gorm.DB
	EventBus events.EventBus
	Config   *config.Config
	Commands *commands.Registry
	Logger   hclog.Logger
}
