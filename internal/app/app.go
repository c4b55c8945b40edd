// Package app wires the host together: it builds the server, applies the
// capability plugins in a fixed order, registers the command surface, and
// attaches devtools in debug mode before handing control to the run loop.
package app

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/streamio/streamio/internal/commands"
	"github.com/streamio/streamio/internal/config"
	"github.com/streamio/streamio/internal/database"
	"github.com/streamio/streamio/internal/devtools"
	apperrors "github.com/streamio/streamio/internal/errors"
	"github.com/streamio/streamio/internal/events"
	"github.com/streamio/streamio/internal/logger"
	"github.com/streamio/streamio/internal/plugins"
	"github.com/streamio/streamio/internal/plugins/httpclient"
	"github.com/streamio/streamio/internal/plugins/playback"
	"github.com/streamio/streamio/internal/plugins/store"
	"github.com/streamio/streamio/internal/server"
)

// App is the application bootstrap.
type App struct {
	cfg        *config.Config
	configPath string

	host      *server.Host
	eventBus  events.EventBus
	commands  *commands.Registry
	plugins   *plugins.Registry
	inspector *devtools.Inspector
	logger    hclog.Logger

	// First plugin registration failure, surfaced by Startup. New has no
	// error return, so the construction-time failure is deferred here.
	registerErr error
}

// New constructs the host and the ordered plugin list. Plugin order is fixed:
// playback, then http, then store.
func New(cfg *config.Config, configPath string) *App {
	a := &App{
		cfg:        cfg,
		configPath: configPath,
		host:       server.NewHost(cfg.Server),
		eventBus:   events.NewEventBus(events.DefaultEventBusConfig()),
		commands:   commands.NewRegistry(),
		plugins:    plugins.NewRegistry(),
		logger: hclog.New(&hclog.LoggerOptions{
			Name:  "streamio",
			Level: hclog.Info,
		}),
	}

	a.registerPlugin(playback.New())
	a.registerPlugin(httpclient.New())
	a.registerPlugin(store.New())

	return a
}

func (a *App) registerPlugin(p plugins.Plugin) {
	if err := a.plugins.Register(p); err != nil && a.registerErr == nil {
		a.registerErr = err
	}
}

// PluginOrder returns the registered plugin IDs in application order.
func (a *App) PluginOrder() []string {
	return a.plugins.List()
}

// Commands returns the command registry.
func (a *App) Commands() *commands.Registry {
	return a.commands
}

// Inspector returns the devtools inspector, nil until startup in debug mode.
func (a *App) Inspector() *devtools.Inspector {
	return a.inspector
}

// Host returns the HTTP host.
func (a *App) Host() *server.Host {
	return a.host
}

// Run performs the linear startup sequence and then blocks in the host's run
// loop. Every failure before the run loop is returned as a StartupError for
// the top-level handler to report and exit on.
func (a *App) Run(ctx context.Context) error {
	if err := a.Startup(ctx); err != nil {
		return err
	}
	defer a.shutdown()

	a.eventBus.PublishAsync(events.NewSystemEvent(
		events.EventSystemStarted, "Streamio Started", "host is serving"))

	return a.host.Run(ctx)
}

// Startup runs the bootstrap sequence without entering the run loop. Split
// out so tests can exercise startup semantics against a dead host.
func (a *App) Startup(ctx context.Context) error {
	if a.registerErr != nil {
		return apperrors.NewStartupError("plugin registration", a.registerErr)
	}

	if err := a.eventBus.Start(ctx); err != nil {
		return apperrors.NewStartupError("event bus startup", err)
	}
	events.SetGlobalEventBus(a.eventBus)

	db, err := database.Initialize(&a.cfg.Database)
	if err != nil {
		return apperrors.NewStartupError("database initialization", err)
	}

	deps := plugins.Deps{
		DB:       db,
		EventBus: a.eventBus,
		Config:   a.cfg,
		Commands: a.commands,
		Logger:   a.logger,
	}

	if err := a.plugins.ApplyAll(deps); err != nil {
		return apperrors.NewStartupError("plugin registration", err)
	}

	if err := a.commands.Register("greet", "Greets the caller by name.", greetCommand); err != nil {
		return apperrors.NewStartupError("command registration", err)
	}

	if a.cfg.Debug {
		a.inspector = devtools.NewInspector(a.eventBus, a.commands, a.cfg.Devtools)
		if err := a.inspector.Attach(a.host.Router(), a.configPath); err != nil {
			return apperrors.NewStartupError("devtools attach", err)
		}
	}

	a.commands.RegisterRoutes(a.host.Router())
	a.plugins.RegisterRoutes(a.host.Router())

	logger.Info("Bootstrap complete: %d plugins, debug=%v", len(a.plugins.List()), a.cfg.Debug)
	return nil
}

func (a *App) shutdown() {
	a.eventBus.PublishAsync(events.NewSystemEvent(
		events.EventSystemStopped, "Streamio Stopping", "host is shutting down"))

	if err := a.plugins.Shutdown(); err != nil {
		logger.Warn("Plugin shutdown reported error: %v", err)
	}

	if a.inspector != nil {
		if err := a.inspector.Close(); err != nil {
			logger.Warn("Devtools close reported error: %v", err)
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.eventBus.Stop(stopCtx); err != nil {
		logger.Warn("Event bus stop reported error: %v", err)
	}
}
