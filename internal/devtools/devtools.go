// Package devtools implements the debug-only inspector surface. It is
// attached exactly once during startup when debug mode is enabled and is
// absent entirely otherwise.
package devtools

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/streamio/streamio/internal/commands"
	"github.com/streamio/streamio/internal/config"
	"github.com/streamio/streamio/internal/events"
	"github.com/streamio/streamio/internal/logger"
)

// Inspector is the devtools panel: runtime and system stats, the recent
// event buffer, a live event stream, and the command inventory.
type Inspector struct {
	eventBus events.EventBus
	registry *commands.Registry
	cfg      config.DevtoolsConfig

	mu       sync.Mutex
	attached bool
	watcher  *configWatcher
}

// NewInspector creates a detached inspector.
func NewInspector(eventBus events.EventBus, registry *commands.Registry, cfg config.DevtoolsConfig) *Inspector {
	return &Inspector{
		eventBus: eventBus,
		registry: registry,
		cfg:      cfg,
	}
}

// Attach mounts the inspector on the router. Attaching twice is an error so
// a misbehaving bootstrap cannot double-register the panel.
func (i *Inspector) Attach(router *gin.Engine, configPath string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.attached {
		return fmt.Errorf("devtools already attached")
	}
	if router == nil {
		return fmt.Errorf("no router to attach devtools to")
	}

	api := router.Group("/api/v1/devtools")
	{
		api.GET("/stats", i.systemStats)
		api.GET("/runtime", i.runtimeStats)
		api.GET("/events", i.recentEvents)
		api.GET("/events/stream", i.streamEvents)
		api.GET("/commands", i.commandInventory)
	}

	if i.cfg.WatchConfig && configPath != "" {
		watcher, err := newConfigWatcher(configPath, i.eventBus)
		if err != nil {
			logger.Warn("Devtools config watcher unavailable: %v", err)
		} else {
			i.watcher = watcher
		}
	}

	i.attached = true

	if i.eventBus != nil {
		i.eventBus.PublishAsync(events.NewSystemEvent(
			events.EventDevtoolsAttached, "Devtools Attached", "inspector panel is available"))
	}

	logger.Info("Devtools inspector attached")
	return nil
}

// Attached reports whether the inspector has been mounted.
func (i *Inspector) Attached() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.attached
}

// Close stops the config watcher, if running.
func (i *Inspector) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.watcher != nil {
		return i.watcher.Close()
	}
	return nil
}

func (i *Inspector) systemStats(c *gin.Context) {
	stats := gin.H{}

	if cpuPercents, err := cpu.Percent(0, false); err == nil && len(cpuPercents) > 0 {
		stats["cpu_percent"] = cpuPercents[0]
	}

	if vmem, err := mem.VirtualMemory(); err == nil {
		stats["memory"] = gin.H{
			"total":        vmem.Total,
			"used":         vmem.Used,
			"used_percent": vmem.UsedPercent,
		}
	}

	if info, err := host.Info(); err == nil {
		stats["host"] = gin.H{
			"hostname": info.Hostname,
			"os":       info.OS,
			"platform": info.Platform,
			"uptime":   info.Uptime,
		}
	}

	c.JSON(http.StatusOK, stats)
}

func (i *Inspector) runtimeStats(c *gin.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	c.JSON(http.StatusOK, gin.H{
		"goroutines":     runtime.NumGoroutine(),
		"go_version":     runtime.Version(),
		"num_cpu":        runtime.NumCPU(),
		"heap_alloc":     memStats.HeapAlloc,
		"heap_sys":       memStats.HeapSys,
		"gc_cycles":      memStats.NumGC,
		"last_gc_pause":  memStats.PauseNs[(memStats.NumGC+255)%256],
		"total_alloc":    memStats.TotalAlloc,
		"stack_in_use":   memStats.StackInuse,
		"next_gc_target": memStats.NextGC,
	})
}

func (i *Inspector) recentEvents(c *gin.Context) {
	if i.eventBus == nil {
		c.JSON(http.StatusOK, gin.H{"events": []events.Event{}})
		return
	}

	recent := i.eventBus.GetRecentEvents(events.EventFilter{})
	c.JSON(http.StatusOK, gin.H{"events": recent, "stats": i.eventBus.GetStats()})
}

func (i *Inspector) commandInventory(c *gin.Context) {
	if i.registry == nil {
		c.JSON(http.StatusOK, gin.H{"commands": []commands.Command{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"commands": i.registry.List()})
}
