package httpclient

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apperrors "github.com/streamio/streamio/internal/errors"
	"github.com/streamio/streamio/internal/plugins"
)

const (
	PluginID   = "capability.http"
	PluginName = "HTTP Client"
)

// Plugin exposes the outbound fetch capability as a plugin.
type Plugin struct {
	client      *Client
	initialized bool
}

// New creates the HTTP client plugin descriptor.
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

// Migrate is a no-op; the fetch capability is stateless
func (p *Plugin) Migrate(db *gorm.DB) error {
	return nil
}

// Init builds the outbound client from configuration
func (p *Plugin) Init(deps plugins.Deps) error {
	p.client = NewClient(deps.Logger.Named("http"), deps.Config.HTTPClient)
	p.initialized = true
	return nil
}

// Client returns the underlying fetch client for in-process callers.
func (p *Plugin) Client() *Client {
	return p.client
}

// RegisterRoutes mounts the fetch endpoint on the host router.
func (p *Plugin) RegisterRoutes(router *gin.Engine) {
	if !p.initialized {
		return
	}

	router.POST("/api/v1/http/fetch", p.fetch)
}

func (p *Plugin) fetch(c *gin.Context) {
	var req FetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.NewValidationError("invalid fetch request", "body").ToGinResponse(c)
		return
	}

	if req.URL == "" {
		apperrors.NewValidationError("url is required", "url").ToGinResponse(c)
		return
	}

	resp, err := p.client.Fetch(c.Request.Context(), req)
	if err != nil {
		apperrors.NewInternalError("fetch failed", err).ToGinResponse(c)
		return
	}

	c.JSON(http.StatusOK, resp)
}
