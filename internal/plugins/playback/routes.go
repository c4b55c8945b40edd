package playback

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/streamio/streamio/internal/errors"
)

// RegisterRoutes mounts the playback API on the host router.
func (p *Plugin) RegisterRoutes(router *gin.Engine) {
	if !p.initialized {
		return
	}

	api := router.Group("/api/v1/playback")
	{
		api.GET("/sessions", p.listSessions)
		api.POST("/sessions", p.startSession)
		api.GET("/sessions/:id", p.getSession)
		api.POST("/sessions/:id/pause", p.pauseSession)
		api.POST("/sessions/:id/resume", p.resumeSession)
		api.POST("/sessions/:id/stop", p.stopSession)
		api.POST("/sessions/:id/progress", p.updateProgress)
		api.GET("/sessions/:id/artwork", p.sessionArtwork)
	}
}

type startSessionRequest struct {
	MediaPath string `json:"media_path" binding:"required"`
}

type progressRequest struct {
	Position float64 `json:"position_seconds"`
}

func (p *Plugin) listSessions(c *gin.Context) {
	// The frontend polls progress at the configured cadence.
	c.JSON(http.StatusOK, gin.H{
		"sessions":                  p.sessions.List(),
		"progress_interval_seconds": p.progressInterval.Seconds(),
	})
}

func (p *Plugin) startSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.NewValidationError("media_path is required", "media_path").ToGinResponse(c)
		return
	}

	session, err := p.sessions.Start(req.MediaPath)
	if err != nil {
		if errors.Is(err, ErrPathNotAllowed) {
			apperrors.NewValidationError(err.Error(), "media_path").ToGinResponse(c)
			return
		}
		apperrors.NewInternalError("failed to start playback session", err).ToGinResponse(c)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (p *Plugin) getSession(c *gin.Context) {
	session, err := p.sessions.Get(c.Param("id"))
	if err != nil {
		apperrors.NewNotFoundError("playback session", c.Param("id")).ToGinResponse(c)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (p *Plugin) pauseSession(c *gin.Context) {
	p.applyTransition(c, p.sessions.Pause)
}

func (p *Plugin) resumeSession(c *gin.Context) {
	p.applyTransition(c, p.sessions.Resume)
}

func (p *Plugin) stopSession(c *gin.Context) {
	p.applyTransition(c, p.sessions.Stop)
}

func (p *Plugin) applyTransition(c *gin.Context, fn func(string) (*Session, error)) {
	session, err := fn(c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			apperrors.NewNotFoundError("playback session", c.Param("id")).ToGinResponse(c)
			return
		}
		if errors.Is(err, ErrInvalidTransition) {
			apperrors.NewValidationError(err.Error(), "state").ToGinResponse(c)
			return
		}
		apperrors.NewInternalError("playback transition failed", err).ToGinResponse(c)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (p *Plugin) updateProgress(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.NewValidationError("invalid progress payload", "position_seconds").ToGinResponse(c)
		return
	}

	session, err := p.sessions.UpdateProgress(c.Param("id"), req.Position)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			apperrors.NewNotFoundError("playback session", c.Param("id")).ToGinResponse(c)
			return
		}
		apperrors.NewValidationError(err.Error(), "position_seconds").ToGinResponse(c)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (p *Plugin) sessionArtwork(c *gin.Context) {
	art, err := p.sessions.ArtworkFor(c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			apperrors.NewNotFoundError("playback session", c.Param("id")).ToGinResponse(c)
			return
		}
		apperrors.NewNotFoundError("artwork", c.Param("id")).ToGinResponse(c)
		return
	}

	if c.Query("format") == "webp" {
		data, err := p.artwork.ToWebP(art)
		if err != nil {
			apperrors.NewInternalError("artwork conversion failed", err).ToGinResponse(c)
			return
		}
		c.Data(http.StatusOK, "image/webp", data)
		return
	}

	c.Data(http.StatusOK, art.MIMEType, art.Data)
}
