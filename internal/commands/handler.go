package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/streamio/streamio/internal/errors"
	"github.com/streamio/streamio/internal/events"
	"github.com/streamio/streamio/internal/logger"
)

// RegisterRoutes mounts the command dispatch endpoint on the host router.
func (r *Registry) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/commands")
	{
		api.GET("/", r.listCommands)
		api.POST("/:name", r.invokeCommand)
	}
}

// listCommands returns the command inventory
func (r *Registry) listCommands(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"commands": r.List()})
}

// invokeCommand dispatches a frontend command invocation
func (r *Registry) invokeCommand(c *gin.Context) {
	name := c.Param("name")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apperrors.NewValidationError("failed to read request body", "body").ToGinResponse(c)
		return
	}

	// Arguments are always a JSON object; an array or scalar body is a
	// client error, not a handler fault.
	body = bytes.TrimSpace(body)
	args := json.RawMessage(body)
	if len(body) == 0 {
		args = json.RawMessage("{}")
	} else if !json.Valid(body) || body[0] != '{' {
		apperrors.NewValidationError("request body must be a JSON object", "body").ToGinResponse(c)
		return
	}

	result, err := r.Invoke(c.Request.Context(), name, args)
	if err != nil {
		var unknown *UnknownCommandError
		if errors.As(err, &unknown) {
			apperrors.NewNotFoundError("command", name).ToGinResponse(c)
			return
		}

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			appErr.ToGinResponse(c)
			return
		}

		apperrors.NewInternalError("command invocation failed", err).ToGinResponse(c)
		return
	}

	if bus := events.GetGlobalEventBus(); bus != nil {
		event := events.Event{
			Type:    events.EventCommandInvoked,
			Source:  "command:" + name,
			Title:   "Command Invoked",
			Message: name,
		}
		if err := bus.PublishAsync(event); err != nil {
			logger.Debug("Failed to publish command event: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}
