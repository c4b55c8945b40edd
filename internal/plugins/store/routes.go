package store

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/streamio/streamio/internal/errors"
)

// RegisterRoutes mounts the store API on the host router.
func (p *Plugin) RegisterRoutes(router *gin.Engine) {
	if !p.initialized {
		return
	}

	api := router.Group("/api/v1/store")
	{
		api.GET("/keys", p.listKeys)
		api.GET("/entries/:key", p.getEntry)
		api.PUT("/entries/:key", p.setEntry)
		api.DELETE("/entries/:key", p.deleteEntry)
		api.POST("/clear", p.clear)
	}
}

func (p *Plugin) listKeys(c *gin.Context) {
	keys, err := p.store.Keys()
	if err != nil {
		apperrors.NewDatabaseError("list keys", err).ToGinResponse(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

func (p *Plugin) getEntry(c *gin.Context) {
	key := c.Param("key")

	value, err := p.store.Get(key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			apperrors.NewNotFoundError("store entry", key).ToGinResponse(c)
			return
		}
		apperrors.NewDatabaseError("get entry", err).ToGinResponse(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

func (p *Plugin) setEntry(c *gin.Context) {
	key := c.Param("key")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apperrors.NewValidationError("failed to read request body", "value").ToGinResponse(c)
		return
	}

	if err := p.store.Set(key, json.RawMessage(body)); err != nil {
		apperrors.NewValidationError(err.Error(), "value").ToGinResponse(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key})
}

func (p *Plugin) deleteEntry(c *gin.Context) {
	key := c.Param("key")

	if err := p.store.Delete(key); err != nil {
		apperrors.NewDatabaseError("delete entry", err).ToGinResponse(c)
		return
	}

	c.Status(http.StatusNoContent)
}

func (p *Plugin) clear(c *gin.Context) {
	if err := p.store.Clear(); err != nil {
		apperrors.NewDatabaseError("clear store", err).ToGinResponse(c)
		return
	}

	c.Status(http.StatusNoContent)
}
