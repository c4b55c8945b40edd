// Package server provides the HTTP host: the router the plugins and command
// surface mount onto, and the long-lived run loop.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/streamio/streamio/internal/config"
	"github.com/streamio/streamio/internal/logger"
)

// Host wraps the gin engine and the standard library server around it.
type Host struct {
	cfg    config.ServerConfig
	router *gin.Engine
	server *http.Server
}

// NewHost builds the router with the host middleware stack.
func NewHost(cfg config.ServerConfig) *Host {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	if cfg.EnableCORS {
		router.Use(corsMiddleware())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return &Host{
		cfg:    cfg,
		router: router,
	}
}

// Router returns the underlying gin engine for route registration.
func (h *Host) Router() *gin.Engine {
	return h.router
}

// Addr returns the listen address.
func (h *Host) Addr() string {
	return fmt.Sprintf("%s:%d", h.cfg.Host, h.cfg.Port)
}

// Run serves until the context is cancelled or a termination signal arrives,
// then shuts down gracefully.
func (h *Host) Run(ctx context.Context) error {
	h.server = &http.Server{
		Addr:           h.Addr(),
		Handler:        h.router,
		ReadTimeout:    h.cfg.ReadTimeout,
		WriteTimeout:   h.cfg.WriteTimeout,
		MaxHeaderBytes: h.cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Host listening on %s", h.Addr())
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("host server failed: %w", err)
	case sig := <-quit:
		logger.Info("Received signal %s, shutting down", sig)
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("Host stopped")
	return nil
}

// corsMiddleware allows the frontend to reach the command surface during
// development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger logs each request with method, path, status, and latency.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("%s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
