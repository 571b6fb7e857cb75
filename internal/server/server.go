// Package server exposes scoped dashboards over HTTP for the admin, client,
// and worker portals.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/staffdash/internal/metrics"
	"github.com/raphaelgruber/staffdash/internal/service"
)

// Server wraps the gin router with its dependencies.
type Server struct {
	router    *gin.Engine
	manager   *service.Manager
	collector *metrics.Collector
	logger    *slog.Logger
	upgrader  websocket.Upgrader
	version   string
}

// New creates a server with all routes registered.
func New(version string, manager *service.Manager, collector *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:    gin.New(),
		manager:   manager,
		collector: collector,
		logger:    logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Dashboards are served from other origins during local dev
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		version: version,
	}
	s.setup()
	return s
}

// Handler returns the HTTP handler for use with http.Server or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setup() {
	s.router.Use(gin.Recovery())
	s.router.Use(LoggingMiddleware(s.logger))

	s.router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok\n")
	})

	v1 := s.router.Group("/api/v1")
	v1.GET("/stats", s.stats)
	v1.GET("/:scope/dashboard", s.dashboard)
	v1.POST("/:scope/refresh", s.refresh)
	v1.POST("/:scope/mutations", s.mutate)
	v1.GET("/:scope/stream", s.stream)
	v1.GET("/:scope/:collection", s.list)
}

// streamWriteWait bounds a single websocket write.
const streamWriteWait = 10 * time.Second
