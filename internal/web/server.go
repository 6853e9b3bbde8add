// internal/web/server.go
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"nagrelay/internal/config"
	"nagrelay/internal/metrics"
	"nagrelay/internal/state"
)

// CommandSink is the write side of the engine's external command channel
// as the handlers see it.
type CommandSink interface {
	Enabled() bool
	Submit(args ...string) error
}

type Server struct {
	config    *config.Config
	provider  *state.Provider
	logs      *state.LogBuffer // nil when log tailing is disabled
	commands  CommandSink
	metrics   *metrics.Collector
	router    *gin.Engine
	server    *http.Server
	wsMu      sync.Mutex
	wsClients map[*WSClient]bool
}

func NewServer(cfg *config.Config, provider *state.Provider, logs *state.LogBuffer, commands CommandSink, collector *metrics.Collector) *Server {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(corsMiddleware(cfg.Server.AllowOrigin))
	router.HandleMethodNotAllowed = true

	server := &Server{
		config:    cfg,
		provider:  provider,
		logs:      logs,
		commands:  commands,
		metrics:   collector,
		router:    router,
		wsClients: make(map[*WSClient]bool),
	}

	server.setupRoutes()
	return server
}

func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Server.Port,
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	logrus.WithField("port", s.config.Server.Port).Info("Starting web server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/state", s.getState)
	s.router.GET("/objects", s.getObjects)
	s.router.GET("/host", s.getHost)
	s.router.GET("/host/:id", s.getHost)
	s.router.GET("/service", s.getServices)
	s.router.GET("/service/:id", s.getServices)
	s.router.GET("/log", s.getLog)

	s.router.POST("/schedule_downtime", s.scheduleDowntime)
	s.router.POST("/cancel_downtime", s.cancelDowntime)
	s.router.POST("/cancel_downtime/:id", s.cancelDowntime)
	s.router.POST("/submit_result", s.submitResult)

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/ws", s.handleWebSocket)

	if s.config.Prometheus.Enabled {
		s.router.GET(s.config.Prometheus.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	s.router.NoRoute(s.rejectRoute)
	s.router.NoMethod(s.rejectRoute)
}

// respond and fail are the only two ways out of a handler: every response,
// success or failure, is HTTP 200 with the same envelope. Application
// errors travel inside it, never as status codes.
func (s *Server) respond(c *gin.Context, content interface{}) {
	s.metrics.RecordRequest(c.Request.Method, verbLabel(c), true)
	c.JSON(http.StatusOK, gin.H{"success": true, "content": content})
}

func (s *Server) fail(c *gin.Context, message string) {
	s.metrics.RecordRequest(c.Request.Method, verbLabel(c), false)
	c.JSON(http.StatusOK, gin.H{"success": false, "content": message})
}

func (s *Server) rejectRoute(c *gin.Context) {
	s.fail(c, "unknown verb or malformed path")
}

func (s *Server) healthCheck(c *gin.Context) {
	status := gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
	}
	if snap := s.provider.Current(); snap != nil {
		status["snapshot_generation"] = snap.Generation
		status["snapshot_created"] = snap.Created
	}
	c.JSON(http.StatusOK, status)
}

func verbLabel(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return "unknown"
}

func corsMiddleware(allowOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if allowOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowOrigin)
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()
		c.Set("request_id", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}
