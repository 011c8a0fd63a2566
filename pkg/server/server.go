package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "pickupwatch/docs" // swagger docs
	"pickupwatch/pkg/handlers"
	"pickupwatch/pkg/logger"
	"pickupwatch/pkg/middleware"
)

// Server constants
const (
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 60 * time.Second
	DefaultIdleTimeout  = 120 * time.Second
	ServiceName         = "pickupwatch"
)

// Config holds HTTP server configuration
type Config struct {
	Listen      string
	Development bool
	// Gatherer backs /metrics. Nil serves the default registry.
	Gatherer prometheus.Gatherer
}

// HTTPServer serves the status API next to a watch run.
type HTTPServer struct {
	server     *http.Server
	router     *gin.Engine
	config     *Config
	handlerSvc *handlers.HandlerService
}

func NewHTTPServer(cfg *Config, handlerSvc *handlers.HandlerService) *HTTPServer {
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &HTTPServer{
		router:     gin.New(),
		config:     cfg,
		handlerSvc: handlerSvc,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Listen,
		Handler:      s.router,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) setupRoutes() {
	s.addMiddleware()

	s.router.GET("/health", s.handlerSvc.HealthCheck)
	s.router.GET("/status", s.handlerSvc.GetStatus)
	s.router.GET("/metrics", gin.WrapH(s.metricsHandler()))
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s.setupAPIRoutes()
	logger.Debug("HTTP routes configured")
}

func (s *HTTPServer) addMiddleware() {
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.GinZapLogger(logger.Logger))
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.ErrorHandler())
	s.router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet},
		AllowHeaders:    []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:   []string{middleware.RequestIDHeader},
		MaxAge:          12 * time.Hour,
	}))
}

func (s *HTTPServer) setupAPIRoutes() {
	api := s.router.Group("/api/v1")
	api.GET("/status", s.handlerSvc.GetStatus)
	api.GET("/history", s.handlerSvc.GetHistory)
	api.GET("/jobs", s.handlerSvc.GetScheduledJobs)
	api.GET("/config", s.handlerSvc.GetAppConfig)
	api.GET("/catalog", s.handlerSvc.GetCatalog)
	api.POST("/check", s.handlerSvc.TriggerCheck)
}

func (s *HTTPServer) metricsHandler() http.Handler {
	if s.config.Gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{})
}

// Start binds the listen address and serves until Shutdown. Bind errors
// are returned before serving begins.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	return nil
}
