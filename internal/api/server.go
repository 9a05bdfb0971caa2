// Package api exposes the HTTP surface: registration and login,
// assessment submission and history, the advisory proxy and the admin
// overview.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/heartguard-api/internal/auth"
	"github.com/heartguard-api/internal/domain"
	"github.com/heartguard-api/internal/middleware"
	"github.com/heartguard-api/internal/service"
)

// Server represents the HTTP server
type Server struct {
	cfg        *domain.Config
	router     *gin.Engine
	server     *http.Server
	log        *logrus.Logger
	assessment *service.AssessmentService
	users      domain.UserStore
	records    domain.RecordStore
	advisory   domain.AdvisoryProvider
	tokens     *auth.TokenService
}

// NewServer creates a new HTTP server instance
func NewServer(
	cfg *domain.Config,
	assessment *service.AssessmentService,
	users domain.UserStore,
	records domain.RecordStore,
	advisory domain.AdvisoryProvider,
	tokens *auth.TokenService,
	logger *logrus.Logger,
) *Server {
	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.AuditLogger())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(corsMiddleware())
	router.Use(middleware.RequestTimeout(30 * time.Second))

	server := &Server{
		cfg:        cfg,
		router:     router,
		log:        logger,
		assessment: assessment,
		users:      users,
		records:    records,
		advisory:   advisory,
		tokens:     tokens,
	}

	server.setupRoutes()

	return server
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.cfg.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	authGroup := s.router.Group("/auth")
	{
		authGroup.POST("/register", s.handleRegister)
		authGroup.POST("/login", s.handleLogin)
	}

	v1 := s.router.Group("/api/v1")
	v1.Use(middleware.RequireAuth(s.tokens))
	{
		v1.POST("/assessments", s.handleSubmitAssessment)
		v1.GET("/assessments", s.handleGetHistory)

		advisoryLimiter := middleware.NewRateLimiter(
			s.cfg.Advisory.RequestsPerMinute,
			s.cfg.Advisory.Burst,
		)
		v1.POST("/advisory", advisoryLimiter.Middleware(), s.handleAskAdvisory)

		admin := v1.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/overview", s.handleAdminOverview)
		}
	}
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-API-Key")
		c.Header("Access-Control-Expose-Headers", "Content-Length")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
