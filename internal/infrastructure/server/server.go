// Package server exposes extraction sessions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/ports"
)

// Extractor runs a pending extraction for a session.
type Extractor interface {
	Run(ctx context.Context, session *domain.Session) (domain.ExtractionRecord, error)
}

// Deps wires the server to the application.
type Deps struct {
	Config    domain.Config
	Sessions  ports.SessionStore
	Extractor Extractor
	Documents ports.DocumentReader
	Logger    ports.Logger
}

// Server holds the state for the REST API server.
type Server struct {
	cfg       domain.Config
	sessions  ports.SessionStore
	extractor Extractor
	documents ports.DocumentReader
	logger    ports.Logger
	router    *gin.Engine

	extractions *semaphore.Weighted
	limiters    sync.Map
}

// New creates a Server with its routes registered.
func New(deps Deps) (*Server, error) {
	if deps.Sessions == nil || deps.Extractor == nil || deps.Documents == nil || deps.Logger == nil {
		return nil, errors.New("server dependencies not satisfied")
	}
	concurrent := deps.Config.Server.MaxConcurrentExtractions
	if concurrent <= 0 {
		concurrent = domain.DefaultMaxConcurrentExtractions
	}

	r := gin.New()
	r.MaxMultipartMemory = uploadLimit(deps.Config)
	s := &Server{
		cfg:         deps.Config,
		sessions:    deps.Sessions,
		extractor:   deps.Extractor,
		documents:   deps.Documents,
		logger:      deps.Logger,
		router:      r,
		extractions: semaphore.NewWeighted(int64(concurrent)),
	}
	deps.Sessions.OnEvict(func(id string) { s.limiters.Delete(id) })
	r.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", map[string]interface{}{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/v1/models", s.handleModels)

	v1 := s.router.Group("/v1/sessions")
	v1.POST("", s.handleCreateSession)
	v1.GET("/:id", s.handleGetSession)
	v1.DELETE("/:id", s.handleDeleteSession)
	v1.POST("/:id/fields", s.handleAddField)
	v1.DELETE("/:id/fields/:index", s.handleRemoveField)
	v1.PUT("/:id/options", s.handleSetOptions)
	v1.POST("/:id/document", s.handleUploadDocument)
	v1.DELETE("/:id/document", s.handleRemoveDocument)
	v1.POST("/:id/extract", s.handleExtract)
	v1.GET("/:id/history", s.handleHistory)
}

// requestLogger logs method, path, status and latency per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request", map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
	}
}

// limiter returns the extraction rate limiter for a session.
func (s *Server) limiter(sessionID string) *rate.Limiter {
	if v, ok := s.limiters.Load(sessionID); ok {
		return v.(*rate.Limiter)
	}

	perMinute := s.cfg.Server.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = domain.DefaultRateLimitPerMinute
	}
	burst := s.cfg.Server.RateLimitBurst
	if burst <= 0 {
		burst = domain.DefaultRateLimitBurst
	}

	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
	actual, _ := s.limiters.LoadOrStore(sessionID, limiter)
	return actual.(*rate.Limiter)
}

func uploadLimit(cfg domain.Config) int64 {
	if cfg.Server.MaxUploadBytes > 0 {
		return cfg.Server.MaxUploadBytes
	}
	return cfg.GetMaxDocumentBytes()
}
