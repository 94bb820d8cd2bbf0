package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spacesedan/sentiscope/config"
	"github.com/spacesedan/sentiscope/internal/analysis"
	"github.com/spacesedan/sentiscope/internal/ingest"
	"github.com/spacesedan/sentiscope/internal/monitoring"
	"github.com/spacesedan/sentiscope/internal/session"
)

// Server exposes the single-text and batch flows as an HTML page and a JSON API
type Server struct {
	analyzer *analysis.Analyzer
	store    session.Store
	reader   *ingest.Reader
	health   *monitoring.ModelHealth
	page     *template.Template
}

func NewServer(analyzer *analysis.Analyzer, store session.Store, reader *ingest.Reader, health *monitoring.ModelHealth) (*Server, error) {
	page, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	return &Server{
		analyzer: analyzer,
		store:    store,
		reader:   reader,
		health:   health,
		page:     page,
	}, nil
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())
	if s.reader.MaxBytes > 0 {
		r.MaxMultipartMemory = s.reader.MaxBytes
	}

	r.GET("/", s.Index)
	r.POST("/analyze", s.AnalyzeText)
	r.POST("/upload", s.Upload)
	r.POST("/batch/:id/analyze", s.AnalyzeBatch)
	r.GET("/health", s.Health)

	api := r.Group("/api/v1")
	api.POST("/analyze", s.APIAnalyze)
	api.POST("/batch", s.APIBatch)

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.SetupRouter(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("[Server] Listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("[Server] Shutting down", slog.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// RequestLogger logs one line per request through slog
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("error", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			slog.Error("[Server] Request failed", attrs...)
		case c.Writer.Status() >= http.StatusBadRequest:
			slog.Warn("[Server] Request rejected", attrs...)
		default:
			slog.Info("[Server] Request served", attrs...)
		}
	}
}
