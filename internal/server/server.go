package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"

	"codir/internal/company"
	"codir/internal/config"
	"codir/internal/formatter"
	"codir/internal/logging"
	"codir/internal/scraper"
)

const serviceName = "codir"

// Scraper runs one validated search.
type Scraper interface {
	Scrape(ctx context.Context, req scraper.Request) (*company.RecordSet, error)
}

// Config represents server configuration
type Config struct {
	Port         string
	MaxSessions  int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig derives server settings from the shared configuration.
// Write timeout is generous because a response is only written once the
// whole directory walk has finished.
func DefaultConfig(cfg config.Config) Config {
	return Config{
		Port:         cfg.Port,
		MaxSessions:  cfg.MaxSessions,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
}

// Handler serves directory searches, one browser session per in-flight request.
type Handler struct {
	scraper  Scraper
	sessions *semaphore.Weighted
	logger   logging.Logger
}

func NewHandler(s Scraper, maxSessions int, logger logging.Logger) *Handler {
	if maxSessions <= 0 {
		maxSessions = 1
	}
	return &Handler{
		scraper:  s,
		sessions: semaphore.NewWeighted(int64(maxSessions)),
		logger:   logger,
	}
}

// SetupRouter creates a Gin router with common middleware, health and metrics
// endpoints, and the search routes.
func SetupRouter(logger logging.Logger, h *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	if config.GetEnv("GIN_MODE", "debug") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(logger))
	router.Use(RecoveryMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	companies := router.Group("/companies")
	companies.GET("/search_data", h.SearchData)
	companies.POST("/search_data", h.SearchData)

	return router
}

// SearchData takes a search as the search_input query parameter (GET) or as
// the JSON request body (POST) and answers with a CSV download.
func (h *Handler) SearchData(c *gin.Context) {
	var payload []byte
	if input, ok := c.GetQuery("search_input"); ok {
		payload = []byte(input)
	} else if c.Request.Method == http.MethodPost {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusBadRequest, scraper.MsgInvalidJSON)
			return
		}
		payload = body
	} else {
		c.Status(http.StatusNoContent)
		return
	}

	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "json" {
		c.String(http.StatusBadRequest, fmt.Sprintf("unsupported format: %s", format))
		return
	}

	req, err := scraper.ParseRequest(payload)
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		c.String(http.StatusBadRequest, scraper.Message(err))
		return
	}

	ctx := c.Request.Context()
	if err := h.sessions.Acquire(ctx, 1); err != nil {
		c.String(http.StatusServiceUnavailable, "Scraper busy, try again later")
		return
	}
	defer h.sessions.Release(1)

	set, err := h.scraper.Scrape(ctx, req)
	switch {
	case scraper.IsKind(err, scraper.KindTimeout):
		c.String(http.StatusNotFound, scraper.MsgNoData)
		return
	case err != nil:
		h.logger.WithError(err).WithFields(logging.Fields{
			"request_id": GetRequestID(c),
			"outcome":    scraper.Outcome(err),
		}).Error("Search failed")
		c.String(http.StatusInternalServerError, scraper.Message(err))
		return
	case set.Len() == 0:
		c.String(http.StatusNotFound, scraper.MsgNoData)
		return
	}

	if format == "json" {
		c.JSON(http.StatusOK, set)
		return
	}

	data, err := formatter.Serialize(set)
	if err != nil {
		h.logger.WithError(err).Error("Failed to serialize records")
		c.String(http.StatusInternalServerError, "failed to export records")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, formatter.CSVFilename))
	c.Data(http.StatusOK, formatter.CSVMediaType, data)
}

// Start serves router until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, cfg Config, router *gin.Engine, logger logging.Logger) error {
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logging.Fields{
			"port":         cfg.Port,
			"max_sessions": cfg.MaxSessions,
		}).Info("Starting HTTP server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
