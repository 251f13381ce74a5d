// Package main provides the entry point for the extraction server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/jmylchreest/campaign-brief/internal/api/handlers"
	"github.com/jmylchreest/campaign-brief/internal/config"
	"github.com/jmylchreest/campaign-brief/internal/extraction"
	"github.com/jmylchreest/campaign-brief/internal/http/mw"
	"github.com/jmylchreest/campaign-brief/internal/logging"
	"github.com/jmylchreest/campaign-brief/internal/shutdown"
	"github.com/jmylchreest/campaign-brief/internal/version"
)

func main() {
	cfg := config.Load()
	logger := logging.SetDefault()

	logger.Info("starting extraction server",
		"version", version.Get().String(),
		"port", cfg.ExtractionPort,
		"max_sessions", cfg.BrowserMaxSessions,
	)

	if err := cfg.ValidateExtraction(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resources, err := config.NewResourceSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open resources", "error", err)
		os.Exit(1)
	}

	svc, launcher, err := extraction.NewBrowserService(ctx, cfg, resources, logger)
	if err != nil {
		logger.Error("failed to create extraction service", "error", err)
		os.Exit(1)
	}
	defer launcher.Close()

	// Pre-download Chromium so the first request does not pay for it
	if err := launcher.Warmup(); err != nil {
		logger.Warn("browser warmup failed", "error", err)
	}

	// Idle shutdown counts open browser sessions as activity
	idle := shutdown.NewIdleMonitor(shutdown.IdleConfig{
		Timeout: cfg.IdleTimeout,
		Busy:    func() int { return launcher.Stats().Active },
		Logger:  logger,
	})
	idle.Start()
	defer idle.Stop()

	healthHandler := handlers.NewHealthHandler("", "", launcher)
	extractHandler := handlers.NewExtractHandler(svc, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(logging.Middleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(mw.Timeout(mw.TimeoutConfig{
		Default:          30 * time.Second,
		Extended:         cfg.RenderTimeout*2 + 30*time.Second,
		ExtendedPatterns: []string{"/extract"},
	}))
	r.Use(idle.Middleware)
	if cfg.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
	}
	r.Use(mw.SignedRequests(mw.AuthConfig{
		Secret: cfg.ExtractionSecret,
		Skip:   isPublic,
		Logger: logger,
	}))

	humaConfig := huma.DefaultConfig("Extraction Server", version.Get().Version)
	humaConfig.Info.Description = "Renders pages in a headless browser and returns their text"
	api := humachi.New(r, humaConfig)

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns health status and browser session usage",
		Tags:        []string{"Health"},
	}, healthHandler.Handle)

	huma.Register(api, huma.Operation{
		OperationID: "extract",
		Method:      http.MethodPost,
		Path:        "/extract",
		Summary:     "Extract page text",
		Description: "Probes the page, renders it and retries once through the proxy when it is blocked",
		Tags:        []string{"Extraction"},
	}, extractHandler.Handle)

	addr := fmt.Sprintf(":%d", cfg.ExtractionPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RenderTimeout*2 + 60*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutting down server...")
	case <-idle.Done():
		logger.Info("shutting down idle server...", "idle_for", idle.IdleFor())
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

// isPublic exempts health checks and the API docs from request signing. Only the
// path is considered; a health-check User-Agent does not bypass signing.
func isPublic(r *http.Request) bool {
	switch {
	case r.Method != http.MethodGet:
		return false
	case r.URL.Path == "/health", r.URL.Path == "/openapi.json", r.URL.Path == "/openapi.yaml", r.URL.Path == "/docs":
		return true
	case strings.HasPrefix(r.URL.Path, "/schemas/"), strings.HasPrefix(r.URL.Path, "/openapi-"):
		return true
	}
	return false
}
