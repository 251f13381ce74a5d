// Package main provides the entry point for the campaign API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/jmylchreest/campaign-brief/internal/api/handlers"
	"github.com/jmylchreest/campaign-brief/internal/campaign"
	"github.com/jmylchreest/campaign-brief/internal/config"
	"github.com/jmylchreest/campaign-brief/internal/extraction"
	"github.com/jmylchreest/campaign-brief/internal/http/mw"
	"github.com/jmylchreest/campaign-brief/internal/llm"
	"github.com/jmylchreest/campaign-brief/internal/logging"
	"github.com/jmylchreest/campaign-brief/internal/version"
)

func main() {
	// Load configuration first (logging config comes from env)
	cfg := config.Load()

	// Initialize logger using slog-logfilter (respects LOG_LEVEL, LOG_FORMAT env vars)
	logger := logging.SetDefault()

	logger.Info("starting campaign api",
		"version", version.Get().String(),
		"port", cfg.Port,
		"provider", cfg.LLMProvider,
		"extraction_url", cfg.ExtractionURL,
	)

	if err := cfg.ValidateAPI(); err != nil {
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
	instructions, err := config.LoadInstructions(ctx, resources, llm.InstructionNames())
	if err != nil {
		logger.Error("failed to load instructions", "source", resources.String(), "error", err)
		os.Exit(1)
	}

	apiKey, _ := cfg.ProviderAPIKey()
	provider, err := llm.NewProvider(llm.ProviderConfig{
		Name:    cfg.LLMProvider,
		APIKey:  apiKey,
		BaseURL: cfg.ProviderBaseURL(),
	})
	if err != nil {
		logger.Error("failed to create LLM provider", "error", err)
		os.Exit(1)
	}
	completer, err := llm.NewClient(llm.ClientConfig{
		Provider:     provider,
		Instructions: instructions,
		CheapModel:   cfg.CheapModel,
		CapableModel: cfg.CapableModel,
		Timeout:      cfg.LLMTimeout,
		Monitor:      cfg.Monitor,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("failed to create LLM client", "error", err)
		os.Exit(1)
	}

	// Extraction runs remotely when a service URL is set, otherwise in-process.
	var (
		extractor      extraction.Extractor
		extractionMode string
		sessions       handlers.SessionStats
	)
	if cfg.ExtractionURL != "" {
		client, err := extraction.NewClient(extraction.ClientConfig{
			BaseURL: cfg.ExtractionURL,
			Secret:  cfg.ExtractionSecret,
			Timeout: cfg.ExtractionTimeout,
			Logger:  logger,
		})
		if err != nil {
			logger.Error("failed to create extraction client", "error", err)
			os.Exit(1)
		}
		if health, err := client.Health(ctx); err != nil {
			logger.Warn("extraction service not reachable yet", "url", cfg.ExtractionURL, "error", err)
		} else {
			logger.Info("extraction service reachable", "url", cfg.ExtractionURL, "version", health.Version)
		}
		extractor, extractionMode = client, handlers.ExtractionRemote
	} else {
		svc, launcher, err := extraction.NewBrowserService(ctx, cfg, resources, logger)
		if err != nil {
			logger.Error("failed to create extraction service", "error", err)
			os.Exit(1)
		}
		defer launcher.Close()
		if err := launcher.Warmup(); err != nil {
			logger.Warn("browser warmup failed", "error", err)
		}
		extractor, extractionMode, sessions = svc, handlers.ExtractionInProcess, launcher
	}

	orchestrator := campaign.NewOrchestrator(extractor, completer, logger)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(completer.ProviderName(), extractionMode, sessions)
	campaignHandler := handlers.NewCampaignHandler(orchestrator, logger)
	testHandler := handlers.NewTestStreamHandler(cfg.TestStreamInterval)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(logging.Middleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Streaming routes run without a deadline
	r.Use(mw.Timeout(mw.TimeoutConfig{
		Default:          30 * time.Second,
		Extended:         cfg.RequestTimeout,
		ExtendedPatterns: []string{"/buffered"},
		SkipPatterns:     []string{"/streaming", "/test"},
	}))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if cfg.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
	}

	// Create Huma API
	humaConfig := huma.DefaultConfig("Campaign API", version.Get().Version)
	humaConfig.Info.Description = "Generates affiliate campaign briefs and email templates from a website"
	api := humachi.New(r, humaConfig)

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns health status, provider and extraction mode",
		Tags:        []string{"Health"},
	}, healthHandler.Handle)

	huma.Register(api, huma.Operation{
		OperationID: "bufferedCampaign",
		Method:      http.MethodPost,
		Path:        "/buffered",
		Summary:     "Generate a campaign",
		Description: "Generates the campaign, platform guidelines and optional email template and returns them as one JSON object",
		Tags:        []string{"Campaign"},
	}, campaignHandler.Buffered)

	// Raw streaming handlers, documented in the OpenAPI spec separately.
	r.Post("/streaming", campaignHandler.Streaming)
	r.Get("/test", testHandler.ServeHTTP)
	campaignHandler.RegisterRawEndpoints(api)

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", addr, "extraction", extractionMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}
