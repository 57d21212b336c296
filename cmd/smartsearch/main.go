package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/config"
	dbElastic "github.com/kailas-cloud/smartsearch/internal/db/elastic"
	dbValkey "github.com/kailas-cloud/smartsearch/internal/db/valkey"
	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/query/fields"
	"github.com/kailas-cloud/smartsearch/internal/domain/query/schema"
	"github.com/kailas-cloud/smartsearch/internal/domain/query/terms"
	"github.com/kailas-cloud/smartsearch/internal/llm"
	logpkg "github.com/kailas-cloud/smartsearch/internal/logger"
	"github.com/kailas-cloud/smartsearch/internal/metrics"
	budgetrepo "github.com/kailas-cloud/smartsearch/internal/repository/budget"
	searchrepo "github.com/kailas-cloud/smartsearch/internal/repository/search"
	chiTransport "github.com/kailas-cloud/smartsearch/internal/transport/chi"
	batchuc "github.com/kailas-cloud/smartsearch/internal/usecase/batch"
	"github.com/kailas-cloud/smartsearch/internal/usecase/generate"
	healthuc "github.com/kailas-cloud/smartsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/smartsearch/internal/usecase/search"
	usageuc "github.com/kailas-cloud/smartsearch/internal/usecase/usage"
	"github.com/kailas-cloud/smartsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting smartsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("build_date", version.Date),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("search_addrs", cfg.Search.Addrs),
		zap.String("search_index", cfg.Search.Index),
		zap.String("llm_driver", cfg.LLM.Driver),
		zap.String("llm_model", cfg.LLM.Model),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterLLMMetrics()
	metrics.RegisterPipelineMetrics()
	metrics.RegisterHTTPMetrics()

	ctx := context.Background()

	// Search backend
	backend, err := dbElastic.NewBackend(dbElastic.Config{
		Addrs:    cfg.Search.Addrs,
		Username: cfg.Search.Username,
		Password: cfg.Search.Password,
		Index:    cfg.Search.Index,
		Timeout:  time.Duration(cfg.Search.TimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create search backend", zap.Error(err))
	}
	if err := backend.WaitForReady(ctx, time.Duration(cfg.Search.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Search backend not ready", zap.Error(err))
	}
	logger.Info("Connected to search backend")

	// Single budget tracker shared by the completer and the usage service.
	tracker := llm.NewTracker(cfg.LLM, logger)

	// Optional Valkey store for budget counters.
	var dbPinger healthuc.Pinger
	if len(cfg.Database.Addrs) > 0 {
		store, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")
		dbPinger = store

		if tracker != nil {
			tracker.WithStore(ctx, budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour))
		}
	}

	// Completion chain: provider -> Instrumented
	completer, err := llm.NewCompleter(cfg.LLM, tracker, logger)
	if err != nil {
		logger.Fatal("Failed to create completer", zap.Error(err))
	}

	instructions := generate.DefaultInstructions()
	if cfg.LLM.PromptFile != "" {
		instructions, err = generate.LoadInstructions(cfg.LLM.PromptFile)
		if err != nil {
			logger.Fatal("Failed to load prompt", zap.Error(err))
		}
	}
	genSvc := generate.New(completer, logger).
		WithInstructions(instructions).
		WithDocumentType(cfg.Search.DocumentType).
		WithAttemptTimeout(time.Duration(cfg.LLM.AttemptTimeoutSec) * time.Second)
	logger.Info("Query generator ready",
		zap.String("prompt_version", instructions.Version),
		zap.String("document_type", cfg.Search.DocumentType),
	)

	allowed := fields.Default()
	if len(cfg.Terms.AllowedFields) > 0 {
		allowed, err = fields.New(cfg.Terms.AllowedFields...)
		if err != nil {
			logger.Fatal("Invalid allowed fields", zap.Error(err))
		}
	}
	extractor := terms.NewExtractor(allowed)

	// Use case services
	searchSvc := searchuc.New(searchrepo.New(backend), genSvc, extractor).
		WithHighlight(highlightFromConfig(cfg.Search)).
		WithDocumentType(cfg.Search.DocumentType)
	batchSvc := batchuc.New(genSvc, extractor).
		WithWorkers(cfg.Batch.Workers).
		WithMaxBatchSize(cfg.Batch.MaxBatchSize)

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budgetReader usageuc.BudgetReader
	if tracker != nil {
		budgetReader = tracker
	}
	usageSvc := usageuc.New(budgetReader)
	healthSvc := healthuc.New(backend, completer, dbPinger)

	server := chiTransport.NewServer(
		searchSvc, genSvc, schema.NewValidator(logger), extractor,
		batchSvc, usageSvc, healthSvc, logger,
	).WithPagination(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEvent(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// highlightFromConfig overlays configured highlight settings on the defaults.
func highlightFromConfig(cfg config.SearchConfig) domain.Highlight {
	hl := domain.DefaultHighlight()
	if len(cfg.HighlightFields) > 0 {
		hl.Fields = cfg.HighlightFields
	}
	if cfg.MaxAnalyzedOffset > 0 {
		hl.MaxAnalyzedOffset = cfg.MaxAnalyzedOffset
	}
	return hl
}
