package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/litchunk/internal/api"
	"github.com/dgallion1/litchunk/internal/config"
	"github.com/dgallion1/litchunk/internal/extract"
	"github.com/dgallion1/litchunk/internal/pipeline"
	"github.com/dgallion1/litchunk/internal/stats"
	"github.com/dgallion1/litchunk/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))

	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	types, err := cfg.SourceTypes()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize pipeline.
	est := tokens.NewEstimator(
		tokens.NewTiktokenEncoder(cfg.TokenModel),
		tokens.NewGseSegmenter(log, cfg.SegmenterDicts...),
		log,
	)
	ext := extract.New(log, extract.Options{
		TitleMaxLength: cfg.TitleMaxLength,
		EnabledTypes:   types,
		PDFFallback:    cfg.PDFFallbackPdftotext,
	})
	orch := pipeline.NewOrchestrator(ext, est, log)
	batch, err := pipeline.NewBatch(orch, cfg.BatchWorkers, log)
	if err != nil {
		log.Error("create batch pool", "error", err)
		os.Exit(1)
	}

	// Initialize HTTP server.
	srv := api.NewServer(api.Services{
		Orchestrator: orch,
		Batch:        batch,
		Extractor:    ext,
		Estimator:    est,
		Stats:        stats.NewWindow(cfg.StatsWindow),
	}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		batch.Release()
	}()

	log.Info("starting litchunk",
		"port", cfg.Port,
		"chunk_size", cfg.ChunkSize,
		"chunk_overlap", cfg.ChunkOverlap,
		"token_method", cfg.TokenMethod(),
		"extract_types", types,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
