package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docquery/internal/answer"
	"github.com/dgallion1/docquery/internal/api"
	"github.com/dgallion1/docquery/internal/config"
	"github.com/dgallion1/docquery/internal/history"
	"github.com/dgallion1/docquery/internal/qa"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Conversation storage.
	backend, err := history.NewFileBackend(cfg.HistoryDir)
	if err != nil {
		log.Error("failed to open history storage", "dir", cfg.HistoryDir, "error", err)
		os.Exit(1)
	}
	store := history.NewStore(backend, log)

	// Answer providers, each with its own latency window.
	claudeStats := answer.NewCallStats(cfg.StatsWindow)
	claude := answer.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, claudeStats)

	var backup answer.Answerer
	var gemini *answer.GeminiClient
	var geminiStats *answer.CallStats
	if cfg.GeminiAPIKey != "" {
		geminiStats = answer.NewCallStats(cfg.StatsWindow)
		gemini = answer.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, geminiStats)
		backup = gemini
	}

	// Question answering engine.
	opts := qa.Options{
		MaxContextChars: cfg.MaxContextChars,
		HistoryDepth:    cfg.HistoryDepth,
		DocTTL:          cfg.DocTTL,
	}
	engine := qa.NewEngine(store, claude, backup, log, opts)
	engine.StartCleanup(ctx)

	// HTTP server.
	srv := api.NewServer(engine, claude, backup, claudeStats, geminiStats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
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

		claude.Close()
		if gemini != nil {
			gemini.Close()
		}
	}()

	log.Info("starting docquery", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
