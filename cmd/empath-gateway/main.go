package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/empathlab/empath-gateway/internal/chat"
	"github.com/empathlab/empath-gateway/internal/config"
	"github.com/empathlab/empath-gateway/internal/emotion"
	"github.com/empathlab/empath-gateway/internal/logging"
	"github.com/empathlab/empath-gateway/internal/pipeline"
	"github.com/empathlab/empath-gateway/internal/sentiment"
	"github.com/empathlab/empath-gateway/internal/server"
	"github.com/empathlab/empath-gateway/internal/session"
	"github.com/empathlab/empath-gateway/internal/transcribe"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.WithComponent("main").Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logging.WithComponent("main").Error("Invalid config", "error", err)
		os.Exit(1)
	}

	logging.Init(cfg.Logging.Level)
	logger := logging.WithComponent("main")
	logger.Info("Starting Empath-Gateway", "version", version)

	// Session store
	store := session.New()

	// Analysis stages
	transcriber := transcribe.NewClient(&cfg.Transcription, logging.WithComponent("transcribe"))
	scorer := sentiment.NewScorer()
	detector := emotion.NewHTTPDetector(cfg.Emotion.URL)
	analyzer := emotion.NewAnalyzer(&cfg.Emotion, detector, logging.WithComponent("emotion"))

	// Reply generation
	ollama, err := chat.NewOllamaClient(&cfg.Chat)
	if err != nil {
		logger.Error("Failed to create chat client", "error", err)
		os.Exit(1)
	}
	if err := ollama.Health(); err != nil {
		logger.Warn("Chat backend unreachable, replies will degrade", "url", cfg.Chat.URL, "error", err)
	} else {
		logger.Info("Chat backend OK", "url", cfg.Chat.URL, "model", cfg.Chat.Model)
	}
	generator := chat.NewGenerator(ollama, logging.WithComponent("chat"))

	// Pipeline orchestrator
	orch := pipeline.New(transcriber, scorer, analyzer, generator, store, logging.WithComponent("pipeline"))

	// HTTP server
	srv := server.New(cfg, orch, transcriber, scorer, generator, store, logging.WithComponent("server"))

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("Server listening on", "host", cfg.Server.Host, "port", cfg.Server.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
