package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/pdf-chat/internal/api"
	"github.com/Rrens/pdf-chat/internal/config"
	"github.com/Rrens/pdf-chat/internal/document"
	"github.com/Rrens/pdf-chat/internal/domain"
	"github.com/Rrens/pdf-chat/internal/logger"
	"github.com/Rrens/pdf-chat/internal/metrics"
	"github.com/Rrens/pdf-chat/internal/repository"
	"github.com/Rrens/pdf-chat/internal/service"
)

func main() {
	// Load .env file - try multiple locations
	envLoaded := ""
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			envLoaded = p
			break
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	logCloser, err := logger.Setup(cfg.Logging, os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer logCloser.Close()

	if envLoaded != "" {
		log.Debug().Str("path", envLoaded).Msg("Loaded .env")
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Backend).
		Msg("Starting PDF chat server")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize session storage
	backend, err := repository.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer backend.Store.Close()

	m := metrics.NewMetrics()

	// Stores without native expiry are swept from here
	if sweeper, ok := backend.Store.(domain.ExpirySweeper); ok && cfg.Storage.SessionTTL > 0 {
		go repository.RunSweeper(ctx, sweeper, cfg.Storage.CleanupInterval, m)
	}

	// Initialize LLM Router with providers
	llmRouter := api.NewLLMRouter(cfg.LLM)

	// Initialize services
	answerService := service.NewAnswerService(llmRouter, cfg.LLM, m)
	chatService := service.NewChatService(
		backend.Store,
		document.NewExtractor(cfg.Document.MaxChars),
		answerService,
		service.ChatOptions{
			UploadDir:        cfg.Upload.Dir,
			KeepFiles:        cfg.Upload.KeepFiles,
			HistoryWindow:    cfg.Chat.HistoryWindow,
			MaxMessageLength: cfg.Chat.MaxMessageLength,
		},
		m,
	)

	// Initialize router
	router := api.NewRouter(cfg, api.Dependencies{
		Chat:    chatService,
		Store:   backend.Store,
		LLM:     llmRouter,
		Limiter: backend.Limiter,
		Metrics: m,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
