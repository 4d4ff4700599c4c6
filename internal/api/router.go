package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/pdf-chat/internal/api/handler"
	customMiddleware "github.com/Rrens/pdf-chat/internal/api/middleware"
	"github.com/Rrens/pdf-chat/internal/config"
	"github.com/Rrens/pdf-chat/internal/domain"
	"github.com/Rrens/pdf-chat/internal/llm"
	"github.com/Rrens/pdf-chat/internal/metrics"
)

// Dependencies are the components the HTTP layer is wired to
type Dependencies struct {
	Chat    handler.ChatUseCase
	Store   handler.Pinger
	LLM     *llm.Router
	Limiter domain.RateLimiter
	Metrics *metrics.Metrics
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Server.MiddlewareTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))
	}
	if cfg.Metrics.Enabled && deps.Metrics != nil {
		r.Use(customMiddleware.Metrics(deps.Metrics))
	}

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))

	uploadHandler := handler.NewUploadHandler(deps.Chat, cfg.Upload.MaxBytes())
	chatHandler := handler.NewChatHandler(deps.Chat)

	r.Get("/health", handler.HealthCheck)
	r.Get("/ready", handler.ReadyCheck(deps.Store))
	r.Get("/llm-providers", handler.ListLLMProviders(deps.LLM))

	if cfg.Metrics.Enabled && deps.Metrics != nil {
		r.Handle(cfg.Metrics.Path, deps.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if cfg.Security.RateLimit.Enabled && deps.Limiter != nil {
			r.Use(customMiddleware.NewRateLimitMiddleware(deps.Limiter).Limit)
		}

		r.Post("/upload_pdf", uploadHandler.Upload)
		r.Post("/chat", chatHandler.Chat)
		r.Post("/reset_session", chatHandler.Reset)
	})

	if cfg.Server.StaticDir != "" {
		log.Info().Str("dir", cfg.Server.StaticDir).Msg("Serving static UI")
		r.Handle("/*", http.FileServer(http.Dir(cfg.Server.StaticDir)))
	}

	return r
}
