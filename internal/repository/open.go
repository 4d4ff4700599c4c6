// Package repository selects and opens the configured session backend.
package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/pdf-chat/internal/config"
	"github.com/Rrens/pdf-chat/internal/domain"
	"github.com/Rrens/pdf-chat/internal/repository/memory"
	"github.com/Rrens/pdf-chat/internal/repository/postgres"
	"github.com/Rrens/pdf-chat/internal/repository/redis"
	"github.com/Rrens/pdf-chat/internal/repository/sqlite"
)

// Backend is an opened session store together with the rate limiter that
// matches it
type Backend struct {
	Store   domain.SessionBackend
	Limiter domain.RateLimiter
}

// Open connects the backend named by cfg.Storage.Backend
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	opts := domain.StoreOptions{
		TTL:           cfg.Storage.SessionTTL,
		HistoryWindow: cfg.Chat.HistoryWindow,
	}
	rl := cfg.Security.RateLimit

	switch cfg.Storage.Backend {
	case "memory":
		return &Backend{
			Store:   memory.NewSessionStore(opts, cfg.Storage.CleanupInterval, cfg.Storage.MaxSessions),
			Limiter: memory.NewRateLimiter(rl.RequestsPerMinute, rl.Burst),
		}, nil

	case "redis":
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr()).Msg("Connected to Redis")
		return &Backend{
			Store:   redis.NewSessionStore(client, opts),
			Limiter: redis.NewRateLimiter(client, rl.RequestsPerMinute, rl.Burst),
		}, nil

	case "postgres":
		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationsURL()); err != nil {
				return nil, err
			}
		}
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Msg("Connected to PostgreSQL")
		return &Backend{
			Store:   postgres.NewSessionStore(db, opts),
			Limiter: memory.NewRateLimiter(rl.RequestsPerMinute, rl.Burst),
		}, nil

	case "sqlite":
		store, err := sqlite.NewSessionStore(ctx, cfg.SQLite.Path, opts)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLite.Path).Msg("Opened SQLite session store")
		return &Backend{
			Store:   store,
			Limiter: memory.NewRateLimiter(rl.RequestsPerMinute, rl.Burst),
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}
