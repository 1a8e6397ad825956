// Package app wires configuration into a running service for the binaries.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"chess-analytica/internal/analysis"
	"chess-analytica/internal/chesscom"
	"chess-analytica/internal/config"
	"chess-analytica/internal/player"
	"chess-analytica/internal/service"
	"chess-analytica/internal/storage"
)

// OpenCache builds the cache backend selected by cfg. A nil cache with a nil
// error means caching is disabled.
func OpenCache(ctx context.Context, cfg *config.Config, devMode bool, logger zerolog.Logger) (service.Cache, error) {
	switch cfg.Cache {
	case config.CacheSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.StoragePath), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		store, err := storage.NewStore(cfg.StoragePath, devMode, logger)
		if err != nil {
			return nil, err
		}
		if err := store.InitDB(); err != nil {
			store.Close()
			return nil, fmt.Errorf("initializing schema: %w", err)
		}
		logger.Info().Str("path", cfg.StoragePath).Msg("sqlite cache enabled")
		return store, nil

	case config.CacheRedis:
		cache, err := storage.NewRedisCache(ctx, cfg.RedisURL, cfg.RedisTTL.Std(), logger)
		if err != nil {
			return nil, err
		}
		logger.Info().Dur("ttl", cfg.RedisTTL.Std()).Msg("redis cache enabled")
		return cache, nil

	default:
		logger.Info().Msg("cache disabled")
		return nil, nil
	}
}

// Open builds the chess.com client, cache and worker pool and returns the
// service owning them. Service.Shutdown releases all of them.
func Open(ctx context.Context, cfg *config.Config, devMode bool, logger zerolog.Logger) (*service.Service, error) {
	cache, err := OpenCache(ctx, cfg, devMode, logger)
	if err != nil {
		return nil, err
	}

	client := chesscom.New(cfg.APIBaseURL, cfg.UserAgent, cfg.HTTPTimeout.Std(), logger)
	opts := player.Options{
		Classes: cfg.TimeControls,
		Pool:    analysis.NewPool(cfg.Workers),
	}
	return service.New(client, cache, opts, logger), nil
}
