// Package main implements the analytica API server, serving position
// statistics over a chess.com player's games.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lixenwraith/auth"

	"chess-analytica/cmd/analyticad/cli"
	"chess-analytica/internal/app"
	"chess-analytica/internal/config"
	"chess-analytica/internal/http"
	"chess-analytica/internal/logging"
)

const (
	gracefulShutdownTimeout = time.Second * 5
)

func main() {
	// Check for CLI maintenance commands
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "CLI error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	var (
		configPath = flag.String("config", "", "Config file (default: XDG config search)")
		listen     = flag.String("listen", "", "Override listen address host:port")
		dev        = flag.Bool("dev", false, "Development mode (relaxed rate limits)")
		pidPath    = flag.String("pid", "", "Optional path to write PID file")
		pidLock    = flag.Bool("pid-lock", false, "Lock PID file to allow only one instance (requires -pid)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}

	logger := logging.New(cfg.LogLevel, os.Stderr)

	if *pidLock && *pidPath == "" {
		logger.Fatal().Msg("-pid-lock flag requires the -pid flag to be set")
	}
	if *pidPath != "" {
		cleanup, err := managePIDFile(*pidPath, *pidLock)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to manage PID file")
		}
		defer cleanup()
		logger.Info().Str("path", *pidPath).Bool("lock", *pidLock).Msg("PID file created")
	}

	// 1. Service with cache, chess.com client and scan pool
	svc, err := app.Open(context.Background(), cfg, *dev, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize service")
	}

	// 2. Refresh endpoint protection
	var validateToken http.TokenValidator
	if cfg.TokenSecret != "" {
		secret := []byte(cfg.TokenSecret)
		validateToken = func(token string) (string, map[string]any, error) {
			return auth.ValidateHS256Token(secret, token)
		}
	} else {
		logger.Warn().Msg("no token secret configured, refresh endpoint is open")
	}

	// 3. Fiber app
	server := http.NewFiberApp(svc, http.Config{
		DevMode:       *dev,
		FetchTimeout:  cfg.HTTPTimeout.Std() * 4,
		ValidateToken: validateToken,
		Logger:        logger,
	})

	go func() {
		logger.Info().
			Str("addr", cfg.ListenAddr).
			Str("cache", cfg.Cache).
			Int("workers", cfg.Workers).
			Bool("dev", *dev).
			Msg("analytica API server starting")
		logger.Info().Msgf("players: http://%s/api/v1/players/{username}", cfg.ListenAddr)
		logger.Info().Msgf("health: http://%s/health", cfg.ListenAddr)

		if err := server.Listen(cfg.ListenAddr); err != nil {
			logger.Error().Err(err).Msg("API server listen error")
		}
	}()

	// Wait for an interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	if err = server.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server forced to shutdown")
	}

	// Drains queued cache writes
	if err = svc.Shutdown(gracefulShutdownTimeout); err != nil {
		logger.Warn().Err(err).Msg("service shutdown error")
	}

	logger.Info().Msg("server exited")
}
