// Package main implements an interactive client for exploring a chess.com
// player's games by position.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/chzyer/readline"

	"chess-analytica/internal/app"
	"chess-analytica/internal/client/commands"
	"chess-analytica/internal/client/display"
	"chess-analytica/internal/client/session"
	"chess-analytica/internal/config"
	"chess-analytica/internal/logging"
	"chess-analytica/internal/timecontrol"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config file (default: XDG config search)")
		cache      = flag.String("cache", "", "Override cache backend: sqlite, redis or none")
		logLevel   = flag.String("log-level", "", "Override log level")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s%s%s\n", display.Red, err.Error(), display.Reset)
		os.Exit(1)
	}
	if *cache != "" {
		cfg.Cache = *cache
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%s%s%s\n", display.Red, err.Error(), display.Reset)
		os.Exit(1)
	}

	// Logs go to stderr so they do not interleave with command output
	logger := logging.New(cfg.LogLevel, os.Stderr)

	svc, err := app.Open(context.Background(), cfg, false, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s%s%s\n", display.Red, err.Error(), display.Reset)
		os.Exit(1)
	}
	defer func() {
		if err := svc.Shutdown(5 * time.Second); err != nil {
			logger.Warn().Err(err).Msg("shutdown")
		}
	}()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("analytica"),
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("%s%s%s\n", display.Red, err.Error(), display.Reset)
		return
	}
	defer rl.Close()

	s := session.New(svc, rl.Stdout())
	s.Timeout = cfg.HTTPTimeout.Std() * 4

	fmt.Fprintf(rl.Stdout(), "%sChess Analytica%s\n", display.Cyan, display.Reset)
	fmt.Fprintf(rl.Stdout(), "%sCache: %s (%s)%s\n", display.Cyan, cfg.Cache, svc.GetStorageHealth(), display.Reset)
	fmt.Fprintf(rl.Stdout(), "Type 'help' for commands\n\n")

	registry := commands.NewRegistry(s)

	for {
		rl.SetPrompt(buildPrompt(s))

		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasSuffix(line, " -v") {
			s.Verbose = true
			line = strings.TrimSuffix(line, " -v")
		} else {
			s.Verbose = false
		}

		if err := registry.Execute(line); errors.Is(err, commands.ErrExit) {
			break
		}
	}
}

func historyFile() string {
	path, err := xdg.StateFile("chess-analytica/history")
	if err != nil {
		return filepath.Join(os.TempDir(), ".analytica_history")
	}
	return path
}

func buildPrompt(s *session.Session) string {
	parts := []string{}

	if s.Username != "" {
		parts = append(parts, fmt.Sprintf("%s%s%s", display.Magenta, s.Username, display.Reset))
	}
	if s.Color != 0 {
		parts = append(parts, display.ColorName(s.Color))
	}
	if s.TimeControl != timecontrol.All {
		parts = append(parts, fmt.Sprintf("%s%s%s", display.White, s.TimeControl, display.Reset))
	}

	promptStr := "analytica"
	if len(parts) > 0 {
		promptStr += display.Yellow + " [" + display.Reset + strings.Join(parts, display.Yellow+" - "+display.Reset) + display.Yellow + "]"
	}
	if n := len(s.Played); n > 0 {
		promptStr += fmt.Sprintf(" +%d", n)
	}

	return display.Prompt(promptStr)
}
