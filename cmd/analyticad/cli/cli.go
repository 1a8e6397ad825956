package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/lixenwraith/auth"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"chess-analytica/internal/config"
	"chess-analytica/internal/storage"
)

// Run is the entry point for the maintenance mini-app
func Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, query, evict, token, config")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:])
	case "delete":
		return runDelete(args[1:])
	case "query":
		return runQuery(args[1:])
	case "evict":
		return runEvict(args[1:])
	case "token":
		return runToken(args[1:])
	case "config":
		return runConfig(args[1:])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func pathFlag(fs *flag.FlagSet) *string {
	return fs.String("path", config.DefaultStoragePath(), "Database file path")
}

func openStore(path string) (*storage.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path required")
	}
	return storage.NewStore(path, false, zerolog.Nop())
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := pathFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Printf("Database initialized at: %s\n", *path)
	return nil
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	path := pathFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Printf("Database deleted: %s\n", *path)
	return nil
}

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	path := pathFlag(fs)
	username := fs.String("username", "", "Player to filter (optional, * for all)")
	timeControl := fs.String("timeControl", "", "Exact time-control token to filter games (optional)")
	games := fs.Bool("games", false, "List cached games instead of players")

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	if *games {
		return printGames(store, *username, *timeControl)
	}
	return printPlayers(store, *username)
}

func printPlayers(store *storage.Store, username string) error {
	players, err := store.QueryPlayers(username)
	if err != nil {
		return err
	}
	if len(players) == 0 {
		fmt.Println("No players found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Username\tDisplay Name\tGames\tFetched")
	fmt.Fprintln(w, strings.Repeat("-", 64))
	for _, p := range players {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			p.Username, p.DisplayName, p.GameCount, p.FetchedAt.Local().Format("2006-01-02 15:04:05"))
	}
	w.Flush()

	fmt.Printf("\nFound %d player(s)\n", len(players))
	return nil
}

func printGames(store *storage.Store, username, timeControl string) error {
	games, err := store.QueryGames(username, timeControl)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		fmt.Println("No games found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Player\tGame ID\tWhite\tBlack\tTC\tEnded")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, g := range games {
		ended := "-"
		if !g.EndTime.IsZero() {
			ended = g.EndTime.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			g.Username, g.GameID[:8]+"...", g.White, g.Black, g.TimeControl, ended)
	}
	w.Flush()

	fmt.Printf("\nFound %d game(s)\n", len(games))
	return nil
}

func runEvict(args []string) error {
	fs := flag.NewFlagSet("evict", flag.ContinueOnError)
	path := pathFlag(fs)
	username := fs.String("username", "", "Player to remove from the cache (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("username required")
	}

	store, err := openStore(*path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	if err := store.Delete(context.Background(), *username); err != nil {
		return fmt.Errorf("evict failed: %w", err)
	}
	fmt.Printf("Evicted %s\n", *username)
	return nil
}

// runToken issues a bearer token for the refresh endpoint
func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	configPath := fs.String("config", "", "Config file holding token_secret (optional)")
	subject := fs.String("subject", "admin", "Token subject")
	ttl := fs.Duration("ttl", 7*24*time.Hour, "Token lifetime")
	interactive := fs.Bool("interactive", false, "Prompt for the secret instead of reading the config")

	if err := fs.Parse(args); err != nil {
		return err
	}

	var secret []byte
	if *interactive {
		fmt.Print("Enter token secret: ")
		b, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read secret: %w", err)
		}
		secret = b
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		secret = []byte(cfg.TokenSecret)
	}
	if len(secret) < 32 {
		return fmt.Errorf("token secret must be at least 32 bytes")
	}

	token, err := auth.GenerateHS256Token(secret, *subject, map[string]any{"scope": "refresh"}, *ttl)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	fmt.Println(token)
	return nil
}

// runConfig writes the effective configuration to the XDG config location
func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	configPath := fs.String("config", "", "Config file to start from (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	path, err := cfg.Save()
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Printf("Config written to: %s\n", path)
	return nil
}
