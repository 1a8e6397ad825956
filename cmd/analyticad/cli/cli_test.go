package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"chess-analytica/internal/chesscom"
	"chess-analytica/internal/player"
	"chess-analytica/internal/storage"
)

func TestDatabaseLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	if err := Run([]string{"init", "-path", path}); err != nil {
		t.Fatalf("init: %v", err)
	}

	store, err := storage.NewStore(path, false, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	src := &player.Source{
		Username:  "alice",
		FetchedAt: time.Now(),
		Archived: []chesscom.Game{{
			URL: "https://www.chess.com/game/live/1", PGN: "1. e4 *", TimeControl: "600", Rules: "chess",
			White: chesscom.Side{Username: "alice"}, Black: chesscom.Side{Username: "bob"},
		}},
	}
	if err := store.Save(context.Background(), src); err != nil {
		t.Fatal(err)
	}
	store.Close()

	for _, args := range [][]string{
		{"query", "-path", path},
		{"query", "-path", path, "-games", "-username", "alice"},
		{"query", "-path", path, "-games", "-timeControl", "60"},
		{"evict", "-path", path, "-username", "alice"},
	} {
		if err := Run(args); err != nil {
			t.Errorf("%v: %v", args, err)
		}
	}

	store, err = storage.NewStore(path, false, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	players, err := store.QueryPlayers("*")
	store.Close()
	if err != nil || len(players) != 0 {
		t.Errorf("players after evict = %v, %v", players, err)
	}

	if err := Run([]string{"delete", "-path", path}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("database file still present: %v", err)
	}
}

func TestRunErrors(t *testing.T) {
	tests := [][]string{
		{},
		{"bogus"},
		{"evict", "-path", filepath.Join(t.TempDir(), "x.db")},
		{"init", "-path", ""},
	}
	for _, args := range tests {
		if err := Run(args); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestToken(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")

	write := func(secret string) {
		body := `{"cache":"none","token_secret":"` + secret + `"}`
		if err := os.WriteFile(cfgPath, []byte(body), 0600); err != nil {
			t.Fatal(err)
		}
	}

	write("short")
	if err := Run([]string{"token", "-config", cfgPath}); err == nil {
		t.Error("short secret accepted")
	}

	write("0123456789abcdef0123456789abcdef")
	if err := Run([]string{"token", "-config", cfgPath, "-subject", "ops", "-ttl", "1h"}); err != nil {
		t.Errorf("token: %v", err)
	}
}
