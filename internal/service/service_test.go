package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"chess-analytica/internal/board"
	"chess-analytica/internal/chesscom"
	"chess-analytica/internal/core"
	"chess-analytica/internal/player"
	"chess-analytica/internal/storage"
)

type fakeFetcher struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (f *fakeFetcher) Profile(ctx context.Context, username string) (*chesscom.Profile, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &chesscom.Profile{Username: "alice", PlayerID: 1}, nil
}

func (f *fakeFetcher) Stats(ctx context.Context, username string) (*chesscom.Stats, error) {
	return &chesscom.Stats{}, nil
}

func (f *fakeFetcher) CurrentGames(ctx context.Context, username string) ([]chesscom.CurrentGame, error) {
	return nil, nil
}

func (f *fakeFetcher) ArchivedGames(ctx context.Context, username string) ([]chesscom.Game, error) {
	games := []chesscom.Game{
		{URL: "https://www.chess.com/game/live/1", PGN: "1. Nf3 d5 *", TimeControl: "600", Rules: "chess",
			White: chesscom.Side{Username: "alice"}, Black: chesscom.Side{Username: "bob"}},
		{URL: "https://www.chess.com/game/live/2", PGN: "1. Nf3 Nf6 *", TimeControl: "60", Rules: "chess",
			White: chesscom.Side{Username: "alice"}, Black: chesscom.Side{Username: "bob"}},
		{URL: "https://www.chess.com/game/live/3", PGN: "1. d4 d5 *", TimeControl: "180", Rules: "chess",
			White: chesscom.Side{Username: "alice"}, Black: chesscom.Side{Username: "bob"}},
	}
	return games, nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]*player.Source
}

func (m *memCache) Load(ctx context.Context, username string) (*player.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.entries[player.Key(username)]
	if !ok {
		return nil, core.ErrCacheMiss
	}
	return src, nil
}

func (m *memCache) Save(ctx context.Context, src *player.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[player.Key(src.Username)] = src
	return nil
}

func TestLoadFetchesThenCaches(t *testing.T) {
	fetcher := &fakeFetcher{}
	cache := &memCache{entries: make(map[string]*player.Source)}
	svc := New(fetcher, cache, player.Options{}, zerolog.Nop())
	ctx := context.Background()

	r, err := svc.Load(ctx, "Alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Username != "alice" || len(r.Games) != 3 {
		t.Errorf("record = %s with %d games", r.Username, len(r.Games))
	}
	if got := r.MoveTable(player.Query{Position: board.StartingPosition(), Color: core.ColorWhite}); got != "g1f3: 2\nd2d4: 1\n" {
		t.Errorf("MoveTable = %q", got)
	}

	// Second load is served from memory
	if _, err := svc.Load(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	if n := fetcher.calls.Load(); n != 1 {
		t.Errorf("fetches = %d, want 1", n)
	}

	// A fresh service finds the cached snapshot
	again := New(fetcher, cache, player.Options{}, zerolog.Nop())
	if _, err := again.Load(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	if n := fetcher.calls.Load(); n != 1 {
		t.Errorf("fetches after cache hit = %d, want 1", n)
	}
}

func TestRefreshCoalesces(t *testing.T) {
	fetcher := &fakeFetcher{delay: 50 * time.Millisecond}
	svc := New(fetcher, nil, player.Options{}, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Refresh(context.Background(), "alice"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if n := fetcher.calls.Load(); n < 1 || n > 2 {
		t.Errorf("fetches = %d, want concurrent refreshes to share one", n)
	}
	if svc.flights.InFlight() != 0 {
		t.Error("fetch registry not drained")
	}
}

func TestRecordNotLoaded(t *testing.T) {
	svc := New(&fakeFetcher{}, nil, player.Options{}, zerolog.Nop())
	if _, err := svc.Record("ghost"); !errors.Is(err, core.ErrPlayerNotLoaded) {
		t.Errorf("err = %v, want ErrPlayerNotLoaded", err)
	}
	if svc.GetStorageHealth() != "disabled" {
		t.Errorf("health = %q", svc.GetStorageHealth())
	}
}

func TestFetchErrorPropagates(t *testing.T) {
	upstream := &chesscom.APIError{Status: 404, Path: "/player/ghost"}
	svc := New(&fakeFetcher{err: upstream}, nil, player.Options{}, zerolog.Nop())

	_, err := svc.Load(context.Background(), "ghost")
	if !errors.Is(err, core.ErrPlayerNotFound) {
		t.Errorf("err = %v, want ErrPlayerNotFound", err)
	}
	if len(svc.Players()) != 0 {
		t.Error("failed fetch registered a player")
	}
}

func TestSQLiteCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := storage.NewStore(path, true, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.InitDB(); err != nil {
		t.Fatal(err)
	}

	fetcher := &fakeFetcher{}
	svc := New(fetcher, store, player.Options{}, zerolog.Nop())
	if _, err := svc.Refresh(context.Background(), "alice"); err != nil {
		t.Fatal(err)
	}
	if svc.GetStorageHealth() != "ok" {
		t.Errorf("health = %q", svc.GetStorageHealth())
	}
	// Shutdown drains the async writer
	if err := svc.Shutdown(time.Second); err != nil {
		t.Fatal(err)
	}

	reopened, err := storage.NewStore(path, true, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	svc2 := New(fetcher, reopened, player.Options{}, zerolog.Nop())
	defer svc2.Shutdown(time.Second)

	r, err := svc2.Load(context.Background(), "ALICE")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Games) != 3 || fetcher.calls.Load() != 1 {
		t.Errorf("games = %d, fetches = %d", len(r.Games), fetcher.calls.Load())
	}
}
