package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chess-analytica/internal/analysis"
	"chess-analytica/internal/chesscom"
	"chess-analytica/internal/core"
	"chess-analytica/internal/player"
)

// Fetcher retrieves a player's data from upstream
type Fetcher interface {
	Profile(ctx context.Context, username string) (*chesscom.Profile, error)
	Stats(ctx context.Context, username string) (*chesscom.Stats, error)
	CurrentGames(ctx context.Context, username string) ([]chesscom.CurrentGame, error)
	ArchivedGames(ctx context.Context, username string) ([]chesscom.Game, error)
}

// Cache persists fetched snapshots. Load fails with core.ErrCacheMiss when
// nothing is stored for the player.
type Cache interface {
	Load(ctx context.Context, username string) (*player.Source, error)
	Save(ctx context.Context, src *player.Source) error
}

// queueSaver is implemented by caches with an async write path
type queueSaver interface {
	QueueSave(src *player.Source)
}

type healthReporter interface {
	IsHealthy() bool
}

// Service coordinates fetching, caching and the loaded player records
type Service struct {
	records map[string]*player.Record
	mu      sync.RWMutex
	flights *FetchRegistry
	fetcher Fetcher
	cache   Cache
	opts    player.Options
	logger  zerolog.Logger
	now     func() time.Time
}

// New creates a service. cache may be nil to always fetch.
func New(fetcher Fetcher, cache Cache, opts player.Options, logger zerolog.Logger) *Service {
	return &Service{
		records: make(map[string]*player.Record),
		flights: NewFetchRegistry(),
		fetcher: fetcher,
		cache:   cache,
		opts:    opts,
		logger:  logger.With().Str("component", "service").Logger(),
		now:     time.Now,
	}
}

// Load returns the player's record, trying memory, then the cache, then upstream
func (s *Service) Load(ctx context.Context, username string) (*player.Record, error) {
	if r, err := s.Record(username); err == nil {
		return r, nil
	}

	if s.cache != nil {
		src, err := s.cache.Load(ctx, username)
		switch {
		case err == nil:
			s.logger.Debug().Str("username", username).Time("fetched_at", src.FetchedAt).Msg("loaded from cache")
			return s.register(src), nil
		case errors.Is(err, core.ErrCacheMiss):
		default:
			// A broken cache should not block analysis
			s.logger.Warn().Err(err).Str("username", username).Msg("cache read failed")
		}
	}

	return s.Refresh(ctx, username)
}

// Refresh fetches the player from upstream, replacing any loaded record.
// Concurrent refreshes of one player share a single fetch.
func (s *Service) Refresh(ctx context.Context, username string) (*player.Record, error) {
	return s.flights.Do(ctx, player.Key(username), func() (*player.Record, error) {
		return s.fetch(ctx, username)
	})
}

func (s *Service) fetch(ctx context.Context, username string) (*player.Record, error) {
	start := s.now()

	profile, err := s.fetcher.Profile(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	stats, err := s.fetcher.Stats(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("fetching stats: %w", err)
	}
	current, err := s.fetcher.CurrentGames(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("fetching current games: %w", err)
	}
	archived, err := s.fetcher.ArchivedGames(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("fetching archives: %w", err)
	}

	src := &player.Source{
		Username:  username,
		Profile:   profile,
		Stats:     stats,
		Archived:  archived,
		Current:   current,
		FetchedAt: s.now().UTC(),
	}
	if profile != nil && profile.Username != "" {
		src.Username = profile.Username
	}

	s.store(ctx, src)
	r := s.register(src)

	s.logger.Info().
		Str("username", r.Username).
		Int("games", len(r.Games)).
		Int("current", len(r.Current)).
		Int("rejected", len(r.Rejected)).
		Dur("elapsed", s.now().Sub(start)).
		Msg("player refreshed")
	return r, nil
}

func (s *Service) store(ctx context.Context, src *player.Source) {
	if s.cache == nil {
		return
	}
	if q, ok := s.cache.(queueSaver); ok {
		q.QueueSave(src)
		return
	}
	if err := s.cache.Save(ctx, src); err != nil {
		s.logger.Warn().Err(err).Str("username", src.Username).Msg("cache write failed")
	}
}

func (s *Service) register(src *player.Source) *player.Record {
	r := player.NewRecord(*src, s.opts)
	for _, rej := range r.Rejected {
		s.logger.Debug().Str("username", r.Username).Str("url", rej.URL).Str("error", rej.Err).Msg("game rejected")
	}

	s.mu.Lock()
	s.records[player.Key(src.Username)] = r
	s.mu.Unlock()
	return r
}

// Record returns an already loaded record without any I/O
func (s *Service) Record(username string) (*player.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[player.Key(username)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", username, core.ErrPlayerNotLoaded)
	}
	return r, nil
}

// Players lists the loaded usernames in sorted order
func (s *Service) Players() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.records))
	for _, r := range s.records {
		names = append(names, r.Username)
	}
	sort.Strings(names)
	return names
}

// Evict drops a loaded record; the cache keeps its copy
func (s *Service) Evict(username string) {
	s.mu.Lock()
	delete(s.records, player.Key(username))
	s.mu.Unlock()
}

// GetStorageHealth returns the cache component status
func (s *Service) GetStorageHealth() string {
	if s.cache == nil {
		return "disabled"
	}
	if h, ok := s.cache.(healthReporter); ok && !h.IsHealthy() {
		return "degraded"
	}
	return "ok"
}

// Shutdown stops the scan pool and closes the cache
func (s *Service) Shutdown(timeout time.Duration) error {
	var errs []error

	if s.opts.Pool != nil {
		if err := s.opts.Pool.Shutdown(timeout); err != nil {
			errs = append(errs, fmt.Errorf("scan pool: %w", err))
		}
	}

	s.mu.Lock()
	s.records = make(map[string]*player.Record)
	s.mu.Unlock()

	if c, ok := s.cache.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cache: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Pool exposes the scan pool for callers that run their own tables
func (s *Service) Pool() *analysis.Pool {
	return s.opts.Pool
}
