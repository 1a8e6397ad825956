// Package storage caches fetched player data in SQLite or Redis.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"chess-analytica/internal/chesscom"
	"chess-analytica/internal/codec"
	"chess-analytica/internal/core"
	"chess-analytica/internal/player"
)

// Store handles SQLite database operations with async writes
type Store struct {
	db           *sql.DB
	path         string
	codec        *codec.Codec
	logger       zerolog.Logger
	writeChan    chan func(*sql.Tx) error
	healthStatus atomic.Bool
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	closeOnce    sync.Once
}

// NewStore opens the database and starts the async writer
func NewStore(dataSourceName string, devMode bool, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets the CLI read while a server writes
	if devMode {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Single connection keeps the foreign_keys pragma in force
	db.SetMaxOpenConns(1)

	c, err := codec.New()
	if err != nil {
		db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Store{
		db:        db,
		path:      dataSourceName,
		codec:     c,
		logger:    logger.With().Str("component", "sqlite").Logger(),
		writeChan: make(chan func(*sql.Tx) error, 64),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.healthStatus.Store(true)

	s.wg.Add(1)
	go s.writerLoop()

	return s, nil
}

// writerLoop processes async write operations
func (s *Store) writerLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			// Drain what is already queued, then stop
			for {
				select {
				case fn := <-s.writeChan:
					if s.healthStatus.Load() {
						s.executeWrite(fn)
					}
				default:
					return
				}
			}

		case fn := <-s.writeChan:
			if !s.healthStatus.Load() {
				continue
			}
			s.executeWrite(fn)
		}
	}
}

// executeWrite runs a transactional write, marking the store degraded on failure
func (s *Store) executeWrite(fn func(*sql.Tx) error) {
	tx, err := s.db.Begin()
	if err != nil {
		s.logger.Error().Err(err).Msg("storage degraded: failed to begin transaction")
		s.healthStatus.Store(false)
		return
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		s.logger.Error().Err(err).Msg("storage degraded: write operation failed")
		s.healthStatus.Store(false)
		return
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error().Err(err).Msg("storage degraded: failed to commit")
		s.healthStatus.Store(false)
	}
}

// IsHealthy returns the current health status
func (s *Store) IsHealthy() bool {
	return s.healthStatus.Load()
}

// Close drains the writer and closes the database
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.logger.Warn().Msg("storage writer shutdown timeout, some writes may be lost")
		}

		s.codec.Close()
		err = s.db.Close()
	})
	return err
}

// InitDB creates the database schema
func (s *Store) InitDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return tx.Commit()
}

// DeleteDB closes the store and removes the database file
func (s *Store) DeleteDB() error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete database file: %w", err)
	}
	return nil
}

// Save writes a player snapshot synchronously, replacing any previous one
func (s *Store) Save(ctx context.Context, src *player.Source) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.writePlayer(tx, src); err != nil {
		return err
	}
	return tx.Commit()
}

// QueueSave hands a snapshot to the async writer. Writes are dropped when the
// store is degraded or the queue is full; the next refresh will retry.
func (s *Store) QueueSave(src *player.Source) {
	if !s.healthStatus.Load() {
		return
	}

	select {
	case s.writeChan <- func(tx *sql.Tx) error { return s.writePlayer(tx, src) }:
	default:
		s.logger.Warn().Str("username", src.Username).Msg("storage write queue full, dropping player snapshot")
	}
}

func (s *Store) writePlayer(tx *sql.Tx, src *player.Source) error {
	key := player.Key(src.Username)

	profile, err := s.pack(src.Profile)
	if err != nil {
		return err
	}
	stats, err := s.pack(src.Stats)
	if err != nil {
		return err
	}
	current, err := s.pack(src.Current)
	if err != nil {
		return err
	}

	// Replacing the player row cascades to its games
	if _, err := tx.Exec(`DELETE FROM players WHERE username = ?`, key); err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	_, err = tx.Exec(`INSERT INTO players (username, display_name, fetched_at, profile, stats, current_games)
		VALUES (?, ?, ?, ?, ?, ?)`,
		key, src.Username, src.FetchedAt.UTC(), profile, stats, current)
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO games (
		username, game_id, seq, url, white, black, time_control, time_class, end_time, payload
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare game insert: %w", err)
	}
	defer stmt.Close()

	for i, g := range src.Archived {
		payload, err := s.pack(g)
		if err != nil {
			return err
		}
		var endTime sql.NullTime
		if g.EndTime > 0 {
			endTime = sql.NullTime{Time: time.Unix(g.EndTime, 0).UTC(), Valid: true}
		}
		_, err = stmt.Exec(key, player.GameID(g.UUID, g.URL), i, g.URL,
			g.White.Username, g.Black.Username, g.TimeControl, g.TimeClass, endTime, payload)
		if err != nil {
			return fmt.Errorf("insert game %s: %w", g.URL, err)
		}
	}
	return nil
}

// Load reads a player snapshot, failing with core.ErrCacheMiss when absent
func (s *Store) Load(ctx context.Context, username string) (*player.Source, error) {
	key := player.Key(username)
	src := &player.Source{}

	var profile, stats, current []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT display_name, fetched_at, profile, stats, current_games FROM players WHERE username = ?`, key,
	).Scan(&src.Username, &src.FetchedAt, &profile, &stats, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", username, core.ErrCacheMiss)
	}
	if err != nil {
		return nil, fmt.Errorf("query player: %w", err)
	}

	if err := s.unpack(profile, &src.Profile); err != nil {
		return nil, err
	}
	if err := s.unpack(stats, &src.Stats); err != nil {
		return nil, err
	}
	if err := s.unpack(current, &src.Current); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM games WHERE username = ? ORDER BY seq`, key)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		var g chesscom.Game
		if err := s.unpack(payload, &g); err != nil {
			return nil, err
		}
		src.Archived = append(src.Archived, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return src, nil
}

// Delete removes a player and its games
func (s *Store) Delete(ctx context.Context, username string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE username = ?`, player.Key(username))
	return err
}

// QueryPlayers lists cached players, all of them for "" or "*"
func (s *Store) QueryPlayers(username string) ([]PlayerRow, error) {
	query := `SELECT p.username, p.display_name, p.fetched_at, COUNT(g.game_id)
		FROM players p LEFT JOIN games g ON g.username = p.username WHERE 1=1`

	var args []any
	if username != "" && username != "*" {
		query += " AND p.username = ?"
		args = append(args, player.Key(username))
	}
	query += " GROUP BY p.username ORDER BY p.fetched_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var players []PlayerRow
	for rows.Next() {
		var p PlayerRow
		if err := rows.Scan(&p.Username, &p.DisplayName, &p.FetchedAt, &p.GameCount); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return players, nil
}

// QueryGames lists cached games with optional player and time-control filters
func (s *Store) QueryGames(username, timeControl string) ([]GameRow, error) {
	query := `SELECT username, game_id, seq, url, white, black, time_control, time_class, end_time
		FROM games WHERE 1=1`

	var args []any
	if username != "" && username != "*" {
		query += " AND username = ?"
		args = append(args, player.Key(username))
	}
	if timeControl != "" && timeControl != "*" {
		query += " AND time_control = ?"
		args = append(args, timeControl)
	}
	query += " ORDER BY username, seq"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var games []GameRow
	for rows.Next() {
		var g GameRow
		var endTime sql.NullTime
		err := rows.Scan(&g.Username, &g.GameID, &g.Seq, &g.URL, &g.White, &g.Black,
			&g.TimeControl, &g.TimeClass, &endTime)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		g.EndTime = endTime.Time
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return games, nil
}

// pack encodes v as compressed JSON
func (s *Store) pack(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return s.codec.Compress(data), nil
}

func (s *Store) unpack(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	raw, err := s.codec.Decompress(data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
