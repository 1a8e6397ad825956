// Package chesscom is a client for the chess.com published-data API.
package chesscom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"

	"chess-analytica/internal/core"
)

const DefaultBaseURL = "https://api.chess.com/pub"

// APIError is a non-2xx answer from upstream
type APIError struct {
	Status  int
	Path    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("chess.com %s: %d %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("chess.com %s: %d %s", e.Path, e.Status, http.StatusText(e.Status))
}

// Is maps upstream statuses onto core sentinels
func (e *APIError) Is(target error) bool {
	switch target {
	case core.ErrPlayerNotFound:
		return e.Status == http.StatusNotFound
	case core.ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	}
	return false
}

type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	logger     zerolog.Logger
}

func New(baseURL, userAgent string, timeout time.Duration, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: userAgent,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "chesscom").Logger(),
	}
}

// playerPath builds /player/{username}; upstream only accepts lower case names
func playerPath(username string, parts ...string) string {
	p := "/player/" + url.PathEscape(cases.Fold().String(username))
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// doRequest fetches a path relative to BaseURL, or an absolute URL as
// returned in archive listings, and decodes the JSON body into result
func (c *Client) doRequest(ctx context.Context, path string, result any) error {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = c.BaseURL + path
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", target).Msg("request failed")
		return fmt.Errorf("fetching %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s: %w", target, err)
	}

	c.logger.Debug().
		Str("url", target).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched")

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Path: path}
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil {
			apiErr.Message = errResp.Message
		}
		return apiErr
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("decoding %s: %w", target, err)
		}
	}
	return nil
}

func (c *Client) Profile(ctx context.Context, username string) (*Profile, error) {
	var resp Profile
	if err := c.doRequest(ctx, playerPath(username), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Stats(ctx context.Context, username string) (*Stats, error) {
	var resp Stats
	if err := c.doRequest(ctx, playerPath(username, "stats"), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CurrentGames returns the player's in-progress daily games
func (c *Client) CurrentGames(ctx context.Context, username string) ([]CurrentGame, error) {
	var resp currentGamesResponse
	if err := c.doRequest(ctx, playerPath(username, "games"), &resp); err != nil {
		return nil, err
	}
	return resp.Games, nil
}

// Archives returns the monthly archive URLs, oldest first
func (c *Client) Archives(ctx context.Context, username string) ([]string, error) {
	var resp archivesResponse
	if err := c.doRequest(ctx, playerPath(username, "games", "archives"), &resp); err != nil {
		return nil, err
	}
	return resp.Archives, nil
}

// ArchiveGames returns the games of one monthly archive
func (c *Client) ArchiveGames(ctx context.Context, archiveURL string) ([]Game, error) {
	var resp gamesResponse
	if err := c.doRequest(ctx, archiveURL, &resp); err != nil {
		return nil, err
	}
	return resp.Games, nil
}

// ArchivedGames walks every monthly archive and returns all games in
// archive order. A failing month aborts the walk.
func (c *Client) ArchivedGames(ctx context.Context, username string) ([]Game, error) {
	archives, err := c.Archives(ctx, username)
	if err != nil {
		return nil, err
	}

	var games []Game
	for _, month := range archives {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		monthGames, err := c.ArchiveGames(ctx, month)
		if err != nil {
			return nil, fmt.Errorf("archive %s: %w", month, err)
		}
		games = append(games, monthGames...)
	}

	c.logger.Info().
		Str("username", username).
		Int("archives", len(archives)).
		Int("games", len(games)).
		Msg("archives fetched")
	return games, nil
}

// IsNotFound reports whether err is an upstream 404
func IsNotFound(err error) bool {
	return errors.Is(err, core.ErrPlayerNotFound)
}
