package core

import "errors"

var (
	ErrMalformedNotation = errors.New("malformed position notation")
	ErrMalformedMove     = errors.New("malformed move")
	ErrIllegalMove       = errors.New("illegal move")
	ErrNoMatchingGames   = errors.New("no matching games")
	ErrCacheMiss         = errors.New("cache miss")
	ErrPlayerNotLoaded   = errors.New("player not loaded")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrRateLimited       = errors.New("rate limited by upstream")
)

// Error codes
const (
	ErrCodePlayerNotFound  = "PLAYER_NOT_FOUND"
	ErrCodeGameNotFound    = "GAME_NOT_FOUND"
	ErrCodeInvalidFEN      = "INVALID_FEN"
	ErrCodeNoMatchingGames = "NO_MATCHING_GAMES"
	ErrCodeUpstream        = "UPSTREAM_ERROR"
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	ErrCodeInvalidContent  = "INVALID_CONTENT_TYPE"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeInternalError   = "INTERNAL_ERROR"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
)
