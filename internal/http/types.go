package http

import (
	"time"

	"chess-analytica/internal/analysis"
	"chess-analytica/internal/chesscom"
	"chess-analytica/internal/game"
	"chess-analytica/internal/player"
)

type PlayerResponse struct {
	Username     string              `json:"username"`
	Profile      *chesscom.Profile   `json:"profile,omitempty"`
	Stats        player.Stats        `json:"stats"`
	Games        int                 `json:"games"`
	CurrentGames int                 `json:"currentGames"`
	Rejected     []player.Rejected   `json:"rejected,omitempty"`
	FetchedAt    time.Time           `json:"fetchedAt"`
	TimeControls map[string][]string `json:"timeControls"`
}

type GameSummary struct {
	game.Info
	Plies int    `json:"plies"`
	Color string `json:"color"` // Side the player had
}

type GameListResponse struct {
	Username    string        `json:"username"`
	TimeControl string        `json:"timeControl"`
	Games       []GameSummary `json:"games"`
	Current     []GameSummary `json:"current,omitempty"`
}

type GameDetailResponse struct {
	GameSummary
	InitialFEN string          `json:"initialFen"`
	Moves      []string        `json:"moves"`
	Positions  []game.Snapshot `json:"positions,omitempty"`
	Error      string          `json:"error,omitempty"` // Replay failure, positions omitted
}

type MoveCount struct {
	Move  string `json:"move"`
	Count int    `json:"count"`
}

type SkippedGame struct {
	GameID string `json:"gameId"`
	Error  string `json:"error"`
}

type MovesResponse struct {
	Username    string        `json:"username"`
	FEN         string        `json:"fen"`
	Color       string        `json:"color"`
	TimeControl string        `json:"timeControl"`
	Matched     int           `json:"matched"`
	Moves       []MoveCount   `json:"moves"`
	Table       string        `json:"table"`
	Skipped     []SkippedGame `json:"skipped,omitempty"`
}

type CommonMoveResponse struct {
	Username string  `json:"username"`
	FEN      string  `json:"fen"`
	Color    string  `json:"color"`
	Move     *string `json:"move"` // Null when every matching game ends on the position
	Count    int     `json:"count"`
	Matched  int     `json:"matched"`
}

func toMovesResponse(r *player.Record, fen, color, tc string, t *analysis.Table) MovesResponse {
	resp := MovesResponse{
		Username:    r.Username,
		FEN:         fen,
		Color:       color,
		TimeControl: tc,
		Matched:     t.Matched,
		Moves:       make([]MoveCount, 0, len(t.Entries)),
		Table:       t.Format(),
	}
	for _, e := range t.Entries {
		resp.Moves = append(resp.Moves, MoveCount{Move: e.Move.String(), Count: e.Count})
	}
	for _, s := range t.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedGame{GameID: s.GameID, Error: s.Err.Error()})
	}
	return resp
}
