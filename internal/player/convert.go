package player

import (
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"chess-analytica/internal/board"
	"chess-analytica/internal/chesscom"
	"chess-analytica/internal/game"
	"chess-analytica/internal/pgn"
)

// Standard chess only; variants such as chess960 or bughouse are not replayable
const rulesChess = "chess"

// GameID derives a stable ID for an upstream game. The upstream uuid is used
// when present, otherwise a name-based uuid of the game URL.
func GameID(upstreamUUID, gameURL string) string {
	if id, err := uuid.Parse(upstreamUUID); err == nil {
		return id.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(gameURL)).String()
}

// FromArchive builds a replayable game from an archived record
func FromArchive(g chesscom.Game) (*game.Game, error) {
	if g.Rules != "" && g.Rules != rulesChess {
		return nil, fmt.Errorf("unsupported rules %q", g.Rules)
	}
	info := game.Info{
		ID:          GameID(g.UUID, g.URL),
		URL:         g.URL,
		White:       g.White.Username,
		Black:       g.Black.Username,
		TimeControl: g.TimeControl,
		TimeClass:   g.TimeClass,
	}
	if g.EndTime > 0 {
		info.EndTime = time.Unix(g.EndTime, 0).UTC()
	}
	return fromPGN(info, g.PGN, g.InitialSetup)
}

// FromCurrent builds a game from an in-progress record
func FromCurrent(g chesscom.CurrentGame) (*game.Game, error) {
	if g.Rules != "" && g.Rules != rulesChess {
		return nil, fmt.Errorf("unsupported rules %q", g.Rules)
	}
	info := game.Info{
		ID:          GameID("", g.URL),
		URL:         g.URL,
		White:       path.Base(g.White),
		Black:       path.Base(g.Black),
		TimeControl: g.TimeControl,
		TimeClass:   g.TimeClass,
		Result:      "*",
	}
	return fromPGN(info, g.PGN, "")
}

func fromPGN(info game.Info, text, initialSetup string) (*game.Game, error) {
	// initial_setup only fills in for a missing FEN header
	decoded, err := pgn.DecodeFrom(text, initialSetup)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", info.URL, err)
	}

	start, err := board.ParseFEN(decoded.StartFEN)
	if err != nil {
		return nil, fmt.Errorf("game %s start: %w", info.URL, err)
	}

	moves := make([]board.Move, 0, len(decoded.Moves))
	for i, s := range decoded.Moves {
		m, err := board.ParseMove(s)
		if err != nil {
			return nil, fmt.Errorf("game %s ply %d: %w", info.URL, i+1, err)
		}
		moves = append(moves, m)
	}

	if info.Result == "" {
		info.Result = decoded.Tag("Result")
	}
	if info.White == "" {
		info.White = decoded.Tag("White")
	}
	if info.Black == "" {
		info.Black = decoded.Tag("Black")
	}
	if info.TimeControl == "" {
		info.TimeControl = decoded.Tag("TimeControl")
	}
	return game.New(info, start, moves), nil
}
