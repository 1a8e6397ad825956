package game

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"chess-analytica/internal/board"
	"chess-analytica/internal/core"
)

// Snapshot is one entry of a game's position index
type Snapshot struct {
	FEN           string         `json:"fen"`
	PreviousMove  string         `json:"previousMove"` // Empty for the starting position
	NextTurnColor core.Color     `json:"nextTurnColor"`
	Position      board.Position `json:"-"`

	key string
}

// Info is the metadata carried by an archived game record
type Info struct {
	ID          string    `json:"id"`
	URL         string    `json:"url,omitempty"`
	White       string    `json:"white"`
	Black       string    `json:"black"`
	TimeControl string    `json:"timeControl"`
	TimeClass   string    `json:"timeClass,omitempty"`
	Result      string    `json:"result"`
	EndTime     time.Time `json:"endTime"`
}

// Game is an immutable ply list with a lazily built position index
type Game struct {
	Info
	start board.Position
	moves []board.Move

	once     sync.Once
	index    []Snapshot
	indexErr error
}

func New(info Info, start board.Position, moves []board.Move) *Game {
	return &Game{
		Info:  info,
		start: start,
		moves: slices.Clone(moves),
	}
}

func (g *Game) Start() board.Position {
	return g.start
}

func (g *Game) InitialFEN() string {
	return g.start.FEN()
}

func (g *Game) Moves() []board.Move {
	return slices.Clone(g.moves)
}

func (g *Game) PlyCount() int {
	return len(g.moves)
}

// Positions returns the position index, replaying the game on first use.
// A replay failure is remembered and returned on every call.
func (g *Game) Positions() ([]Snapshot, error) {
	g.once.Do(g.replay)
	if g.indexErr != nil {
		return nil, g.indexErr
	}
	return slices.Clone(g.index), nil
}

func (g *Game) replay() {
	index := make([]Snapshot, 0, len(g.moves)+1)
	pos := g.start
	index = append(index, Snapshot{
		FEN:           pos.FEN(),
		NextTurnColor: pos.Turn(),
		Position:      pos,
		key:           pos.Key(),
	})

	for ply, m := range g.moves {
		next, err := board.Apply(pos, m)
		if err != nil {
			g.indexErr = fmt.Errorf("game %s ply %d: %w", g.ID, ply+1, err)
			return
		}
		pos = next
		index = append(index, Snapshot{
			FEN:           pos.FEN(),
			PreviousMove:  m.String(),
			NextTurnColor: pos.Turn(),
			Position:      pos,
			key:           pos.Key(),
		})
	}
	g.index = index
}

// firstOccurrence returns the ply index of the first snapshot matching target, or -1
func (g *Game) firstOccurrence(target board.Position) (int, error) {
	g.once.Do(g.replay)
	if g.indexErr != nil {
		return -1, g.indexErr
	}
	key := target.Key()
	for i := range g.index {
		if g.index[i].key == key {
			return i, nil
		}
	}
	return -1, nil
}

// ContainsPosition reports whether the game ever reaches target, start and
// final position included. Positions compare by Key, move counters ignored.
func (g *Game) ContainsPosition(target board.Position) (bool, error) {
	i, err := g.firstOccurrence(target)
	if err != nil {
		return false, err
	}
	return i >= 0, nil
}

// NextMoveAfter returns the move played right after the first occurrence of target
func (g *Game) NextMoveAfter(target board.Position) (board.Move, bool, error) {
	i, err := g.firstOccurrence(target)
	if err != nil {
		return board.Move{}, false, err
	}
	if i < 0 || i >= len(g.moves) {
		return board.Move{}, false, nil
	}
	return g.moves[i], true, nil
}

// FinalFEN returns the last position of the game
func (g *Game) FinalFEN() (string, error) {
	g.once.Do(g.replay)
	if g.indexErr != nil {
		return "", g.indexErr
	}
	return g.index[len(g.index)-1].FEN, nil
}
