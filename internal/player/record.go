// Package player holds a fetched player's data and answers position queries over it.
package player

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"

	"chess-analytica/internal/analysis"
	"chess-analytica/internal/board"
	"chess-analytica/internal/chesscom"
	"chess-analytica/internal/core"
	"chess-analytica/internal/game"
	"chess-analytica/internal/timecontrol"
)

// Rejected is an upstream game record that could not be turned into a game
type Rejected struct {
	URL string `json:"url"`
	Err string `json:"error"`
}

// Options carries the shared collaborators of a Record
type Options struct {
	Classes timecontrol.Classes
	Pool    *analysis.Pool
}

// Record is everything known about one player. Archived games are analyzed;
// current games are kept for display only. A Record is read-only once built
// and is safe for concurrent queries.
type Record struct {
	Username  string
	Profile   *chesscom.Profile
	Stats     Stats
	Games     []*game.Game
	Current   []*game.Game
	Rejected  []Rejected
	FetchedAt time.Time

	folded  string
	classes timecontrol.Classes
	pool    *analysis.Pool
}

// Source is the raw upstream data a Record is built from
type Source struct {
	Username  string                 `json:"username"`
	Profile   *chesscom.Profile      `json:"profile,omitempty"`
	Stats     *chesscom.Stats        `json:"stats,omitempty"`
	Archived  []chesscom.Game        `json:"archived"`
	Current   []chesscom.CurrentGame `json:"current"`
	FetchedAt time.Time              `json:"fetchedAt"`
}

// Key is the case-folded form of a username, used for lookups and cache keys
func Key(username string) string {
	return cases.Fold().String(username)
}

// NewRecord converts upstream records into games. Records that fail to decode
// are listed in Rejected instead of failing the whole player.
func NewRecord(src Source, opts Options) *Record {
	r := &Record{
		Username:  src.Username,
		Profile:   src.Profile,
		Stats:     BuildStats(src.Stats),
		FetchedAt: src.FetchedAt,
		folded:    Key(src.Username),
		classes:   opts.Classes,
		pool:      opts.Pool,
	}
	if r.classes == nil {
		r.classes = timecontrol.Default()
	}

	r.Games = make([]*game.Game, 0, len(src.Archived))
	for _, raw := range src.Archived {
		g, err := FromArchive(raw)
		if err != nil {
			r.Rejected = append(r.Rejected, Rejected{URL: raw.URL, Err: err.Error()})
			continue
		}
		r.Games = append(r.Games, g)
	}
	for _, raw := range src.Current {
		g, err := FromCurrent(raw)
		if err != nil {
			r.Rejected = append(r.Rejected, Rejected{URL: raw.URL, Err: err.Error()})
			continue
		}
		r.Current = append(r.Current, g)
	}
	return r
}

// Query selects a position, the player's color and a time-control selector.
// A zero Color accepts either side, an empty TimeControl means all games.
type Query struct {
	Position    board.Position
	Color       core.Color
	TimeControl string
}

// Classes returns the time-control classes the record filters with
func (r *Record) Classes() timecontrol.Classes {
	return r.classes
}

// Filter returns the archived games matching a time-control selector
func (r *Record) Filter(selector string) []*game.Game {
	if selector == "" {
		selector = timecontrol.All
	}
	return r.classes.Filter(r.Games, selector)
}

// Game looks up an archived or current game by ID
func (r *Record) Game(id string) (*game.Game, bool) {
	for _, list := range [][]*game.Game{r.Games, r.Current} {
		for _, g := range list {
			if g.ID == id {
				return g, true
			}
		}
	}
	return nil, false
}

// PlaysAs reports whether the player had the given color in g
func (r *Record) PlaysAs(g *game.Game, color core.Color) bool {
	switch color {
	case core.ColorWhite:
		return Key(g.White) == r.folded
	case core.ColorBlack:
		return Key(g.Black) == r.folded
	default:
		return true
	}
}

// ColorIn returns the player's color in g, zero if the player is on neither side
func (r *Record) ColorIn(g *game.Game) core.Color {
	if r.PlaysAs(g, core.ColorWhite) {
		return core.ColorWhite
	}
	if r.PlaysAs(g, core.ColorBlack) {
		return core.ColorBlack
	}
	return 0
}

// GamesWithPosition returns the filtered games that reach q.Position, ignoring
// q.Color. Games that fail to replay are skipped and reported.
func (r *Record) GamesWithPosition(q Query) ([]*game.Game, []analysis.Skip) {
	q.Color = 0
	return r.GamesWithPositionAndColor(q)
}

// GamesWithPositionAndColor returns the filtered games that reach q.Position
// and in which the player had q.Color
func (r *Record) GamesWithPositionAndColor(q Query) ([]*game.Game, []analysis.Skip) {
	var (
		out   []*game.Game
		skips []analysis.Skip
	)
	for _, g := range r.Filter(q.TimeControl) {
		if !r.PlaysAs(g, q.Color) {
			continue
		}
		ok, err := g.ContainsPosition(q.Position)
		if err != nil {
			skips = append(skips, analysis.Skip{GameID: g.ID, Err: err})
			continue
		}
		if ok {
			out = append(out, g)
		}
	}
	return out, skips
}

// MovesAfter builds the frequency table of the player's next moves after q.Position
func (r *Record) MovesAfter(q Query) *analysis.Table {
	match := func(g *game.Game) bool { return r.PlaysAs(g, q.Color) }
	return analysis.MovesAfter(r.Filter(q.TimeControl), q.Position, match, analysis.Options{Pool: r.pool})
}

// MoveTable renders MovesAfter as "<move>: <count>" lines
func (r *Record) MoveTable(q Query) string {
	return r.MovesAfter(q).Format()
}

// MostCommonMove returns the most frequent move after q.Position. It fails with
// core.ErrNoMatchingGames when no game qualifies; found is false when games
// qualify but all of them end on the position.
func (r *Record) MostCommonMove(q Query) (move board.Move, found bool, err error) {
	t := r.MovesAfter(q)
	if t.NoMatches() {
		return board.Move{}, false, fmt.Errorf("%s at %s: %w", r.Username, q.Position.Key(), core.ErrNoMatchingGames)
	}
	move, found = t.MostCommon()
	return move, found, nil
}
