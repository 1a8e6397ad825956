// Package analysis aggregates the moves played after a position across a game corpus.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"chess-analytica/internal/board"
	"chess-analytica/internal/game"
)

// Entry is one row of a move frequency table
type Entry struct {
	Move  board.Move
	Count int
}

// Skip records a game left out of a scan because it could not be replayed
type Skip struct {
	GameID string
	Err    error
}

// Table is the result of a frequency query. Matched counts games that passed
// the matcher and reached the target, including those that ended there.
type Table struct {
	Entries []Entry
	Matched int
	Skipped []Skip
}

// Matcher selects which games of the corpus qualify, nil accepts all
type Matcher func(*game.Game) bool

// Options tunes a scan. A nil Pool scans on the caller's goroutine.
type Options struct {
	Pool *Pool
}

// MovesAfter counts the move played right after the first occurrence of target
// in every qualifying game. Entries are ordered by descending count; equal
// counts keep the order in which the move was first seen walking the corpus.
// Games that fail to replay are listed in Skipped and do not abort the scan.
func MovesAfter(games []*game.Game, target board.Position, match Matcher, opts Options) *Table {
	selected := make([]*game.Game, 0, len(games))
	for _, g := range games {
		if match == nil || match(g) {
			selected = append(selected, g)
		}
	}

	var results []scanResult
	if opts.Pool != nil && opts.Pool.ctx.Err() == nil {
		if rs, err := opts.Pool.scan(selected, target); err == nil {
			results = rs
		}
	}
	if results == nil {
		results = make([]scanResult, len(selected))
		for i, g := range selected {
			results[i] = scanGame(i, g, target)
		}
	}

	return reduce(selected, results)
}

// reduce folds per-game results in corpus order
func reduce(games []*game.Game, results []scanResult) *Table {
	t := &Table{}
	counts := make(map[board.Move]int)
	var order []board.Move

	for i, r := range results {
		if r.err != nil {
			t.Skipped = append(t.Skipped, Skip{GameID: games[i].ID, Err: r.err})
			continue
		}
		if !r.contained {
			continue
		}
		t.Matched++
		if !r.hasMove {
			continue
		}
		if _, seen := counts[r.move]; !seen {
			order = append(order, r.move)
		}
		counts[r.move]++
	}

	t.Entries = make([]Entry, 0, len(order))
	for _, m := range order {
		t.Entries = append(t.Entries, Entry{Move: m, Count: counts[m]})
	}
	sort.SliceStable(t.Entries, func(i, j int) bool {
		return t.Entries[i].Count > t.Entries[j].Count
	})
	return t
}

// NoMatches reports that no game qualified at all, as opposed to qualifying
// games that all ended on the target position
func (t *Table) NoMatches() bool {
	return t.Matched == 0
}

// MostCommon returns the top entry's move, absent when the table is empty
func (t *Table) MostCommon() (board.Move, bool) {
	if len(t.Entries) == 0 {
		return board.Move{}, false
	}
	return t.Entries[0].Move, true
}

// Format renders one "<move>: <count>" line per entry
func (t *Table) Format() string {
	var sb strings.Builder
	for _, e := range t.Entries {
		fmt.Fprintf(&sb, "%s: %d\n", e.Move, e.Count)
	}
	return sb.String()
}
