// Package pgn turns PGN movetext into coordinate move lists for replay.
package pgn

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// Decoded is a PGN game reduced to what the replayer needs
type Decoded struct {
	StartFEN string
	Moves    []string // UCI coordinate notation
	Tags     map[string]string
}

// Tag returns a header value, empty if absent
func (d *Decoded) Tag(key string) string {
	return d.Tags[key]
}

// Decode parses a single PGN game. SAN moves are resolved against the running
// position so the result is a plain list of origin/destination moves.
func Decode(text string) (*Decoded, error) {
	return DecodeFrom(text, "")
}

// DecodeFrom is Decode for a game that may not start from the standard
// position. startFEN is used when the PGN carries no FEN tag of its own; a
// FEN tag in the headers always wins since the movetext was written from it.
func DecodeFrom(text, startFEN string) (*Decoded, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty PGN")
	}
	if startFEN != "" && !hasFENTag(text) {
		text = withSetup(text, startFEN)
	}

	pgnFunc, err := chess.PGN(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parsing PGN: %w", err)
	}
	g := chess.NewGame(pgnFunc)

	d := &Decoded{
		Tags: make(map[string]string),
	}
	for _, tp := range g.TagPairs() {
		d.Tags[tp.Key] = tp.Value
	}

	positions := g.Positions()
	if len(positions) == 0 {
		return nil, fmt.Errorf("PGN has no starting position")
	}
	d.StartFEN = positions[0].String()

	moves := g.Moves()
	d.Moves = make([]string, 0, len(moves))
	for _, m := range moves {
		d.Moves = append(d.Moves, m.String())
	}

	return d, nil
}

func hasFENTag(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "[FEN ") {
			return true
		}
	}
	return false
}

// withSetup puts SetUp and FEN headers in front of the existing tag section
func withSetup(text, fen string) string {
	header := fmt.Sprintf("[SetUp \"1\"]\n[FEN %q]\n", fen)
	if strings.HasPrefix(strings.TrimSpace(text), "[") {
		return header + strings.TrimLeft(text, " \t\r\n")
	}
	return header + "\n" + text
}
