package board

import (
	"fmt"

	"chess-analytica/internal/core"
)

// Move in coordinate notation, comparable with ==
type Move struct {
	From      Square
	To        Square
	Promotion Kind
}

// ParseMove decodes UCI coordinate notation: e2e4, e1g1, a7a8q
func ParseMove(s string) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return Move{}, fmt.Errorf("%w: %q must be 4 or 5 characters", core.ErrMalformedMove, s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %v", core.ErrMalformedMove, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %v", core.ErrMalformedMove, err)
	}

	m := Move{From: from, To: to}
	if len(s) == 5 {
		switch s[4] {
		case 'q', 'r', 'b', 'n':
			m.Promotion = kindFromLetter(s[4])
		default:
			return Move{}, fmt.Errorf("%w: invalid promotion %q", core.ErrMalformedMove, s[4])
		}
	}
	return m, nil
}

// MustParseMove panics on malformed input, for literals in tests and tables
func MustParseMove(s string) Move {
	m, err := ParseMove(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoKind {
		s += string(m.Promotion.Letter())
	}
	return s
}
