package board

import (
	"fmt"

	"chess-analytica/internal/core"
)

// Kind is a piece type without color
type Kind byte

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindLetters = [...]byte{0, 'p', 'n', 'b', 'r', 'q', 'k'}

// Letter returns the lowercase FEN letter, 0 for NoKind
func (k Kind) Letter() byte {
	if int(k) >= len(kindLetters) {
		return 0
	}
	return kindLetters[k]
}

func kindFromLetter(ch byte) Kind {
	if ch >= 'A' && ch <= 'Z' {
		ch += 'a' - 'A'
	}
	for k, l := range kindLetters {
		if k > 0 && l == ch {
			return Kind(k)
		}
	}
	return NoKind
}

// Piece is stored as its FEN letter: uppercase white, lowercase black, 0 empty
type Piece byte

const NoPiece Piece = 0

func NewPiece(k Kind, c core.Color) Piece {
	l := k.Letter()
	if l == 0 {
		return NoPiece
	}
	if c == core.ColorWhite {
		l -= 'a' - 'A'
	}
	return Piece(l)
}

func (p Piece) Kind() Kind {
	if p == NoPiece {
		return NoKind
	}
	return kindFromLetter(byte(p))
}

func (p Piece) Color() core.Color {
	switch {
	case p >= 'A' && p <= 'Z':
		return core.ColorWhite
	case p >= 'a' && p <= 'z':
		return core.ColorBlack
	default:
		return 0
	}
}

// Square indexes the board as rank*8+file, a1 = 0, h8 = 63
type Square int8

const NoSquare Square = -1

func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

func (s Square) File() int { return int(s) % 8 }
func (s Square) Rank() int { return int(s) / 8 }

func (s Square) String() string {
	if s < 0 || s > 63 {
		return "-"
	}
	return string([]byte{'a' + byte(s.File()), '1' + byte(s.Rank())})
}

func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return NoSquare, fmt.Errorf("invalid square %q", s)
	}
	return NewSquare(int(s[0]-'a'), int(s[1]-'1')), nil
}

// Castling is a set of castling rights
type Castling byte

const (
	WhiteKingside Castling = 1 << iota
	WhiteQueenside
	BlackKingside
	BlackQueenside
)

func (c Castling) String() string {
	if c == 0 {
		return "-"
	}
	var b []byte
	if c&WhiteKingside != 0 {
		b = append(b, 'K')
	}
	if c&WhiteQueenside != 0 {
		b = append(b, 'Q')
	}
	if c&BlackKingside != 0 {
		b = append(b, 'k')
	}
	if c&BlackQueenside != 0 {
		b = append(b, 'q')
	}
	return string(b)
}
