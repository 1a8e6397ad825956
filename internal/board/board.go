package board

import (
	"fmt"
	"strconv"
	"strings"

	"chess-analytica/internal/core"
)

const (
	StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

// Position is an immutable board snapshot. Copying the value copies the board.
type Position struct {
	squares   [64]Piece
	turn      core.Color
	castling  Castling
	enPassant Square
	halfmove  int
	fullmove  int
}

// StartingPosition returns the standard initial position
func StartingPosition() Position {
	p, err := ParseFEN(StartingFEN)
	if err != nil {
		panic(err)
	}
	return p
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrMalformedNotation, fmt.Sprintf(format, args...))
}

// ParseFEN decodes a six-field FEN string
func ParseFEN(fen string) (Position, error) {
	parts := strings.Fields(fen)
	if len(parts) != 6 {
		return Position{}, malformed("expected 6 fields, got %d", len(parts))
	}

	p := Position{enPassant: NoSquare}

	ranks := strings.Split(parts[0], "/")
	if len(ranks) != 8 {
		return Position{}, malformed("expected 8 ranks, got %d", len(ranks))
	}

	for i, rank := range ranks {
		r := 7 - i
		file := 0
		for j := 0; j < len(rank); j++ {
			ch := rank[j]
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			if kindFromLetter(ch) == NoKind {
				return Position{}, malformed("unknown piece %q in rank %d", ch, r+1)
			}
			if file >= 8 {
				return Position{}, malformed("too many pieces in rank %d", r+1)
			}
			p.squares[NewSquare(file, r)] = Piece(ch)
			file++
		}
		if file != 8 {
			return Position{}, malformed("rank %d has %d files", r+1, file)
		}
	}

	switch parts[1] {
	case "w":
		p.turn = core.ColorWhite
	case "b":
		p.turn = core.ColorBlack
	default:
		return Position{}, malformed("side to move must be 'w' or 'b'")
	}

	if parts[2] != "-" {
		for i := 0; i < len(parts[2]); i++ {
			var right Castling
			switch parts[2][i] {
			case 'K':
				right = WhiteKingside
			case 'Q':
				right = WhiteQueenside
			case 'k':
				right = BlackKingside
			case 'q':
				right = BlackQueenside
			default:
				return Position{}, malformed("invalid castling rights %q", parts[2])
			}
			p.castling |= right
		}
	}

	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return Position{}, malformed("en passant: %v", err)
		}
		p.enPassant = sq
	}

	var err error
	if p.halfmove, err = strconv.Atoi(parts[4]); err != nil || p.halfmove < 0 {
		return Position{}, malformed("halfmove counter %q", parts[4])
	}
	if p.fullmove, err = strconv.Atoi(parts[5]); err != nil || p.fullmove < 0 {
		return Position{}, malformed("fullmove counter %q", parts[5])
	}

	return p, nil
}

// FEN encodes the position; inverse of ParseFEN for positions built by Apply
func (p Position) FEN() string {
	var sb strings.Builder
	for r := 7; r >= 0; r-- {
		empty := 0
		for f := 0; f < 8; f++ {
			pc := p.squares[NewSquare(f, r)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(byte(pc))
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r > 0 {
			sb.WriteByte('/')
		}
	}
	fmt.Fprintf(&sb, " %s %s %s %d %d", p.turn, p.castling, p.enPassant, p.halfmove, p.fullmove)
	return sb.String()
}

func (p Position) String() string {
	return p.FEN()
}

// Key is the FEN without move counters. Two positions with equal keys are the
// same position regardless of how many moves it took to reach them. The
// en passant square is kept only when a pawn of the side to move can take it.
func (p Position) Key() string {
	fields := strings.Fields(p.FEN())
	if !p.enPassantCapturable() {
		fields[3] = "-"
	}
	return strings.Join(fields[:4], " ")
}

// enPassantCapturable reports whether the side to move has a pawn beside the
// double-pushed pawn, on the rank it stands on
func (p Position) enPassantCapturable() bool {
	ep := p.enPassant
	if ep < 0 || ep > 63 {
		return false
	}

	rank := 4
	if p.turn == core.ColorBlack {
		rank = 3
	}
	if (p.turn == core.ColorWhite && ep.Rank() != 5) || (p.turn == core.ColorBlack && ep.Rank() != 2) {
		return false
	}

	pawn := NewPiece(Pawn, p.turn)
	for _, df := range [2]int{-1, 1} {
		f := ep.File() + df
		if f < 0 || f > 7 {
			continue
		}
		if p.squares[NewSquare(f, rank)] == pawn {
			return true
		}
	}
	return false
}

// ToASCII creates an ASCII representation of the board
func (p Position) ToASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")

	for r := 7; r >= 0; r-- {
		sb.WriteString(fmt.Sprintf("%d ", r+1))
		for f := 0; f < 8; f++ {
			piece := p.squares[NewSquare(f, r)]
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(fmt.Sprintf("%c ", piece))
			}
		}
		sb.WriteString(fmt.Sprintf(" %d\n", r+1))
	}
	sb.WriteString("  a b c d e f g h")

	return sb.String()
}

func (p Position) Turn() core.Color { return p.turn }
func (p Position) Castling() Castling { return p.castling }
func (p Position) EnPassant() Square { return p.enPassant }
func (p Position) Halfmove() int { return p.halfmove }
func (p Position) Fullmove() int { return p.fullmove }
func (p Position) PieceAt(sq Square) Piece {
	if sq < 0 || sq > 63 {
		return NoPiece
	}
	return p.squares[sq]
}
