package board

import (
	"fmt"

	"chess-analytica/internal/core"
)

func illegal(m Move, format string, args ...any) error {
	return fmt.Errorf("%w %s: %s", core.ErrIllegalMove, m, fmt.Sprintf(format, args...))
}

// rights lost when a piece leaves or is captured on a corner square
var cornerRights = map[Square]Castling{
	NewSquare(0, 0): WhiteQueenside,
	NewSquare(7, 0): WhiteKingside,
	NewSquare(0, 7): BlackQueenside,
	NewSquare(7, 7): BlackKingside,
}

// Apply plays m on p and returns the resulting position.
// Moves are trusted to be legal; only inconsistencies that would corrupt the
// board are rejected with ErrIllegalMove.
func Apply(p Position, m Move) (Position, error) {
	if m.From < 0 || m.From > 63 || m.To < 0 || m.To > 63 || m.From == m.To {
		return Position{}, illegal(m, "invalid squares")
	}

	piece := p.squares[m.From]
	if piece == NoPiece {
		return Position{}, illegal(m, "no piece on %s", m.From)
	}
	if piece.Color() != p.turn {
		return Position{}, illegal(m, "piece on %s does not belong to side to move", m.From)
	}

	captured := p.squares[m.To]
	if captured != NoPiece {
		if captured.Color() == p.turn {
			return Position{}, illegal(m, "%s is occupied by own piece", m.To)
		}
		if captured.Kind() == King {
			return Position{}, illegal(m, "king cannot be captured")
		}
	}

	next := p
	next.enPassant = NoSquare
	next.squares[m.From] = NoPiece
	placed := piece

	switch piece.Kind() {
	case Pawn:
		dir := 1
		lastRank := 7
		if p.turn == core.ColorBlack {
			dir = -1
			lastRank = 0
		}
		df := m.To.File() - m.From.File()
		dr := m.To.Rank() - m.From.Rank()

		switch {
		case df == 0 && dr == dir:
			if captured != NoPiece {
				return Position{}, illegal(m, "pawn push blocked")
			}
		case df == 0 && dr == 2*dir:
			if captured != NoPiece || p.squares[NewSquare(m.From.File(), m.From.Rank()+dir)] != NoPiece {
				return Position{}, illegal(m, "pawn push blocked")
			}
			next.enPassant = NewSquare(m.From.File(), m.From.Rank()+dir)
		case (df == 1 || df == -1) && dr == dir:
			if captured == NoPiece {
				if m.To != p.enPassant {
					return Position{}, illegal(m, "pawn capture on empty square")
				}
				victim := NewSquare(m.To.File(), m.From.Rank())
				if p.squares[victim] != NewPiece(Pawn, core.OppositeColor(p.turn)) {
					return Position{}, illegal(m, "no pawn to capture en passant")
				}
				next.squares[victim] = NoPiece
				captured = p.squares[victim]
			}
		default:
			return Position{}, illegal(m, "not a pawn move")
		}

		if m.To.Rank() == lastRank {
			switch m.Promotion {
			case Knight, Bishop, Rook, Queen:
				placed = NewPiece(m.Promotion, p.turn)
			default:
				return Position{}, illegal(m, "promotion piece required")
			}
		} else if m.Promotion != NoKind {
			return Position{}, illegal(m, "promotion before last rank")
		}

	case King:
		if m.Promotion != NoKind {
			return Position{}, illegal(m, "only pawns promote")
		}
		if err := castle(&next, p, m); err != nil {
			return Position{}, err
		}
		if p.turn == core.ColorWhite {
			next.castling &^= WhiteKingside | WhiteQueenside
		} else {
			next.castling &^= BlackKingside | BlackQueenside
		}

	default:
		if m.Promotion != NoKind {
			return Position{}, illegal(m, "only pawns promote")
		}
	}

	next.squares[m.To] = placed
	next.castling &^= cornerRights[m.From] | cornerRights[m.To]

	if piece.Kind() == Pawn || captured != NoPiece {
		next.halfmove = 0
	} else {
		next.halfmove++
	}
	if p.turn == core.ColorBlack {
		next.fullmove++
	}
	next.turn = core.OppositeColor(p.turn)

	return next, nil
}

// castle relocates the rook when the king moves two files along its home rank
func castle(next *Position, p Position, m Move) error {
	df := m.To.File() - m.From.File()
	if m.From.Rank() != m.To.Rank() || (df != 2 && df != -2) {
		return nil
	}

	home := 0
	if p.turn == core.ColorBlack {
		home = 7
	}
	if m.From != NewSquare(4, home) {
		return illegal(m, "king is not on its home square")
	}

	var right Castling
	var rookFrom, rookTo Square
	if df == 2 {
		rookFrom, rookTo = NewSquare(7, home), NewSquare(5, home)
		right = WhiteKingside
		if p.turn == core.ColorBlack {
			right = BlackKingside
		}
	} else {
		rookFrom, rookTo = NewSquare(0, home), NewSquare(3, home)
		right = WhiteQueenside
		if p.turn == core.ColorBlack {
			right = BlackQueenside
		}
	}

	if p.castling&right == 0 {
		return illegal(m, "castling right %s not available", right)
	}
	rook := NewPiece(Rook, p.turn)
	if p.squares[rookFrom] != rook {
		return illegal(m, "no rook on %s", rookFrom)
	}
	if p.squares[m.To] != NoPiece || p.squares[rookTo] != NoPiece {
		return illegal(m, "castling path occupied")
	}
	if df == -2 && p.squares[NewSquare(1, home)] != NoPiece {
		return illegal(m, "castling path occupied")
	}

	next.squares[rookFrom] = NoPiece
	next.squares[rookTo] = rook
	return nil
}
