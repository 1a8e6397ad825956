package game

import (
	"errors"
	"sync"
	"testing"

	"chess-analytica/internal/board"
	"chess-analytica/internal/core"
)

func newGame(t *testing.T, moves ...string) *Game {
	t.Helper()
	ms := make([]board.Move, 0, len(moves))
	for _, s := range moves {
		m, err := board.ParseMove(s)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", s, err)
		}
		ms = append(ms, m)
	}
	return New(Info{ID: "test", White: "alice", Black: "bob", TimeControl: "600"}, board.StartingPosition(), ms)
}

func mustFEN(t *testing.T, fen string) board.Position {
	t.Helper()
	p, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	return p
}

func TestZeroMoveGame(t *testing.T) {
	g := newGame(t)
	idx, err := g.Positions()
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if len(idx) != 1 {
		t.Fatalf("len(index) = %d, want 1", len(idx))
	}
	ok, err := g.ContainsPosition(g.Start())
	if err != nil || !ok {
		t.Errorf("ContainsPosition(start) = %v, %v; want true", ok, err)
	}
	if _, found, _ := g.NextMoveAfter(g.Start()); found {
		t.Error("NextMoveAfter on zero-move game should be absent")
	}
}

func TestPositionIndex(t *testing.T) {
	g := newGame(t, "e2e4", "e7e5", "g1f3")
	idx, err := g.Positions()
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if len(idx) != g.PlyCount()+1 {
		t.Fatalf("len(index) = %d, want %d", len(idx), g.PlyCount()+1)
	}
	if idx[0].PreviousMove != "" {
		t.Errorf("start snapshot has previous move %q", idx[0].PreviousMove)
	}
	if idx[3].PreviousMove != "g1f3" || idx[3].NextTurnColor != core.ColorBlack {
		t.Errorf("last snapshot = %+v", idx[3])
	}

	for _, s := range idx {
		p, err := board.ParseFEN(s.FEN)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", s.FEN, err)
		}
		if p.FEN() != s.FEN || p != s.Position {
			t.Errorf("round trip mismatch for %q", s.FEN)
		}
	}
}

func TestPositionIndexIdempotent(t *testing.T) {
	g := newGame(t, "d2d4", "d7d5", "c2c4")
	first, err := g.Positions()
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			again, err := g.Positions()
			if err != nil {
				t.Error(err)
				return
			}
			if len(again) != len(first) {
				t.Errorf("len = %d, want %d", len(again), len(first))
				return
			}
			for j := range again {
				if again[j].FEN != first[j].FEN {
					t.Errorf("snapshot %d differs", j)
				}
			}
		}()
	}
	wg.Wait()
}

func TestNextMoveAfterFirstOccurrence(t *testing.T) {
	// Knights out and back: the start position recurs after ply 4
	g := newGame(t, "g1f3", "g8f6", "f3g1", "f6g8", "e2e4")
	recurring := mustFEN(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 4 3")

	idx, err := g.Positions()
	if err != nil {
		t.Fatal(err)
	}
	if idx[4].Position.Key() != recurring.Key() {
		t.Fatalf("ply 4 = %q, expected a transposition to the start", idx[4].FEN)
	}

	m, ok, err := g.NextMoveAfter(recurring)
	if err != nil || !ok {
		t.Fatalf("NextMoveAfter = %v, %v, %v", m, ok, err)
	}
	if m.String() != "g1f3" {
		t.Errorf("NextMoveAfter = %s, want g1f3", m)
	}
}

func TestNextMoveAfterFinalPosition(t *testing.T) {
	g := newGame(t, "e2e4", "e7e5")
	final, err := g.FinalFEN()
	if err != nil {
		t.Fatal(err)
	}
	target := mustFEN(t, final)

	ok, err := g.ContainsPosition(target)
	if err != nil || !ok {
		t.Fatalf("ContainsPosition(final) = %v, %v", ok, err)
	}
	if _, found, _ := g.NextMoveAfter(target); found {
		t.Error("NextMoveAfter(final) should be absent")
	}
}

func TestNextMoveAfterUnreached(t *testing.T) {
	g := newGame(t, "e2e4")
	target := mustFEN(t, "rnbqkbnr/pppppppp/8/8/3P4/8/PPP1PPPP/RNBQKBNR b KQkq d3 0 1")
	ok, err := g.ContainsPosition(target)
	if err != nil || ok {
		t.Errorf("ContainsPosition = %v, %v; want false", ok, err)
	}
	if _, found, err := g.NextMoveAfter(target); found || err != nil {
		t.Errorf("NextMoveAfter found=%v err=%v", found, err)
	}
}

func TestContainsPositionWithoutEnPassantField(t *testing.T) {
	// The replayed ply 1 carries e3 in its FEN, a hand-written FEN usually does not
	g := newGame(t, "e2e4", "c7c5", "g1f3")
	target := mustFEN(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")

	ok, err := g.ContainsPosition(target)
	if err != nil || !ok {
		t.Fatalf("ContainsPosition = %v, %v; want true", ok, err)
	}
	m, found, err := g.NextMoveAfter(target)
	if err != nil || !found || m.String() != "c7c5" {
		t.Errorf("NextMoveAfter = %v, %v, %v; want c7c5", m, found, err)
	}

	// After c5 no white pawn stands beside c5, so c6 is dropped too
	afterC5 := mustFEN(t, "rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2")
	if m, found, _ := g.NextMoveAfter(afterC5); !found || m.String() != "g1f3" {
		t.Errorf("NextMoveAfter(after c5) = %v, %v; want g1f3", m, found)
	}
}

func TestEnPassantFieldMattersWhenCapturable(t *testing.T) {
	g := newGame(t, "e2e4", "a7a6", "e4e5", "d7d5", "e5d6")
	withTarget := mustFEN(t, "rnbqkbnr/1pp1pppp/p7/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3")
	withoutTarget := mustFEN(t, "rnbqkbnr/1pp1pppp/p7/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq - 0 3")

	m, found, err := g.NextMoveAfter(withTarget)
	if err != nil || !found || m.String() != "e5d6" {
		t.Errorf("NextMoveAfter(d6) = %v, %v, %v; want e5d6", m, found, err)
	}
	if ok, err := g.ContainsPosition(withoutTarget); err != nil || ok {
		t.Errorf("ContainsPosition without capture right = %v, %v; want false", ok, err)
	}
}

func TestIllegalMoveReported(t *testing.T) {
	g := newGame(t, "e2e4", "e2e4")
	if _, err := g.Positions(); !errors.Is(err, core.ErrIllegalMove) {
		t.Fatalf("err = %v, want ErrIllegalMove", err)
	}
	if _, err := g.ContainsPosition(g.Start()); !errors.Is(err, core.ErrIllegalMove) {
		t.Fatalf("ContainsPosition err = %v, want ErrIllegalMove", err)
	}
}
