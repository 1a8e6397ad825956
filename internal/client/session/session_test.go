package session

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"chess-analytica/internal/board"
	"chess-analytica/internal/core"
	"chess-analytica/internal/player"
	"chess-analytica/internal/service"
)

func TestPlayAndBack(t *testing.T) {
	s := New(service.New(nil, nil, player.Options{}, zerolog.Nop()), &bytes.Buffer{})

	if err := s.Play(board.MustParseMove("e2e4"), board.MustParseMove("e7e5")); err != nil {
		t.Fatal(err)
	}
	after := s.Position.FEN()

	// All or nothing
	err := s.Play(board.MustParseMove("g1f3"), board.MustParseMove("g1f3"))
	if !errors.Is(err, core.ErrIllegalMove) {
		t.Errorf("err = %v, want ErrIllegalMove", err)
	}
	if s.Position.FEN() != after || len(s.Played) != 2 {
		t.Errorf("position changed by failed play: %s", s.Position.FEN())
	}

	if n, err := s.Back(5); err != nil || n != 2 {
		t.Errorf("Back(5) = %d, %v; want 2", n, err)
	}
	if s.Position.FEN() != board.StartingPosition().FEN() {
		t.Errorf("after back: %s", s.Position.FEN())
	}
}

func TestBackReplayFailure(t *testing.T) {
	s := New(service.New(nil, nil, player.Options{}, zerolog.Nop()), &bytes.Buffer{})
	if err := s.Play(board.MustParseMove("e2e4"), board.MustParseMove("e7e5"), board.MustParseMove("g1f3")); err != nil {
		t.Fatal(err)
	}
	before := s.Position.FEN()

	// A base that no longer fits the played moves
	empty, err := board.ParseFEN("4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	s.Base = empty

	n, err := s.Back(1)
	if !errors.Is(err, core.ErrIllegalMove) || n != 0 {
		t.Errorf("Back(1) = %d, %v; want ErrIllegalMove", n, err)
	}
	if s.Position.FEN() != before || len(s.Played) != 3 {
		t.Errorf("session changed by failed back: %s, %d moves", s.Position.FEN(), len(s.Played))
	}
}

func TestRecordRequiresPlayer(t *testing.T) {
	s := New(service.New(nil, nil, player.Options{}, zerolog.Nop()), &bytes.Buffer{})
	if _, err := s.Record(); !errors.Is(err, ErrNoPlayer) {
		t.Errorf("err = %v", err)
	}
	s.Username = "bob"
	if _, err := s.Record(); !errors.Is(err, core.ErrPlayerNotLoaded) {
		t.Errorf("err = %v", err)
	}
}

func TestQuery(t *testing.T) {
	s := New(service.New(nil, nil, player.Options{}, zerolog.Nop()), &bytes.Buffer{})
	s.Color = core.ColorBlack
	s.TimeControl = "blitz"
	q := s.Query()
	if q.Color != core.ColorBlack || q.TimeControl != "blitz" || q.Position.Key() != board.StartingPosition().Key() {
		t.Errorf("query = %+v", q)
	}
}
