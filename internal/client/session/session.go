// Package session holds the state of an interactive analytica session.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"chess-analytica/internal/board"
	"chess-analytica/internal/core"
	"chess-analytica/internal/player"
	"chess-analytica/internal/service"
	"chess-analytica/internal/timecontrol"
)

var ErrNoPlayer = errors.New("no player selected, use 'load <username>'")

type Session struct {
	Service *service.Service
	Out     io.Writer
	Timeout time.Duration
	Verbose bool

	Username    string
	Color       core.Color // Zero for either side
	TimeControl string

	// Position is Base with Played applied
	Base     board.Position
	Played   []board.Move
	Position board.Position
}

func New(svc *service.Service, out io.Writer) *Session {
	start := board.StartingPosition()
	return &Session{
		Service:     svc,
		Out:         out,
		Timeout:     2 * time.Minute,
		TimeControl: timecontrol.All,
		Base:        start,
		Position:    start,
	}
}

// Context bounds one command's upstream work
func (s *Session) Context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.Timeout)
}

// Record returns the selected player's loaded record
func (s *Session) Record() (*player.Record, error) {
	if s.Username == "" {
		return nil, ErrNoPlayer
	}
	return s.Service.Record(s.Username)
}

func (s *Session) Query() player.Query {
	return player.Query{
		Position:    s.Position,
		Color:       s.Color,
		TimeControl: s.TimeControl,
	}
}

// SetPosition replaces the base position and clears played moves
func (s *Session) SetPosition(p board.Position) {
	s.Base = p
	s.Played = nil
	s.Position = p
}

// Play applies moves to the current position, all or nothing
func (s *Session) Play(moves ...board.Move) error {
	p := s.Position
	for _, m := range moves {
		next, err := board.Apply(p, m)
		if err != nil {
			return err
		}
		p = next
	}
	s.Played = append(s.Played, moves...)
	s.Position = p
	return nil
}

// Back takes back up to n played moves and returns how many were undone.
// The kept moves are replayed from Base; if that fails the session is left
// as it was.
func (s *Session) Back(n int) (int, error) {
	if n > len(s.Played) {
		n = len(s.Played)
	}
	keep := s.Played[:len(s.Played)-n]
	p := s.Base
	for i, m := range keep {
		next, err := board.Apply(p, m)
		if err != nil {
			return 0, fmt.Errorf("replaying move %d (%s): %w", i+1, m, err)
		}
		p = next
	}
	s.Played = keep
	s.Position = p
	return n, nil
}
