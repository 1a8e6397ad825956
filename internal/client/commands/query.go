package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"chess-analytica/internal/board"
	"chess-analytica/internal/client/display"
	"chess-analytica/internal/client/session"
	"chess-analytica/internal/core"
	"chess-analytica/internal/timecontrol"
)

func (r *Registry) registerQueryCommands() {
	r.Register(&Command{
		Name:        "position",
		ShortName:   "p",
		Description: "Set the query position",
		Usage:       "position <fen> | position start",
		Handler:     positionHandler,
	})

	r.Register(&Command{
		Name:        "play",
		ShortName:   "m",
		Description: "Apply moves to the query position",
		Usage:       "play <uci-move>...",
		Handler:     playHandler,
	})

	r.Register(&Command{
		Name:        "back",
		ShortName:   "u",
		Description: "Take back played moves",
		Usage:       "back [count]",
		Handler:     backHandler,
	})

	r.Register(&Command{
		Name:        "color",
		ShortName:   "c",
		Description: "Set the side the player had",
		Usage:       "color <w|b|any>",
		Handler:     colorHandler,
	})

	r.Register(&Command{
		Name:        "filter",
		ShortName:   "f",
		Description: "Set the time-control filter",
		Usage:       "filter <all|class|time-control>",
		Handler:     filterHandler,
	})

	r.Register(&Command{
		Name:        "board",
		ShortName:   "b",
		Description: "Show the query position",
		Usage:       "board",
		Handler:     boardHandler,
	})

	r.Register(&Command{
		Name:        "moves",
		ShortName:   "t",
		Description: "Show the move table for the query position",
		Usage:       "moves",
		Handler:     movesHandler,
	})

	r.Register(&Command{
		Name:        "common",
		ShortName:   "o",
		Description: "Show the player's most common move",
		Usage:       "common",
		Handler:     commonHandler,
	})
}

func positionHandler(s *session.Session, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: position <fen> | position start")
	}
	if len(args) == 1 && args[0] == "start" {
		s.SetPosition(board.StartingPosition())
		return boardHandler(s, nil)
	}

	p, err := board.ParseFEN(strings.Join(args, " "))
	if err != nil {
		return err
	}
	s.SetPosition(p)
	return boardHandler(s, nil)
}

func playHandler(s *session.Session, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: play <uci-move>...")
	}
	moves := make([]board.Move, 0, len(args))
	for _, a := range args {
		m, err := board.ParseMove(a)
		if err != nil {
			return err
		}
		moves = append(moves, m)
	}
	if err := s.Play(moves...); err != nil {
		return err
	}
	return boardHandler(s, nil)
}

func backHandler(s *session.Session, args []string) error {
	n := 1
	if len(args) > 0 {
		var err error
		n, err = strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid count: %s", args[0])
		}
	}
	undone, err := s.Back(n)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "Took back %d moves\n", undone)
	return boardHandler(s, nil)
}

func colorHandler(s *session.Session, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(s.Out, "Color: %s\n", display.ColorName(s.Color))
		return nil
	}
	switch args[0] {
	case "any", "either", "-":
		s.Color = 0
	default:
		c, ok := core.ParseColor(args[0])
		if !ok {
			return fmt.Errorf("invalid color: %s", args[0])
		}
		s.Color = c
	}
	fmt.Fprintf(s.Out, "Color: %s\n", display.ColorName(s.Color))
	return nil
}

func filterHandler(s *session.Session, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(s.Out, "Filter: %s\n", s.TimeControl)
		if rec, err := s.Record(); err == nil {
			for _, name := range rec.Classes().Names() {
				fmt.Fprintf(s.Out, "  %s%-8s%s %s\n", display.Cyan, name, display.Reset,
					strings.Join(rec.Classes()[name], " "))
			}
		}
		return nil
	}
	s.TimeControl = args[0]
	if s.TimeControl == "" {
		s.TimeControl = timecontrol.All
	}
	fmt.Fprintf(s.Out, "Filter: %s\n", s.TimeControl)
	return nil
}

func boardHandler(s *session.Session, args []string) error {
	out := s.Out
	display.RenderBoard(out, s.Position.ToASCII())
	fmt.Fprintf(out, "%s\n", s.Position.FEN())
	if len(s.Played) > 0 {
		played := make([]string, len(s.Played))
		for i, m := range s.Played {
			played[i] = m.String()
		}
		fmt.Fprintf(out, "Played: %s\n", strings.Join(played, " "))
	}
	return nil
}

func movesHandler(s *session.Session, args []string) error {
	rec, err := s.Record()
	if err != nil {
		return err
	}
	t := rec.MovesAfter(s.Query())

	out := s.Out
	fmt.Fprintf(out, "%s%s%s as %s, %s: %d games reached the position\n",
		display.Magenta, rec.Username, display.Reset, display.ColorName(s.Color), s.TimeControl, t.Matched)
	display.MoveTable(out, t.Format())
	if n := len(t.Skipped); n > 0 {
		fmt.Fprintf(out, "%s%d games skipped%s\n", display.Yellow, n, display.Reset)
		if s.Verbose {
			for _, sk := range t.Skipped {
				fmt.Fprintf(out, "  %s: %v\n", sk.GameID, sk.Err)
			}
		}
	}
	return nil
}

func commonHandler(s *session.Session, args []string) error {
	rec, err := s.Record()
	if err != nil {
		return err
	}
	m, found, err := rec.MostCommonMove(s.Query())
	if errors.Is(err, core.ErrNoMatchingGames) {
		fmt.Fprintln(s.Out, "No games reached the position")
		return nil
	}
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(s.Out, "Every matching game ended in the position")
		return nil
	}
	fmt.Fprintf(s.Out, "Most common: %s%s%s\n", display.Green, m, display.Reset)
	return nil
}
