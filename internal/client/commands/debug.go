package commands

import (
	"fmt"
	"os"
	"os/exec"

	"chess-analytica/internal/client/display"
	"chess-analytica/internal/client/session"
)

func (r *Registry) registerDebugCommands() {
	r.Register(&Command{
		Name:        "health",
		ShortName:   ".",
		Description: "Show cache and session state",
		Usage:       "health",
		Handler:     healthHandler,
	})

	r.Register(&Command{
		Name:        "clear",
		ShortName:   "-",
		Description: "Clear screen",
		Usage:       "clear",
		Handler:     clearHandler,
	})
}

func healthHandler(s *session.Session, args []string) error {
	out := s.Out
	fmt.Fprintf(out, "%sSession:%s\n", display.Cyan, display.Reset)
	fmt.Fprintf(out, "  Storage:  %s\n", s.Service.GetStorageHealth())
	fmt.Fprintf(out, "  Players:  %d loaded\n", len(s.Service.Players()))
	fmt.Fprintf(out, "  Workers:  %d\n", s.Service.Pool().Workers())
	fmt.Fprintf(out, "  Player:   %s\n", s.Username)
	fmt.Fprintf(out, "  Color:    %s\n", display.ColorName(s.Color))
	fmt.Fprintf(out, "  Filter:   %s\n", s.TimeControl)
	fmt.Fprintf(out, "  Position: %s\n", s.Position.FEN())
	return nil
}

func clearHandler(s *session.Session, args []string) error {
	cmd := exec.Command("clear")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}
