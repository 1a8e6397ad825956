package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"chess-analytica/internal/client/display"
	"chess-analytica/internal/client/session"
	"chess-analytica/internal/export"
	"chess-analytica/internal/game"
	"chess-analytica/internal/player"
)

func (r *Registry) registerPlayerCommands() {
	r.Register(&Command{
		Name:        "load",
		ShortName:   "l",
		Description: "Load a player, from cache when available",
		Usage:       "load <username>",
		Handler:     loadHandler,
	})

	r.Register(&Command{
		Name:        "refresh",
		ShortName:   "r",
		Description: "Re-fetch a player from chess.com",
		Usage:       "refresh [username]",
		Handler:     refreshHandler,
	})

	r.Register(&Command{
		Name:        "players",
		ShortName:   "w",
		Description: "List loaded players",
		Usage:       "players",
		Handler:     playersHandler,
	})

	r.Register(&Command{
		Name:        "stats",
		ShortName:   "s",
		Description: "Show rating and win/loss/draw per category",
		Usage:       "stats",
		Handler:     statsHandler,
	})

	r.Register(&Command{
		Name:        "games",
		ShortName:   "g",
		Description: "List archived games under the current filter",
		Usage:       "games [timeControl]",
		Handler:     gamesHandler,
	})

	r.Register(&Command{
		Name:        "game",
		ShortName:   "i",
		Description: "Show one game's moves and final board",
		Usage:       "game <id-prefix>",
		Handler:     gameHandler,
	})

	r.Register(&Command{
		Name:        "export",
		ShortName:   "e",
		Description: "Export games under the current filter to parquet",
		Usage:       "export [path]",
		Handler:     exportHandler,
	})
}

func loadHandler(s *session.Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: load <username>")
	}
	ctx, cancel := s.Context()
	defer cancel()

	fmt.Fprintf(s.Out, "Loading %s...\n", args[0])
	rec, err := s.Service.Load(ctx, args[0])
	if err != nil {
		return err
	}
	s.Username = rec.Username
	printSummary(s, rec)
	return nil
}

func refreshHandler(s *session.Session, args []string) error {
	username := s.Username
	if len(args) > 0 {
		username = args[0]
	}
	if username == "" {
		return session.ErrNoPlayer
	}
	ctx, cancel := s.Context()
	defer cancel()

	fmt.Fprintf(s.Out, "Fetching %s...\n", username)
	rec, err := s.Service.Refresh(ctx, username)
	if err != nil {
		return err
	}
	s.Username = rec.Username
	printSummary(s, rec)
	return nil
}

func printSummary(s *session.Session, rec *player.Record) {
	out := s.Out
	fmt.Fprintf(out, "%sPlayer:%s %s%s%s\n", display.Cyan, display.Reset, display.Magenta, rec.Username, display.Reset)
	if rec.Profile != nil && rec.Profile.Name != "" {
		fmt.Fprintf(out, "  Name:     %s\n", rec.Profile.Name)
	}
	fmt.Fprintf(out, "  Archived: %d games\n", len(rec.Games))
	fmt.Fprintf(out, "  Current:  %d games\n", len(rec.Current))
	fmt.Fprintf(out, "  Fetched:  %s\n", rec.FetchedAt.Local().Format("2006-01-02 15:04:05"))
	if len(rec.Rejected) > 0 {
		fmt.Fprintf(out, "  %sRejected: %d records%s\n", display.Yellow, len(rec.Rejected), display.Reset)
		if s.Verbose {
			for _, rj := range rec.Rejected {
				fmt.Fprintf(out, "    %s: %s\n", rj.URL, rj.Err)
			}
		}
	}
}

func playersHandler(s *session.Session, args []string) error {
	names := s.Service.Players()
	if len(names) == 0 {
		fmt.Fprintln(s.Out, "No players loaded")
		return nil
	}
	for _, name := range names {
		marker := "  "
		if name == player.Key(s.Username) {
			marker = display.Green + "* " + display.Reset
		}
		fmt.Fprintf(s.Out, "%s%s\n", marker, name)
	}
	return nil
}

func statsHandler(s *session.Session, args []string) error {
	rec, err := s.Record()
	if err != nil {
		return err
	}
	categories := rec.Stats.Categories()
	if len(categories) == 0 {
		fmt.Fprintln(s.Out, "No rated categories")
		return nil
	}

	w := tabwriter.NewWriter(s.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tRATING\tPLAYED\tWON\tLOST\tDRAWN")
	for _, c := range categories {
		sm := c.Summary
		fmt.Fprintf(w, "%s\t%d\t%d\t%d (%.2f%%)\t%d (%.2f%%)\t%d (%.2f%%)\n",
			c.Name, sm.Rating, sm.Played,
			sm.Won, sm.PctWon, sm.Lost, sm.PctLost, sm.Drawn, sm.PctDrawn)
	}
	return w.Flush()
}

func gamesHandler(s *session.Session, args []string) error {
	rec, err := s.Record()
	if err != nil {
		return err
	}
	selector := s.TimeControl
	if len(args) > 0 {
		selector = args[0]
	}

	games := rec.Filter(selector)
	fmt.Fprintf(s.Out, "%d games (%s)\n", len(games), selector)
	if len(games) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(s.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHITE\tBLACK\tTC\tRESULT\tPLIES\tENDED")
	for _, g := range games {
		ended := "-"
		if !g.EndTime.IsZero() {
			ended = g.EndTime.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			g.ID[:8], g.White, g.Black, g.TimeControl, g.Result, g.PlyCount(), ended)
	}
	return w.Flush()
}

// findGame resolves a unique id prefix among archived and current games
func findGame(rec *player.Record, prefix string) (*game.Game, error) {
	var found *game.Game
	all := append(append([]*game.Game{}, rec.Games...), rec.Current...)
	for _, g := range all {
		if strings.HasPrefix(g.ID, prefix) {
			if found != nil {
				return nil, fmt.Errorf("ambiguous game id %q", prefix)
			}
			found = g
		}
	}
	if found == nil {
		return nil, fmt.Errorf("no game with id %q", prefix)
	}
	return found, nil
}

func gameHandler(s *session.Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: game <id-prefix>")
	}
	rec, err := s.Record()
	if err != nil {
		return err
	}
	g, err := findGame(rec, args[0])
	if err != nil {
		return err
	}

	out := s.Out
	fmt.Fprintf(out, "%s%s%s vs %s%s%s  %s  %s\n",
		display.Blue, g.White, display.Reset, display.Red, g.Black, display.Reset, g.TimeControl, g.Result)
	if g.URL != "" {
		fmt.Fprintf(out, "  %s\n", g.URL)
	}

	moves := g.Moves()
	var sb strings.Builder
	for i, m := range moves {
		if i%2 == 0 {
			fmt.Fprintf(&sb, "%d. ", i/2+1)
		}
		sb.WriteString(m.String())
		sb.WriteByte(' ')
	}
	fmt.Fprintf(out, "  %s\n", strings.TrimSpace(sb.String()))

	positions, err := g.Positions()
	if err != nil {
		return err
	}
	display.RenderBoard(out, positions[len(positions)-1].Position.ToASCII())
	if s.Verbose {
		fmt.Fprintf(out, "  %s\n", positions[len(positions)-1].FEN)
	}
	return nil
}

func exportHandler(s *session.Session, args []string) error {
	rec, err := s.Record()
	if err != nil {
		return err
	}
	path := player.Key(rec.Username) + ".parquet"
	if len(args) > 0 {
		path = args[0]
	}

	n, err := export.Player(path, rec, s.TimeControl)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "%sExported %d games to %s%s\n", display.Green, n, path, display.Reset)
	return nil
}
