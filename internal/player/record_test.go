package player

import (
	"errors"
	"strings"
	"testing"

	"chess-analytica/internal/board"
	"chess-analytica/internal/chesscom"
	"chess-analytica/internal/core"
	"chess-analytica/internal/game"
)

func archived(url, white, black, tc, movetext string) chesscom.Game {
	return chesscom.Game{
		URL:         url,
		PGN:         "[White \"" + white + "\"]\n[Black \"" + black + "\"]\n[Result \"*\"]\n\n" + movetext + " *\n",
		TimeControl: tc,
		Rules:       "chess",
		White:       chesscom.Side{Username: white},
		Black:       chesscom.Side{Username: black},
	}
}

func testRecord(t *testing.T) *Record {
	t.Helper()
	src := Source{
		Username: "Alice",
		Archived: []chesscom.Game{
			archived("https://www.chess.com/game/live/1", "alice", "bob", "600", "1. Nf3 d5"),
			archived("https://www.chess.com/game/live/2", "Alice", "carol", "60", "1. Nf3 Nf6"),
			archived("https://www.chess.com/game/live/3", "alice", "dave", "180", "1. d4 d5"),
			archived("https://www.chess.com/game/live/4", "erin", "alice", "600", "1. e4 c5"),
			archived("https://www.chess.com/game/live/5", "alice", "bob", "600", "1. e4 zz9"),
			{URL: "https://www.chess.com/game/live/6", Rules: "chess960", PGN: "1. e4 *"},
		},
		Current: []chesscom.CurrentGame{{
			URL:         "https://www.chess.com/game/daily/7",
			PGN:         "1. e4 e5 *",
			TimeControl: "1/86400",
			Rules:       "chess",
			White:       "https://api.chess.com/pub/player/alice",
			Black:       "https://api.chess.com/pub/player/bob",
		}},
	}
	return NewRecord(src, Options{})
}

func TestNewRecord(t *testing.T) {
	r := testRecord(t)
	if len(r.Games) != 4 {
		t.Fatalf("len(Games) = %d, want 4", len(r.Games))
	}
	if len(r.Rejected) != 2 {
		t.Fatalf("Rejected = %+v, want 2 entries", r.Rejected)
	}
	if len(r.Current) != 1 || r.Current[0].White != "alice" || r.Current[0].PlyCount() != 2 {
		t.Errorf("current = %+v", r.Current)
	}

	id := r.Games[0].ID
	if id != GameID("", "https://www.chess.com/game/live/1") {
		t.Errorf("ID %q is not derived from the URL", id)
	}
	if g, ok := r.Game(id); !ok || g != r.Games[0] {
		t.Error("Game lookup failed")
	}
}

func TestMovesAfterScenario(t *testing.T) {
	r := testRecord(t)
	q := Query{Position: board.StartingPosition(), Color: core.ColorWhite}

	if got := r.MoveTable(q); got != "g1f3: 2\nd2d4: 1\n" {
		t.Errorf("MoveTable = %q", got)
	}
	m, found, err := r.MostCommonMove(q)
	if err != nil || !found || m.String() != "g1f3" {
		t.Errorf("MostCommonMove = %v, %v, %v", m, found, err)
	}

	q.Color = core.ColorBlack
	if got := r.MoveTable(q); got != "e2e4: 1\n" {
		t.Errorf("black MoveTable = %q", got)
	}
}

func TestQueryTimeControl(t *testing.T) {
	r := testRecord(t)
	q := Query{Position: board.StartingPosition(), Color: core.ColorWhite, TimeControl: "bullet"}
	if got := r.MoveTable(q); got != "g1f3: 1\n" {
		t.Errorf("bullet MoveTable = %q", got)
	}

	// The query does not change what the next one sees
	q.TimeControl = ""
	if got := r.MoveTable(q); got != "g1f3: 2\nd2d4: 1\n" {
		t.Errorf("all MoveTable = %q", got)
	}

	if n := len(r.Filter("rapid")); n != 2 {
		t.Errorf("rapid games = %d, want 2", n)
	}
	if n := len(r.Filter("classical")); n != 0 {
		t.Errorf("unknown class selected %d games", n)
	}
}

func TestMostCommonMoveNoMatches(t *testing.T) {
	r := testRecord(t)
	target, err := board.ParseFEN("8/8/8/4k3/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	_, found, err := r.MostCommonMove(Query{Position: target, Color: core.ColorWhite})
	if !errors.Is(err, core.ErrNoMatchingGames) || found {
		t.Errorf("err = %v, found = %v", err, found)
	}
	if r.MoveTable(Query{Position: target}) != "" {
		t.Error("MoveTable should be empty")
	}
}

func TestGamesWithPosition(t *testing.T) {
	r := testRecord(t)
	afterD4, err := board.ParseFEN("rnbqkbnr/pppppppp/8/8/3P4/8/PPP1PPPP/RNBQKBNR b KQkq d3 0 1")
	if err != nil {
		t.Fatal(err)
	}

	games, skips := r.GamesWithPosition(Query{Position: board.StartingPosition(), Color: core.ColorBlack})
	if len(games) != 4 || len(skips) != 0 {
		t.Errorf("start: %d games, %d skips", len(games), len(skips))
	}
	games, _ = r.GamesWithPositionAndColor(Query{Position: afterD4, Color: core.ColorWhite})
	if len(games) != 1 || !strings.HasSuffix(games[0].URL, "/3") {
		t.Errorf("after d4: %v", games)
	}
	games, _ = r.GamesWithPositionAndColor(Query{Position: afterD4, Color: core.ColorBlack})
	if len(games) != 0 {
		t.Errorf("after d4 as black: %d games", len(games))
	}
}

func TestCorruptGameSkipped(t *testing.T) {
	r := testRecord(t)
	bad := game.New(game.Info{ID: "corrupt", White: "alice", TimeControl: "600"},
		board.StartingPosition(), []board.Move{board.MustParseMove("e2e5")})
	r.Games = append(r.Games, bad)

	q := Query{Position: board.StartingPosition(), Color: core.ColorWhite}
	table := r.MovesAfter(q)
	if table.Format() != "g1f3: 2\nd2d4: 1\n" {
		t.Errorf("Format = %q", table.Format())
	}
	if len(table.Skipped) != 1 || table.Skipped[0].GameID != "corrupt" {
		t.Errorf("Skipped = %+v", table.Skipped)
	}
	if _, skips := r.GamesWithPosition(q); len(skips) != 1 {
		t.Errorf("GamesWithPosition skips = %d", len(skips))
	}
}

func TestColorIn(t *testing.T) {
	r := testRecord(t)
	if r.ColorIn(r.Games[1]) != core.ColorWhite {
		t.Error("case-insensitive white match failed")
	}
	if r.ColorIn(r.Games[3]) != core.ColorBlack {
		t.Error("black match failed")
	}
}

const endgameStart = "8/8/8/4k3/8/8/4P3/4K3 w - - 0 1"

func TestFromArchiveChessComPGN(t *testing.T) {
	g, err := FromArchive(chesscom.Game{
		URL:          "https://www.chess.com/game/live/100",
		TimeControl:  "600",
		TimeClass:    "rapid",
		Rules:        "chess",
		InitialSetup: board.StartingFEN,
		White:        chesscom.Side{Username: "alice", Result: "win"},
		Black:        chesscom.Side{Username: "bob", Result: "checkmated"},
		PGN: "[Event \"Live Chess\"]\n[Site \"Chess.com\"]\n[White \"alice\"]\n[Black \"bob\"]\n[Result \"1-0\"]\n" +
			"[CurrentPosition \"rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2\"]\n" +
			"[TimeControl \"600\"]\n[Link \"https://www.chess.com/game/live/100\"]\n\n" +
			"1. e4 {[%clk 0:09:58.4]} 1... e5 {[%clk 0:09:57.1]} 2. Nf3 {[%clk 0:09:55]} 1-0\n",
	})
	if err != nil {
		t.Fatalf("FromArchive: %v", err)
	}
	if g.PlyCount() != 3 || g.Result != "1-0" {
		t.Fatalf("plies = %d, result = %q", g.PlyCount(), g.Result)
	}
	final, err := g.FinalFEN()
	if err != nil {
		t.Fatal(err)
	}
	if final != "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2" {
		t.Errorf("final = %q", final)
	}
}

func TestFromArchiveCustomStart(t *testing.T) {
	start, err := board.ParseFEN(endgameStart)
	if err != nil {
		t.Fatal(err)
	}
	afterKd2, err := board.ParseFEN("8/8/8/4k3/8/8/3KP3/8 b - - 1 1")
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string]chesscom.Game{
		"initial_setup": {
			URL: "https://www.chess.com/game/live/200", Rules: "chess", InitialSetup: endgameStart,
			PGN: "[Result \"*\"]\n\n1. Kd2 {[%clk 0:04:59]} 1... Kd4 2. Kc2 Ke4 *\n",
		},
		"SetUp header": {
			URL: "https://www.chess.com/game/live/201", Rules: "chess",
			PGN: "[SetUp \"1\"]\n[FEN \"" + endgameStart + "\"]\n[Result \"*\"]\n\n1. Kd2 Kd4 2. Kc2 Ke4 *\n",
		},
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			g, err := FromArchive(src)
			if err != nil {
				t.Fatalf("FromArchive: %v", err)
			}
			if g.Start().Key() != start.Key() {
				t.Fatalf("start = %q, want %q", g.Start().FEN(), endgameStart)
			}
			if g.PlyCount() != 4 {
				t.Fatalf("plies = %d, want 4", g.PlyCount())
			}

			m, found, err := g.NextMoveAfter(start)
			if err != nil || !found || m.String() != "e1d2" {
				t.Errorf("NextMoveAfter(start) = %v, %v, %v; want e1d2", m, found, err)
			}
			m, found, err = g.NextMoveAfter(afterKd2)
			if err != nil || !found || m.String() != "e5d4" {
				t.Errorf("NextMoveAfter(Kd2) = %v, %v, %v; want e5d4", m, found, err)
			}
			if ok, _ := g.ContainsPosition(board.StartingPosition()); ok {
				t.Error("custom-start game should not contain the standard start")
			}
		})
	}
}
