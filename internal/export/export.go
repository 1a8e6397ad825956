// Package export writes a player's analyzed games to parquet.
package export

import (
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"chess-analytica/internal/game"
	"chess-analytica/internal/player"
)

type GameRow struct {
	GameID      string `parquet:"name=game_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	URL         string `parquet:"name=url, type=BYTE_ARRAY, convertedtype=UTF8"`
	White       string `parquet:"name=white, type=BYTE_ARRAY, convertedtype=UTF8"`
	Black       string `parquet:"name=black, type=BYTE_ARRAY, convertedtype=UTF8"`
	Color       string `parquet:"name=color, type=BYTE_ARRAY, convertedtype=UTF8"`
	TimeControl string `parquet:"name=time_control, type=BYTE_ARRAY, convertedtype=UTF8"`
	TimeClass   string `parquet:"name=time_class, type=BYTE_ARRAY, convertedtype=UTF8"`
	Result      string `parquet:"name=result, type=BYTE_ARRAY, convertedtype=UTF8"`
	EndTime     int64  `parquet:"name=end_time, type=INT64"`
	Plies       int32  `parquet:"name=plies, type=INT32"`
	Moves       string `parquet:"name=moves, type=BYTE_ARRAY, convertedtype=UTF8"`
	FinalFEN    string `parquet:"name=final_fen, type=BYTE_ARRAY, convertedtype=UTF8"`
	ReplayError string `parquet:"name=replay_error, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Rows flattens the record's archived games matching selector.
// Games that fail to replay have an empty FinalFEN and the cause in ReplayError.
func Rows(r *player.Record, selector string) []GameRow {
	games := r.Filter(selector)
	rows := make([]GameRow, 0, len(games))
	for _, g := range games {
		rows = append(rows, row(r, g))
	}
	return rows
}

func row(r *player.Record, g *game.Game) GameRow {
	moves := g.Moves()
	uci := make([]string, len(moves))
	for i, m := range moves {
		uci[i] = m.String()
	}
	final, err := g.FinalFEN()
	var replayErr string
	if err != nil {
		replayErr = err.Error()
	}

	var end int64
	if !g.EndTime.IsZero() {
		end = g.EndTime.Unix()
	}
	return GameRow{
		GameID:      g.ID,
		URL:         g.URL,
		White:       g.White,
		Black:       g.Black,
		Color:       r.ColorIn(g).String(),
		TimeControl: g.TimeControl,
		TimeClass:   g.TimeClass,
		Result:      g.Result,
		EndTime:     end,
		Plies:       int32(len(moves)),
		Moves:       strings.Join(uci, " "),
		FinalFEN:    final,
		ReplayError: replayErr,
	}
}

// WriteParquet writes rows to path with snappy compression
func WriteParquet(path string, rows []GameRow, parallel int64) error {
	if parallel <= 0 {
		parallel = 1
	}

	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer fileWriter.Close()

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(GameRow), parallel)
	if err != nil {
		return err
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		if err := parquetWriter.Write(row); err != nil {
			return err
		}
	}
	if err := parquetWriter.WriteStop(); err != nil {
		return err
	}
	return fileWriter.Close()
}

// ReadParquet loads every row of a file written by WriteParquet
func ReadParquet(path string, parallel int64) ([]GameRow, error) {
	if parallel <= 0 {
		parallel = 1
	}

	fileReader, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(GameRow), parallel)
	if err != nil {
		return nil, err
	}
	defer parquetReader.ReadStop()

	rows := make([]GameRow, int(parquetReader.GetNumRows()))
	if len(rows) == 0 {
		return rows, nil
	}
	if err := parquetReader.Read(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Player exports a record's games matching selector and returns the row count
func Player(path string, r *player.Record, selector string) (int, error) {
	rows := Rows(r, selector)
	if err := WriteParquet(path, rows, 4); err != nil {
		return 0, err
	}
	return len(rows), nil
}
