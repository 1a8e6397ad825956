package storage

import "time"

// PlayerRow is a row of the players table
type PlayerRow struct {
	Username    string    `db:"username"`
	DisplayName string    `db:"display_name"`
	FetchedAt   time.Time `db:"fetched_at"`
	GameCount   int       `db:"game_count"`
}

// GameRow is the indexed part of a cached archived game. The full upstream
// record is kept compressed in the payload column.
type GameRow struct {
	Username    string    `db:"username"`
	GameID      string    `db:"game_id"`
	Seq         int       `db:"seq"`
	URL         string    `db:"url"`
	White       string    `db:"white"`
	Black       string    `db:"black"`
	TimeControl string    `db:"time_control"`
	TimeClass   string    `db:"time_class"`
	EndTime     time.Time `db:"end_time"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS players (
	username TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	fetched_at DATETIME NOT NULL,
	profile BLOB,
	stats BLOB,
	current_games BLOB
);

CREATE TABLE IF NOT EXISTS games (
	username TEXT NOT NULL,
	game_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	url TEXT NOT NULL,
	white TEXT NOT NULL,
	black TEXT NOT NULL,
	time_control TEXT NOT NULL,
	time_class TEXT NOT NULL DEFAULT '',
	end_time DATETIME,
	payload BLOB NOT NULL,
	PRIMARY KEY (username, game_id),
	FOREIGN KEY (username) REFERENCES players(username) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_games_username_seq ON games(username, seq);
CREATE INDEX IF NOT EXISTS idx_games_time_control ON games(time_control);
`
