package chesscom

// Profile is the public player profile
type Profile struct {
	ID         string `json:"@id"`
	URL        string `json:"url"`
	Username   string `json:"username"`
	PlayerID   int64  `json:"player_id"`
	Name       string `json:"name,omitempty"`
	Title      string `json:"title,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	Country    string `json:"country,omitempty"`
	Location   string `json:"location,omitempty"`
	Followers  int    `json:"followers"`
	Joined     int64  `json:"joined"`
	LastOnline int64  `json:"last_online"`
	Status     string `json:"status,omitempty"`
	IsStreamer bool   `json:"is_streamer"`
	Verified   bool   `json:"verified"`
	League     string `json:"league,omitempty"`
}

// Stats holds the per-category rating records. Categories a player never
// played are absent from the upstream document.
type Stats struct {
	Daily  *CategoryStats `json:"chess_daily,omitempty"`
	Rapid  *CategoryStats `json:"chess_rapid,omitempty"`
	Bullet *CategoryStats `json:"chess_bullet,omitempty"`
	Blitz  *CategoryStats `json:"chess_blitz,omitempty"`
	FIDE   int            `json:"fide,omitempty"`
}

type CategoryStats struct {
	Last   RatingPoint  `json:"last"`
	Best   *RatingPoint `json:"best,omitempty"`
	Record Record       `json:"record"`
}

type RatingPoint struct {
	Rating int   `json:"rating"`
	Date   int64 `json:"date"`
	RD     int   `json:"rd,omitempty"`
}

type Record struct {
	Win  int `json:"win"`
	Loss int `json:"loss"`
	Draw int `json:"draw"`
}

// Side is one player of an archived game
type Side struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Result   string `json:"result"`
	ID       string `json:"@id,omitempty"`
	UUID     string `json:"uuid,omitempty"`
}

// Game is an archived (finished) game record
type Game struct {
	URL          string `json:"url"`
	PGN          string `json:"pgn"`
	TimeControl  string `json:"time_control"`
	TimeClass    string `json:"time_class"`
	EndTime      int64  `json:"end_time"`
	Rated        bool   `json:"rated"`
	UUID         string `json:"uuid,omitempty"`
	Rules        string `json:"rules"`
	InitialSetup string `json:"initial_setup,omitempty"`
	FEN          string `json:"fen,omitempty"`
	White        Side   `json:"white"`
	Black        Side   `json:"black"`
}

// CurrentGame is an in-progress daily game. Players are given as profile URLs.
type CurrentGame struct {
	URL          string `json:"url"`
	PGN          string `json:"pgn"`
	TimeControl  string `json:"time_control"`
	TimeClass    string `json:"time_class,omitempty"`
	Rules        string `json:"rules"`
	FEN          string `json:"fen"`
	Turn         string `json:"turn"`
	MoveBy       int64  `json:"move_by"`
	LastActivity int64  `json:"last_activity"`
	White        string `json:"white"`
	Black        string `json:"black"`
}

type archivesResponse struct {
	Archives []string `json:"archives"`
}

type gamesResponse struct {
	Games []Game `json:"games"`
}

type currentGamesResponse struct {
	Games []CurrentGame `json:"games"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
