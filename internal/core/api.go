package core

// ErrorResponse is the JSON body of every failed API request
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// PositionQueryRequest selects a position, the player's side and a
// time-control selector for the move endpoints
type PositionQueryRequest struct {
	FEN         string `json:"fen" validate:"required,max=100"`
	Color       string `json:"color" validate:"omitempty,color"`
	TimeControl string `json:"timeControl" validate:"omitempty,max=32"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Time    int64  `json:"time"`
	Storage string `json:"storage"`
	Players int    `json:"players"`
}
