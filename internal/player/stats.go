package player

import (
	"math"

	"chess-analytica/internal/chesscom"
)

// CategorySummary is the condensed record of one rating category
type CategorySummary struct {
	Rating   int     `json:"rating"`
	Won      int     `json:"won"`
	Lost     int     `json:"lost"`
	Drawn    int     `json:"drawn"`
	Played   int     `json:"played"`
	PctWon   float64 `json:"pctWon"`
	PctLost  float64 `json:"pctLost"`
	PctDrawn float64 `json:"pctDrawn"`
}

// Stats summarizes every category the player has a record in
type Stats struct {
	Daily  *CategorySummary `json:"daily,omitempty"`
	Rapid  *CategorySummary `json:"rapid,omitempty"`
	Bullet *CategorySummary `json:"bullet,omitempty"`
	Blitz  *CategorySummary `json:"blitz,omitempty"`
}

// Categories returns the present categories in display order
func (s Stats) Categories() []NamedSummary {
	var out []NamedSummary
	for _, c := range []NamedSummary{
		{"daily", s.Daily},
		{"rapid", s.Rapid},
		{"bullet", s.Bullet},
		{"blitz", s.Blitz},
	} {
		if c.Summary != nil {
			out = append(out, c)
		}
	}
	return out
}

type NamedSummary struct {
	Name    string
	Summary *CategorySummary
}

// BuildStats condenses the upstream stats document
func BuildStats(raw *chesscom.Stats) Stats {
	if raw == nil {
		return Stats{}
	}
	return Stats{
		Daily:  summarize(raw.Daily),
		Rapid:  summarize(raw.Rapid),
		Bullet: summarize(raw.Bullet),
		Blitz:  summarize(raw.Blitz),
	}
}

func summarize(c *chesscom.CategoryStats) *CategorySummary {
	if c == nil {
		return nil
	}
	s := &CategorySummary{
		Rating: c.Last.Rating,
		Won:    c.Record.Win,
		Lost:   c.Record.Loss,
		Drawn:  c.Record.Draw,
	}
	s.Played = s.Won + s.Lost + s.Drawn
	s.PctWon = calcPct(s.Won, s.Played)
	s.PctLost = calcPct(s.Lost, s.Played)
	s.PctDrawn = calcPct(s.Drawn, s.Played)
	return s
}

// calcPct returns numerator/denominator as a percentage rounded to two decimals
func calcPct(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return math.Round(float64(numerator)/float64(denominator)*100*100) / 100
}
