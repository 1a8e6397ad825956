package display

import "chess-analytica/internal/core"

// Terminal color codes
const (
	Reset   = "\033[0m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
)

// Prompt returns a colored prompt string
func Prompt(text string) string {
	return Yellow + text + Yellow + " > " + Reset
}

// ColorName returns a colored side name, "either" for the zero color
func ColorName(c core.Color) string {
	switch c {
	case core.ColorWhite:
		return Blue + "White" + Reset
	case core.ColorBlack:
		return Red + "Black" + Reset
	default:
		return "either"
	}
}
