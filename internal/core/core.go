package core

import (
	"fmt"

	"golang.org/x/text/cases"
)

type Color byte

const (
	ColorWhite Color = iota + 1
	ColorBlack
)

func (c Color) String() string {
	if c == ColorWhite {
		return "w"
	} else if c == ColorBlack {
		return "b"
	} else {
		return "-"
	}
}

func OppositeColor(c Color) Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// ParseColor accepts "w"/"white" and "b"/"black" in any case
func ParseColor(s string) (Color, bool) {
	switch cases.Fold().String(s) {
	case "w", "white":
		return ColorWhite, true
	case "b", "black":
		return ColorBlack, true
	default:
		return 0, false
	}
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	parsed, ok := ParseColor(string(b))
	if !ok && string(b) != "-" {
		return fmt.Errorf("invalid color %q", b)
	}
	*c = parsed
	return nil
}
