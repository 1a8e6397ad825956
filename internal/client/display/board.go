package display

import (
	"fmt"
	"io"
	"strings"
)

// RenderBoard writes an ASCII board with colored pieces
func RenderBoard(w io.Writer, asciiBoard string) {
	lines := strings.Split(asciiBoard, "\n")

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		isFileLine := (i == 0) || (i == 9)

		for _, char := range line {
			switch {
			case char >= 'a' && char <= 'h' && isFileLine:
				// File letters - Cyan
				fmt.Fprintf(w, "%s%c%s", Cyan, char, Reset)
			case char >= 'A' && char <= 'Z':
				// White pieces - Blue
				fmt.Fprintf(w, "%s%c%s", Blue, char, Reset)
			case char >= 'a' && char <= 'z' && !isFileLine:
				// Black pieces - Red
				fmt.Fprintf(w, "%s%c%s", Red, char, Reset)
			case char >= '1' && char <= '8':
				// Rank numbers - Cyan
				fmt.Fprintf(w, "%s%c%s", Cyan, char, Reset)
			default:
				fmt.Fprintf(w, "%c", char)
			}
		}
		fmt.Fprintln(w)
	}
}
