package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// PrettyPrintJSON writes v as indented JSON
func PrettyPrintJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "%sError formatting JSON: %s%s\n", Red, err.Error(), Reset)
		return
	}
	fmt.Fprintln(w, string(data))
}

// MoveTable colors the "<move>: <count>" lines of a move table, most
// played move highlighted
func MoveTable(w io.Writer, table string) {
	for i, line := range strings.Split(strings.TrimSuffix(table, "\n"), "\n") {
		if line == "" {
			continue
		}
		move, count, _ := strings.Cut(line, ": ")
		color := White
		if i == 0 {
			color = Green
		}
		fmt.Fprintf(w, "  %s%s%s: %s\n", color, move, Reset, count)
	}
}
