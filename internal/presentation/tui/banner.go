package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Lattice ASCII art banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text, color string
	}{
		{"  _          _   _   _          ", "#34d399"},
		{" | |    __ _| |_| |_(_) ___ ___ ", "#2dd4bf"},
		{" | |   / _` | __| __| |/ __/ _ \\", "#22d3ee"},
		{" | |__| (_| | |_| |_| | (_|  __/", "#38bdf8"},
		{" |_____\\__,_|\\__|\\__|_|\\___\\___|", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
