package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the trialset ASCII art banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"  _        _       _          _   ", "#818cf8"},
		{" | |_ _ __(_) __ _| |___  ___| |_ ", "#a78bfa"},
		{" | __| '__| |/ _` | / __|/ _ \\ __|", "#c084fc"},
		{" | |_| |  | | (_| | \\__ \\  __/ |_ ", "#e879f9"},
		{"  \\__|_|  |_|\\__,_|_|___/\\___|\\__|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
