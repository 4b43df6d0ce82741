package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the povrewrite banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  ___  _____   __  ___                 _ _       ", "#818cf8"},
		{" | _ \\/ _ \\ \\ / / | _ \\_____ __ ___ _(_) |_ ___ ", "#a78bfa"},
		{" |  _/ (_) \\ V /  |   / -_) V  V / '_| |  _/ -_)", "#e879f9"},
		{" |_|  \\___/ \\_/   |_|_\\___|\\_/\\_/|_| |_|\\__\\___|", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
