package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the cardflow ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"                   _  __ _               ", "#818cf8"},
		{"   ___ __ _ _ __ __| |/ _| | _____      __", "#a78bfa"},
		{"  / __/ _` | '__/ _` | |_| |/ _ \\ \\ /\\ / /", "#c084fc"},
		{" | (_| (_| | | | (_| |  _| | (_) \\ V  V / ", "#e879f9"},
		{"  \\___\\__,_|_|  \\__,_|_| |_|\\___/ \\_/\\_/  ", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Status colors msg green when ok and red otherwise.
func Status(ok bool, msg string) string {
	p := termenv.ColorProfile()
	if ok {
		return termenv.String(msg).Foreground(p.Color("#22c55e")).String()
	}
	return termenv.String(msg).Foreground(p.Color("#ef4444")).Bold().String()
}
