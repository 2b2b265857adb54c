package cmd

import (
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// statusWriter renders the run command's transient status line (never
// transcript content) in a color appropriate for the attached terminal.
type statusWriter struct {
	profile termenv.Profile
	enabled bool
}

// newStatusWriter detects the terminal's color profile for stderr. Status
// styling is disabled outright when stderr isn't a TTY.
func newStatusWriter() *statusWriter {
	enabled := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return &statusWriter{
		profile: termenv.NewOutput(os.Stderr).Profile,
		enabled: enabled,
	}
}

// Running renders a line reporting that capture is active. dark chooses a
// readable accent color for light or dark terminals.
func (w *statusWriter) Running(label string, dark bool) string {
	if !w.enabled {
		return label
	}
	color := "4" // blue, readable on a dark background
	if !dark {
		color = "6" // teal, readable on a light background
	}
	return termenv.String(label).Foreground(w.profile.Color(color)).String()
}

// Dropped renders the dropped-event count, styled as a warning once non-zero.
func (w *statusWriter) Dropped(n int64) string {
	label := "dropped: " + strconv.FormatInt(n, 10)
	if !w.enabled || n == 0 {
		return label
	}
	return termenv.String(label).Foreground(w.profile.Color("3")).String()
}
