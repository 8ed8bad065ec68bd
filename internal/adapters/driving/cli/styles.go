package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// palette is the colour set used for terminal output.
var palette = struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}{
	Primary: lipgloss.Color("#7C3AED"),
	Muted:   lipgloss.Color("#6C7086"),
	Success: lipgloss.Color("#A6E3A1"),
	Warning: lipgloss.Color("#F9E2AF"),
	Error:   lipgloss.Color("#F38BA8"),
}

// styles renders command output. Styling is only applied when the
// destination is a terminal.
type styles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Key     lipgloss.Style
}

func newStyles(w io.Writer) *styles {
	if !isTerminal(w) {
		plain := lipgloss.NewStyle()
		return &styles{Title: plain, Muted: plain, Success: plain, Warning: plain, Error: plain, Key: plain}
	}
	r := lipgloss.NewRenderer(w)
	return &styles{
		Title:   r.NewStyle().Bold(true).Foreground(palette.Primary),
		Muted:   r.NewStyle().Foreground(palette.Muted),
		Success: r.NewStyle().Foreground(palette.Success),
		Warning: r.NewStyle().Foreground(palette.Warning),
		Error:   r.NewStyle().Foreground(palette.Error),
		Key:     r.NewStyle().Bold(true).Width(14),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
