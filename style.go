package main

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	stdoutIsTTY = term.IsTerminal(int(os.Stdout.Fd()))

	keywordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#ECFD65"})
	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"})
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)
)

func init() {
	lipgloss.SetColorProfile(termenv.ColorProfile())
}

// keyword colorizes a word in help text when stdout is a terminal.
func keyword(s string) string {
	if !stdoutIsTTY {
		return s
	}
	return keywordStyle.Render(s)
}

func subtle(s string) string {
	if !stdoutIsTTY {
		return s
	}
	return subtleStyle.Render(s)
}

// paragraph wraps and indents a block of help text.
func paragraph(s string) string {
	wrapped := wordwrap.String(strings.TrimSpace(s), 78)
	return indent.String(wrapped, 2)
}
