package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// bar renders header and command bar segments on one background. Text
// rendered by lipgloss resets the background after each segment, so the
// gaps between segments need their own styled spaces.
type bar struct {
	fill lipgloss.Style
}

func newBar(color string) bar {
	return bar{fill: lipgloss.NewStyle().Background(lipgloss.Color(color))}
}

// text renders s word by word so the spaces inside it keep the background.
func (b bar) text(s string, style lipgloss.Style) string {
	if s == "" {
		return ""
	}
	words := strings.Split(s, " ")
	for i, w := range words {
		if w != "" {
			words[i] = style.Render(w)
		}
	}
	return strings.Join(words, b.gap(1))
}

// gap returns n spaces painted with the bar color.
func (b bar) gap(n int) string {
	return b.fill.Render(strings.Repeat(" ", n))
}

// join joins segments with a painted separator.
func (b bar) join(parts []string, sep string) string {
	return strings.Join(parts, b.fill.Render(sep))
}
