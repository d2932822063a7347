package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	sections := []helpSection{
		{
			title: "Lists",
			items: []helpItem{
				{"j/k", "Move down/up"},
				{"g/G", "Go to top/bottom"},
				{"enter", "Sign in / open pagella"},
			},
		},
		{
			title: "Admin (PIN)",
			items: []helpItem{
				{"D", "Disconnect selected user"},
				{"U", "Toggle single-session login"},
				{"ctrl+x", "Discard local draft"},
			},
		},
		{
			title: "Pagella",
			items: []helpItem{
				{"ctrl+r", "Reload from server"},
				{"esc", "Back to tastings"},
				{"f1", "This help"},
			},
		},
		{
			title: "General",
			items: []helpItem{
				{"ctrl+o", "Log out"},
				{"T", "Cycle theme"},
				{"?", "Toggle help"},
				{"ctrl+c", "Quit"},
			},
		},
	}

	var b strings.Builder

	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(10)

	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")

		for _, item := range section.items {
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}

		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	return m.renderModal(b.String(), 44)
}

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}
