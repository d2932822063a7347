package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// renderModal centers a bordered box of the given width over the screen.
func (m Model) renderModal(content string, width int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(width).
		Render(content)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

// renderPinPrompt renders the admin PIN dialog.
func (m Model) renderPinPrompt() string {
	styles := m.theme.Styles()
	body := styles.WarningText.Bold(true).Render("Admin confirmation") + "\n\n" +
		styles.Text.Render(m.gate.View()) + "\n\n" +
		styles.FaintText.Render("enter confirm · esc cancel")
	return m.renderModal(body, 44)
}
