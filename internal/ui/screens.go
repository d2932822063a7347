package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/sommelier/internal/api"
	"github.com/five82/sommelier/internal/session"
)

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	content := lipgloss.NewStyle().
		Width(m.width).
		Height(max(m.height-3, 1)).
		MaxHeight(max(m.height-3, 1)).
		Render(m.renderContent())
	b.WriteString(content)
	b.WriteString("\n")

	b.WriteString(m.renderStatusLine())
	return b.String()
}

// renderContent renders the main content area based on the current screen.
func (m Model) renderContent() string {
	switch m.screen {
	case ScreenEvents:
		return m.renderEvents()
	case ScreenPagella:
		return m.renderPagella()
	default:
		return m.renderLogin()
	}
}

func (m Model) renderLogin() string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(styles.AccentText.Bold(true).Render("Who is tasting?"))
	b.WriteString("\n\n")

	users := m.snapshot.Users
	if len(users) == 0 {
		if m.snapshot.LastError != nil {
			b.WriteString(styles.DangerText.Render("Tasting server unreachable: " + classifyConnectionError(m.snapshot.LastError)))
		} else {
			b.WriteString(styles.MutedText.Render("Loading users..."))
		}
		return b.String()
	}

	busy := m.session.State() == session.LoggingIn
	for i, u := range users {
		b.WriteString(m.renderUserRow(u, i == m.userIdx, busy))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderUserRow(u api.User, selected, busy bool) string {
	styles := m.theme.Styles()
	marker := "  "
	if selected {
		marker = "› "
	}
	badge := styles.Badge("viewer").Render(padRight(initials(u.Name), 2))
	line := marker + badge + " " + padRight(truncate(u.Name, 24), 24)
	if u.Role != "" {
		line += " " + styles.FaintText.Render(u.Role)
	}
	if selected && busy {
		line += "  " + styles.InfoText.Render("signing in...")
	}
	if selected {
		return styles.Selected.Render(line)
	}
	return styles.Text.Render(line)
}

func (m Model) renderEvents() string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(styles.AccentText.Bold(true).Render("Tastings"))
	b.WriteString("\n\n")

	events := m.snapshot.Events
	if len(events) == 0 {
		b.WriteString(styles.MutedText.Render("No tastings yet."))
		return b.String()
	}
	for i, ev := range events {
		line := ternary(i == m.eventIdx, "› ", "  ") + padRight(truncate(ev.Name, 32), 32)
		if ev.Date != "" {
			line += " " + styles.MutedText.Render(ev.Date)
		}
		if ev.Closed {
			line += " " + styles.FaintText.Render("closed")
		}
		if i == m.eventIdx {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderPagella() string {
	if m.engine == nil {
		return ""
	}
	styles := m.theme.Styles()

	title := styles.AccentText.Bold(true).Render(m.event.Name)
	if m.event.Date != "" {
		title += " " + styles.MutedText.Render(m.event.Date)
	}
	top := title + "  " + m.saveStatus(styles)

	body := m.viewer.View()
	if m.engine.Editable() {
		body = m.editor.View()
	}

	if m.width >= LayoutSidebarWidth {
		sidebar := lipgloss.NewStyle().
			Width(SidebarWidth).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(lipgloss.Color(m.theme.Border)).
			PaddingLeft(1).
			Render(m.renderWines(false))
		return top + "\n\n" + lipgloss.JoinHorizontal(lipgloss.Top, body, " ", sidebar)
	}
	return top + "\n" + m.renderWines(true) + "\n" + body
}

// renderWines lists the wines of the open event, on one line when compact.
func (m Model) renderWines(compact bool) string {
	styles := m.theme.Styles()
	var wines []api.Wine
	if m.snapshot.WinesEvent == m.event.ID {
		wines = m.snapshot.Wines
	}
	if len(wines) == 0 {
		return styles.FaintText.Render("No wines loaded.")
	}

	if compact {
		names := make([]string, 0, len(wines))
		for _, w := range wines {
			names = append(names, w.Name)
		}
		return styles.MutedText.Render(truncate(strings.Join(names, " · "), max(m.width-2, 10)))
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(fmt.Sprintf("Wines (%d)", len(wines))))
	b.WriteString("\n")
	for _, w := range wines {
		b.WriteString(styles.Text.Render(truncate(w.Name, SidebarWidth-2)))
		b.WriteString("\n")
		detail := strings.TrimSpace(strings.Join([]string{w.Producer, vintage(w.Vintage)}, " "))
		if detail != "" {
			b.WriteString(styles.FaintText.Render(truncate(detail, SidebarWidth-2)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func vintage(year int) string {
	if year <= 0 {
		return ""
	}
	return fmt.Sprintf("%d", year)
}
