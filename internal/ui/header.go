package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/sommelier/internal/session"
)

// renderHeader renders the status bar: who is signed in and whether the
// tasting server is reachable.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBar(m.theme.Surface)

	parts := []string{bg.text("sommelier", styles.Logo)}

	switch m.session.State() {
	case session.LoggedIn:
		sess, _ := m.session.Session()
		parts = append(parts,
			bg.text("●", styles.SuccessText)+bg.gap(1)+bg.text(sess.User.Name, styles.Text),
		)
		if !sess.IssuedAt.IsZero() && m.width >= LayoutCompactWidth {
			parts = append(parts, bg.text("since "+sess.IssuedAt.Local().Format("15:04"), styles.MutedText))
		}
		if m.gate.Admin() {
			parts = append(parts, bg.text("ADMIN", styles.WarningText.Bold(true)))
		}
	case session.LoggingIn:
		parts = append(parts, styles.Badge("logging in").Render("SIGNING IN"))
	default:
		parts = append(parts, bg.text("○ signed out", styles.MutedText))
	}

	if m.prefs.UniqueSession {
		parts = append(parts, bg.text("single-session", styles.InfoText))
	}

	parts = append(parts, m.connectionStatus(styles, bg))

	return styles.Header.Width(m.width).Render(bg.join(parts, "  "))
}

// connectionStatus summarises the directory refresher state.
func (m Model) connectionStatus(styles Styles, bg bar) string {
	snap := m.snapshot
	if snap.LastError != nil && (snap.IsOffline() || snap.Revision == 0) {
		return bg.text("API "+classifyConnectionError(snap.LastError), styles.DangerText) + bg.gap(1) +
			bg.text("Retrying...", styles.WarningText)
	}
	if snap.LastUpdated.IsZero() {
		return bg.text("Connecting...", styles.WarningText)
	}
	return bg.text("updated "+humanize.Time(snap.LastUpdated), styles.FaintText)
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	case strings.Contains(msg, "returned status"):
		return "REJECTED"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the key hints for the active screen.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBar(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.screen {
	case ScreenPagella:
		commands = []cmd{
			{"esc", "Events"},
			{"ctrl+r", "Reload"},
			{"ctrl+x", "Discard draft"},
			{"ctrl+o", "Log out"},
			{"f1", "Help"},
		}
	case ScreenEvents:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"enter", "Open pagella"},
			{"ctrl+o", "Log out"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"enter", "Sign in"},
			{"D", "Disconnect"},
			{"U", ternary(m.prefs.UniqueSession, "Single:on", "Single:off")},
			{"?", "More"},
		}
	}

	colon := bg.fill.Render(":")
	sep := bg.gap(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.text(c.key, styles.AccentText)+colon+bg.text(c.desc, styles.MutedText))
	}
	if m.screen != ScreenPagella {
		segments = append(segments,
			bg.text("T", styles.AccentText)+colon+bg.text(m.theme.Name, styles.FaintText))
	}

	return styles.Footer.Width(m.width).Render(strings.Join(segments, sep))
}

// renderStatusLine shows the current notice, if any.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles()
	if m.notice.text == "" {
		return styles.FaintText.Width(m.width).Render("")
	}
	style := styles.InfoText
	switch m.notice.level {
	case noticeWarning:
		style = styles.WarningText.Bold(true)
	case noticeDanger:
		style = styles.DangerText
	}
	return lipgloss.NewStyle().Width(m.width).Render(style.Render(truncate(m.notice.text, max(m.width-1, 10))))
}

// saveStatus renders the pagella badges: role, save state, and draft origin.
func (m Model) saveStatus(styles Styles) string {
	e := m.engine
	if e == nil {
		return ""
	}
	var parts []string
	parts = append(parts, styles.Badge(ternary(e.Editable(), "editor", "viewer")).Render(strings.ToUpper(ternary(e.Editable(), "editor", "read only"))))

	status := e.Status().String()
	if e.Editable() && status != "idle" {
		parts = append(parts, styles.Badge(status).Render(strings.ToUpper(status)))
	}
	if e.FromDraft() {
		parts = append(parts, styles.Badge("draft").Render("LOCAL DRAFT"))
	}
	if !e.Loaded() {
		parts = append(parts, styles.MutedText.Render("loading..."))
	} else if e.Typing() {
		parts = append(parts, styles.MutedText.Render("typing..."))
	}
	if saved := e.LastSaved(); !saved.IsZero() {
		parts = append(parts, styles.FaintText.Render("saved "+humanize.Time(saved)))
	} else if known := e.KnownUpdatedAt(); !known.IsZero() {
		parts = append(parts, styles.FaintText.Render(fmt.Sprintf("server copy from %s", humanize.Time(known))))
	}
	return strings.Join(parts, " ")
}
