package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a named palette.
type Theme struct {
	Name string

	Background string // behind modals
	Surface    string // header and command bar
	Border     string // pagella sidebar rule

	Selection     string
	SelectionText string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// Badges maps badge keys (save states, roles, session states) to colors.
	Badges map[string]string
}

// Styles holds the rendered styles of a theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style

	badges   map[string]string
	badgeFg  string
	fallback string
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Styles builds the styles for t.
func (t Theme) Styles() Styles {
	bar := lipgloss.NewStyle().Background(lipgloss.Color(t.Surface)).Padding(0, 1)
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),

		Header:   bar.Foreground(lipgloss.Color(t.Text)),
		Footer:   bar.Foreground(lipgloss.Color(t.Muted)),
		Logo:     fg(t.Accent).Bold(true),
		Selected: fg(t.SelectionText).Background(lipgloss.Color(t.Selection)),

		badges:   t.Badges,
		badgeFg:  t.Background,
		fallback: t.Muted,
	}
}

// Badge returns the pill style for a badge key; unknown keys are muted.
func (s Styles) Badge(key string) lipgloss.Style {
	color := s.badges[strings.ToLower(strings.TrimSpace(key))]
	if color == "" {
		color = s.fallback
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.badgeFg)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// WithBackground paints every text style on bgColor, for segments rendered
// inside the header and command bar.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText, &out.InfoText,
		&out.Logo,
	} {
		*st = st.Background(bg)
	}
	return out
}

var themeOrder = []string{"Cantina", "Barrique", "Slate"}

var themes = map[string]Theme{
	"Cantina":  cantinaTheme(),
	"Barrique": barriqueTheme(),
	"Slate":    slateTheme(),
}

// GetTheme returns the named theme, or Cantina.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[themeOrder[0]]
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames lists the themes in cycle order.
func ThemeNames() []string {
	return append([]string(nil), themeOrder...)
}

// Cellar dark with wine reds.
func cantinaTheme() Theme {
	return Theme{
		Name:          "Cantina",
		Background:    "#14100f",
		Surface:       "#1f1816",
		Border:        "#4a3631",
		Selection:     "#5c1f2b",
		SelectionText: "#f2e6dc",
		Text:          "#e8dcd2",
		Muted:         "#a08f85",
		Faint:         "#7a6a62",
		Accent:        "#c2475a",
		Success:       "#8fae6b",
		Warning:       "#d9a441",
		Danger:        "#e0525e",
		Info:          "#8eb4c4",
		Badges: map[string]string{
			"idle":       "#7a6a62",
			"saving":     "#8eb4c4",
			"saved":      "#8fae6b",
			"error":      "#e0525e",
			"online":     "#8fae6b",
			"offline":    "#e0525e",
			"logging in": "#8eb4c4",
			"editor":     "#d9a441",
			"viewer":     "#a08f85",
			"draft":      "#c98b5a",
		},
	}
}

// Oak browns with straw highlights.
func barriqueTheme() Theme {
	return Theme{
		Name:          "Barrique",
		Background:    "#17130d",
		Surface:       "#241d14",
		Border:        "#5a4a33",
		Selection:     "#6b4f2a",
		SelectionText: "#fbf3e4",
		Text:          "#efe4cf",
		Muted:         "#b8a586",
		Faint:         "#857559",
		Accent:        "#e0b45c",
		Success:       "#9cbf6e",
		Warning:       "#eec46b",
		Danger:        "#d8614f",
		Info:          "#86b3a6",
		Badges: map[string]string{
			"idle":       "#857559",
			"saving":     "#86b3a6",
			"saved":      "#9cbf6e",
			"error":      "#d8614f",
			"online":     "#9cbf6e",
			"offline":    "#d8614f",
			"logging in": "#86b3a6",
			"editor":     "#e0b45c",
			"viewer":     "#b8a586",
			"draft":      "#b97a9d",
		},
	}
}

// Tailwind slate/sky.
func slateTheme() Theme {
	return Theme{
		Name:          "Slate",
		Background:    "#020617",
		Surface:       "#0f172a",
		Border:        "#334155",
		Selection:     "#0284c7",
		SelectionText: "#f8fafc",
		Text:          "#f1f5f9",
		Muted:         "#94a3b8",
		Faint:         "#64748b",
		Accent:        "#38bdf8",
		Success:       "#22c55e",
		Warning:       "#f59e0b",
		Danger:        "#ef4444",
		Info:          "#06b6d4",
		Badges: map[string]string{
			"idle":       "#64748b",
			"saving":     "#0ea5e9",
			"saved":      "#22c55e",
			"error":      "#dc2626",
			"online":     "#16a34a",
			"offline":    "#dc2626",
			"logging in": "#38bdf8",
			"editor":     "#f59e0b",
			"viewer":     "#64748b",
			"draft":      "#06b6d4",
		},
	}
}
