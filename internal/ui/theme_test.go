package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestBadge(t *testing.T) {
	th := GetTheme("Barrique")
	styles := th.Styles()

	if got := styles.Badge("  Saved ").GetBackground(); got != lipgloss.Color(th.Badges["saved"]) {
		t.Fatalf("Badge(saved) background = %v, want %v", got, th.Badges["saved"])
	}
	if got := styles.Badge("unknown").GetBackground(); got != lipgloss.Color(th.Muted) {
		t.Fatalf("Badge(unknown) background = %v, want muted %v", got, th.Muted)
	}

	withBg := styles.WithBackground(th.Surface)
	if got := withBg.Badge("nope").GetBackground(); got != lipgloss.Color(th.Muted) {
		t.Fatalf("WithBackground lost the muted fallback: %v", got)
	}
	if got := withBg.MutedText.GetBackground(); got != lipgloss.Color(th.Surface) {
		t.Fatalf("MutedText background = %v, want surface %v", got, th.Surface)
	}
	if got := styles.MutedText.GetBackground(); got == lipgloss.Color(th.Surface) {
		t.Fatal("WithBackground modified the original styles")
	}
}

func TestThemesCoverBadges(t *testing.T) {
	keys := []string{"idle", "saving", "saved", "error", "online", "offline", "logging in", "editor", "viewer", "draft"}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		if th.Name != name {
			t.Fatalf("GetTheme(%q).Name = %q", name, th.Name)
		}
		for _, k := range keys {
			if th.Badges[k] == "" {
				t.Errorf("theme %s missing badge color %q", name, k)
			}
		}
	}
}

func TestNextThemeCycles(t *testing.T) {
	names := ThemeNames()
	current := names[0]
	for range names {
		current = NextTheme(current)
	}
	if current != names[0] {
		t.Fatalf("cycle ended at %q, want %q", current, names[0])
	}
	if got := NextTheme("missing"); got != names[0] {
		t.Fatalf("NextTheme(missing) = %q", got)
	}
	if got := GetTheme("missing").Name; got != "Cantina" {
		t.Fatalf("GetTheme(missing) = %q", got)
	}
}

func TestBarKeepsBackgroundBetweenWords(t *testing.T) {
	b := newBar("#1f1816")
	if got := b.text("", lipgloss.NewStyle()); got != "" {
		t.Fatalf("text(empty) = %q", got)
	}
	plain := newBar("")
	if got := plain.text("saved just now", lipgloss.NewStyle()); got != "saved just now" {
		t.Fatalf("text = %q, want words joined by spaces", got)
	}
	if got := plain.join([]string{"a", "b"}, "  "); got != "a  b" {
		t.Fatalf("join = %q", got)
	}
}
