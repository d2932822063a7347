package gate

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/sommelier/internal/schedule/scheduletest"
)

func mustVerifier(t *testing.T, pin, hash string) Verifier {
	t.Helper()
	v, err := NewVerifier(pin, hash)
	if err != nil {
		t.Fatalf("NewVerifier returned error: %v", err)
	}
	return v
}

func typePIN(g *Gate, pin string) {
	for _, r := range pin {
		g.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestGate_LastRequireWins(t *testing.T) {
	g := New(mustVerifier(t, "1234", ""))
	var ran []string

	g.Require("x", func() tea.Cmd { ran = append(ran, "cb1"); return nil })
	g.Require("y", func() tea.Cmd { ran = append(ran, "cb2"); return nil })
	if g.Name() != "y" {
		t.Fatalf("Name = %q, want y", g.Name())
	}

	msgs := scheduletest.Run(g.Confirm())
	if len(ran) != 1 || ran[0] != "cb2" {
		t.Fatalf("ran = %v, want [cb2]", ran)
	}
	if len(msgs) != 1 || msgs[0] != (ConfirmedMsg{Name: "y"}) {
		t.Fatalf("msgs = %#v, want ConfirmedMsg{y}", msgs)
	}
	if g.Open() || g.Name() != "" {
		t.Fatal("slot not cleared after Confirm")
	}

	// A second confirm has nothing to run.
	if cmd := g.Confirm(); cmd != nil {
		t.Fatal("Confirm with empty slot returned a command")
	}
	if len(ran) != 1 {
		t.Fatalf("ran = %v, want the action only once", ran)
	}
}

func TestGate_CancelDropsAction(t *testing.T) {
	g := New(mustVerifier(t, "1234", ""))
	called := false
	g.Require("discard draft", func() tea.Cmd { called = true; return nil })

	msgs := scheduletest.Run(g.Cancel())
	if called {
		t.Fatal("Cancel ran the action")
	}
	if len(msgs) != 1 || msgs[0] != (CancelledMsg{Name: "discard draft"}) {
		t.Fatalf("msgs = %#v, want CancelledMsg", msgs)
	}
	if g.Open() || g.Name() != "" {
		t.Fatal("slot not cleared after Cancel")
	}
	if g.Confirm() != nil || called {
		t.Fatal("Confirm after Cancel ran something")
	}
	if g.Admin() {
		t.Fatal("Admin() = true without a confirmed PIN")
	}
}

func TestGate_PromptVerifiesPIN(t *testing.T) {
	g := New(mustVerifier(t, "2468", ""))
	calls := 0
	g.Require("toggle", func() tea.Cmd { calls++; return nil })

	typePIN(g, "1111")
	scheduletest.Run(g.Update(tea.KeyMsg{Type: tea.KeyEnter}))
	if calls != 0 {
		t.Fatal("wrong PIN ran the action")
	}
	if !g.Open() || g.Err() == "" {
		t.Fatalf("after wrong PIN: open=%v err=%q, want open with error", g.Open(), g.Err())
	}

	typePIN(g, "2468")
	scheduletest.Run(g.Update(tea.KeyMsg{Type: tea.KeyEnter}))
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if g.Open() {
		t.Fatal("prompt still open after correct PIN")
	}
	if !g.Admin() {
		t.Fatal("Admin() = false after confirmed PIN")
	}
	g.ClearAdmin()
	if g.Admin() {
		t.Fatal("Admin() = true after ClearAdmin")
	}
}

func TestGate_EscCancels(t *testing.T) {
	g := New(mustVerifier(t, "1", ""))
	g.Require("x", func() tea.Cmd { t.Fatal("action ran"); return nil })
	scheduletest.Run(g.Update(tea.KeyMsg{Type: tea.KeyEsc}))
	if g.Open() {
		t.Fatal("prompt open after esc")
	}
	if g.View() != "" {
		t.Fatalf("View = %q for closed gate, want empty", g.View())
	}
}

func TestNewVerifier(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("9999"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %v", err)
	}

	v := mustVerifier(t, "1234", string(hash))
	if !v.Verify("9999") {
		t.Fatal("bcrypt verifier rejected the right PIN")
	}
	if v.Verify("1234") {
		t.Fatal("hash should take precedence over the plain PIN")
	}

	plain := mustVerifier(t, " 1234 ", "")
	if !plain.Verify("1234") || plain.Verify("12345") {
		t.Fatal("plain verifier mismatch")
	}

	if _, err := NewVerifier("", ""); !errors.Is(err, ErrNoPIN) {
		t.Fatalf("NewVerifier(\"\", \"\") = %v, want ErrNoPIN", err)
	}
	if _, err := NewVerifier("", "not-a-hash"); err == nil {
		t.Fatal("NewVerifier accepted a malformed hash")
	}
}
