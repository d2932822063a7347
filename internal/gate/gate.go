// Package gate guards privileged actions behind the shared admin PIN.
//
// A Gate holds at most one pending action. Require overwrites whatever was
// pending, Confirm runs the pending action exactly once, and Cancel drops it.
package gate

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/crypto/bcrypt"
)

// ErrNoPIN is returned by NewVerifier when no PIN is configured.
var ErrNoPIN = errors.New("admin pin not configured")

// Action is the work to run once the PIN is confirmed.
type Action func() tea.Cmd

// Verifier checks a PIN entered by the user.
type Verifier interface {
	Verify(pin string) bool
}

type bcryptVerifier struct{ hash []byte }

func (v bcryptVerifier) Verify(pin string) bool {
	return bcrypt.CompareHashAndPassword(v.hash, []byte(pin)) == nil
}

type plainVerifier struct{ pin []byte }

func (v plainVerifier) Verify(pin string) bool {
	return subtle.ConstantTimeCompare(v.pin, []byte(pin)) == 1
}

// NewVerifier prefers a bcrypt hash and falls back to a plain PIN.
func NewVerifier(pin, hash string) (Verifier, error) {
	hash = strings.TrimSpace(hash)
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("admin_pin_hash: %w", err)
		}
		return bcryptVerifier{hash: []byte(hash)}, nil
	}
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return nil, ErrNoPIN
	}
	return plainVerifier{pin: []byte(pin)}, nil
}

// ConfirmedMsg reports a confirmed action.
type ConfirmedMsg struct{ Name string }

// CancelledMsg reports a dismissed prompt.
type CancelledMsg struct{ Name string }

// Gate is the single-slot confirmation holder and its PIN prompt.
type Gate struct {
	verifier Verifier

	pending Action
	name    string
	input   textinput.Model
	err     string
	// admin records that a PIN was confirmed during this process.
	admin bool
}

// New returns a closed gate.
func New(v Verifier) *Gate {
	in := textinput.New()
	in.Placeholder = "PIN"
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '•'
	in.CharLimit = 32
	in.Prompt = "PIN: "
	in.Cursor.SetMode(cursor.CursorStatic)
	return &Gate{verifier: v, input: in}
}

// Require stores action as the pending one, replacing any earlier request,
// and opens the prompt.
func (g *Gate) Require(name string, action Action) tea.Cmd {
	g.pending = action
	g.name = name
	g.err = ""
	g.input.Reset()
	return g.input.Focus()
}

// Confirm runs the pending action once and clears the slot.
func (g *Gate) Confirm() tea.Cmd {
	action, name := g.pending, g.name
	g.clear()
	if action == nil {
		return nil
	}
	g.admin = true
	return tea.Batch(action(), func() tea.Msg { return ConfirmedMsg{Name: name} })
}

// Cancel clears the slot without running anything.
func (g *Gate) Cancel() tea.Cmd {
	name := g.name
	had := g.pending != nil
	g.clear()
	if !had {
		return nil
	}
	return func() tea.Msg { return CancelledMsg{Name: name} }
}

func (g *Gate) clear() {
	g.pending = nil
	g.name = ""
	g.err = ""
	g.input.Reset()
	g.input.Blur()
}

// Open reports whether an action is waiting for the PIN.
func (g *Gate) Open() bool { return g.pending != nil }

// Name returns the pending action's name.
func (g *Gate) Name() string { return g.name }

// Err returns the last verification error shown in the prompt.
func (g *Gate) Err() string { return g.err }

// Admin reports whether a PIN was confirmed since the last ClearAdmin.
func (g *Gate) Admin() bool { return g.admin }

// ClearAdmin forgets the confirmed-PIN marker.
func (g *Gate) ClearAdmin() { g.admin = false }

// Update drives the prompt while it is open.
func (g *Gate) Update(msg tea.Msg) tea.Cmd {
	if !g.Open() {
		return nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc:
			return g.Cancel()
		case tea.KeyEnter:
			return g.submit()
		}
	}
	var cmd tea.Cmd
	g.input, cmd = g.input.Update(msg)
	return cmd
}

func (g *Gate) submit() tea.Cmd {
	pin := g.input.Value()
	if g.verifier == nil || !g.verifier.Verify(pin) {
		g.err = "Wrong PIN"
		g.input.Reset()
		return nil
	}
	return g.Confirm()
}

// View renders the prompt body.
func (g *Gate) View() string {
	if !g.Open() {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Admin PIN required: %s\n\n", g.name)
	b.WriteString(g.input.View())
	if g.err != "" {
		b.WriteString("\n\n")
		b.WriteString(g.err)
	}
	return b.String()
}
