// Package schedule provides the timer primitives shared by the session and
// pagella models: a periodic Loop and a re-armable Debounce.
//
// Both are plain values owned by a Bubble Tea model. Timers are tea.Tick
// commands tagged with a generation number; stopping or re-arming bumps the
// generation so ticks already in flight are recognised as stale and dropped.
// Nothing here starts a goroutine of its own.
package schedule

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickFunc has the shape of tea.Tick. Tests substitute a virtual clock.
type TickFunc func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

var lastID atomic.Int64

func nextID() int {
	return int(lastID.Add(1))
}

func orDefault(tick TickFunc) TickFunc {
	if tick == nil {
		return tea.Tick
	}
	return tick
}

// LoopMsg is delivered each time a Loop interval elapses.
type LoopMsg struct {
	ID  int
	At  time.Time
	tag int
}

// Loop is a periodic timer with idempotent Start and Stop. The active flag,
// not the presence of a pending tick, decides whether Start arms anything.
type Loop struct {
	id     int
	tag    int
	every  time.Duration
	active bool
	tick   TickFunc
}

// NewLoop returns a stopped loop firing every interval.
func NewLoop(every time.Duration, tick TickFunc) Loop {
	return Loop{id: nextID(), every: every, tick: orDefault(tick)}
}

// ID identifies the loop's messages.
func (l Loop) ID() int { return l.id }

// Active reports whether the loop is running.
func (l Loop) Active() bool { return l.active }

// Every returns the loop interval.
func (l Loop) Every() time.Duration { return l.every }

// Start arms the first interval. It returns nil when the loop is already
// running, so overlapping callers cannot stack timers.
func (l *Loop) Start() tea.Cmd {
	if l.active {
		return nil
	}
	l.active = true
	l.tag++
	return l.next()
}

// Stop halts the loop. Any tick already scheduled becomes stale.
func (l *Loop) Stop() {
	l.active = false
	l.tag++
}

// Fired reports whether msg is the current tick of this loop. When it is,
// the next interval is armed and returned.
func (l *Loop) Fired(msg LoopMsg) (bool, tea.Cmd) {
	if !l.active || msg.ID != l.id || msg.tag != l.tag {
		return false, nil
	}
	return true, l.next()
}

func (l *Loop) next() tea.Cmd {
	id, tag := l.id, l.tag
	return l.tick(l.every, func(t time.Time) tea.Msg {
		return LoopMsg{ID: id, At: t, tag: tag}
	})
}

// DebounceMsg is delivered when a Debounce quiet period elapses.
type DebounceMsg struct {
	ID  int
	tag int
}

// Debounce delays an action until no Arm call happened for the configured
// duration.
type Debounce struct {
	id    int
	tag   int
	after time.Duration
	armed bool
	tick  TickFunc
}

// NewDebounce returns an idle debounce with the given quiet period.
func NewDebounce(after time.Duration, tick TickFunc) Debounce {
	return Debounce{id: nextID(), after: after, tick: orDefault(tick)}
}

// ID identifies the debounce's messages.
func (d Debounce) ID() int { return d.id }

// Pending reports whether the debounce is armed and has not fired yet.
func (d Debounce) Pending() bool { return d.armed }

// Arm (re)starts the quiet period. Earlier arms are superseded.
func (d *Debounce) Arm() tea.Cmd {
	d.tag++
	d.armed = true
	id, tag := d.id, d.tag
	return d.tick(d.after, func(time.Time) tea.Msg {
		return DebounceMsg{ID: id, tag: tag}
	})
}

// Cancel disarms the debounce.
func (d *Debounce) Cancel() {
	d.armed = false
	d.tag++
}

// Fired reports whether msg is the latest arm of this debounce and disarms it.
func (d *Debounce) Fired(msg DebounceMsg) bool {
	if !d.armed || msg.ID != d.id || msg.tag != d.tag {
		return false
	}
	d.armed = false
	return true
}
