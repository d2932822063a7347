// Package scheduletest drives Bubble Tea models deterministically: timers go
// through a virtual clock and commands run synchronously.
package scheduletest

import (
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Epoch is the wall time corresponding to virtual time zero.
var Epoch = time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC)

type timer struct {
	at  time.Duration
	seq int
	fn  func(time.Time) tea.Msg
}

// Clock is a virtual clock whose Tick method matches schedule.TickFunc.
type Clock struct {
	now     time.Duration
	seq     int
	pending []timer
}

// NewClock returns a clock at virtual time zero.
func NewClock() *Clock {
	return &Clock{}
}

// Tick records a timer and returns a nil command; the timer fires when the
// clock is advanced past its deadline.
func (c *Clock) Tick(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
	c.seq++
	c.pending = append(c.pending, timer{at: c.now + d, seq: c.seq, fn: fn})
	return nil
}

// Now returns the elapsed virtual time.
func (c *Clock) Now() time.Duration { return c.now }

// Pending returns the number of scheduled timers, stale ones included.
func (c *Clock) Pending() int { return len(c.pending) }

func (c *Clock) popDue(target time.Duration) (timer, bool) {
	if len(c.pending) == 0 {
		return timer{}, false
	}
	sort.SliceStable(c.pending, func(i, j int) bool {
		if c.pending[i].at == c.pending[j].at {
			return c.pending[i].seq < c.pending[j].seq
		}
		return c.pending[i].at < c.pending[j].at
	})
	next := c.pending[0]
	if next.at > target {
		return timer{}, false
	}
	c.pending = c.pending[1:]
	return next, true
}

// Driver routes messages through an update function, feeding the messages
// produced by returned commands back in until the system is quiet.
type Driver struct {
	Clock  *Clock
	Update func(tea.Msg) tea.Cmd
	// Seen records every delivered message in order.
	Seen []tea.Msg
}

// NewDriver returns a driver bound to clock and update.
func NewDriver(clock *Clock, update func(tea.Msg) tea.Cmd) *Driver {
	return &Driver{Clock: clock, Update: update}
}

// Send delivers msg and everything it transitively produces.
func (d *Driver) Send(msg tea.Msg) {
	queue := []tea.Msg{msg}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		d.Seen = append(d.Seen, next)
		queue = append(queue, Run(d.Update(next))...)
	}
}

// Exec runs cmd and delivers the resulting messages.
func (d *Driver) Exec(cmd tea.Cmd) {
	for _, msg := range Run(cmd) {
		d.Send(msg)
	}
}

// Advance moves virtual time forward by dur, firing due timers in deadline
// order. Timers scheduled while advancing fire too if they fall inside dur.
func (d *Driver) Advance(dur time.Duration) {
	target := d.Clock.now + dur
	for {
		t, ok := d.Clock.popDue(target)
		if !ok {
			break
		}
		d.Clock.now = t.at
		d.Send(t.fn(Epoch.Add(t.at)))
	}
	d.Clock.now = target
}

// AdvanceTo moves virtual time to the absolute offset at.
func (d *Driver) AdvanceTo(at time.Duration) {
	if at <= d.Clock.now {
		return
	}
	d.Advance(at - d.Clock.now)
}

// Run executes cmd synchronously, flattening batches. Timer commands created
// through a Clock are nil and contribute nothing.
func Run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if msg == nil {
		return nil
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, Run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}
