package schedule_test

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/sommelier/internal/schedule"
	"github.com/five82/sommelier/internal/schedule/scheduletest"
)

type loopHarness struct {
	loop  schedule.Loop
	fired []time.Duration
	clock *scheduletest.Clock
}

func (h *loopHarness) update(msg tea.Msg) tea.Cmd {
	if m, ok := msg.(schedule.LoopMsg); ok {
		if ok, cmd := h.loop.Fired(m); ok {
			h.fired = append(h.fired, h.clock.Now())
			return cmd
		}
	}
	return nil
}

func TestLoop_StartIsIdempotent(t *testing.T) {
	clock := scheduletest.NewClock()
	h := &loopHarness{clock: clock, loop: schedule.NewLoop(time.Second, clock.Tick)}
	d := scheduletest.NewDriver(clock, h.update)

	d.Exec(h.loop.Start())
	d.Exec(h.loop.Start())
	d.Exec(h.loop.Start())

	if clock.Pending() != 1 {
		t.Fatalf("pending timers = %d, want 1", clock.Pending())
	}

	d.Advance(3500 * time.Millisecond)
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	if len(h.fired) != len(want) {
		t.Fatalf("fired = %v, want %v", h.fired, want)
	}
	for i := range want {
		if h.fired[i] != want[i] {
			t.Fatalf("fired[%d] = %v, want %v", i, h.fired[i], want[i])
		}
	}
}

func TestLoop_StopDropsPendingTick(t *testing.T) {
	clock := scheduletest.NewClock()
	h := &loopHarness{clock: clock, loop: schedule.NewLoop(time.Second, clock.Tick)}
	d := scheduletest.NewDriver(clock, h.update)

	d.Exec(h.loop.Start())
	d.Advance(500 * time.Millisecond)
	h.loop.Stop()
	d.Advance(5 * time.Second)

	if len(h.fired) != 0 {
		t.Fatalf("fired = %v after Stop, want none", h.fired)
	}
	if h.loop.Active() {
		t.Fatal("Active() = true after Stop")
	}
}

func TestLoop_RestartAfterStopIgnoresOldGeneration(t *testing.T) {
	clock := scheduletest.NewClock()
	h := &loopHarness{clock: clock, loop: schedule.NewLoop(time.Second, clock.Tick)}
	d := scheduletest.NewDriver(clock, h.update)

	d.Exec(h.loop.Start())
	d.Advance(600 * time.Millisecond)
	h.loop.Stop()
	d.Exec(h.loop.Start())
	d.Advance(time.Second)

	// The first generation would have fired at 1s; only the restart at 1.6s counts.
	if len(h.fired) != 1 || h.fired[0] != 1600*time.Millisecond {
		t.Fatalf("fired = %v, want [1.6s]", h.fired)
	}
}

func TestDebounce_OnlyLastArmFires(t *testing.T) {
	clock := scheduletest.NewClock()
	deb := schedule.NewDebounce(600*time.Millisecond, clock.Tick)
	var fired []time.Duration
	d := scheduletest.NewDriver(clock, func(msg tea.Msg) tea.Cmd {
		if m, ok := msg.(schedule.DebounceMsg); ok && deb.Fired(m) {
			fired = append(fired, clock.Now())
		}
		return nil
	})

	for i := 0; i < 5; i++ {
		d.Exec(deb.Arm())
		d.Advance(100 * time.Millisecond)
	}
	if !deb.Pending() {
		t.Fatal("Pending() = false while armed")
	}
	d.Advance(time.Second)

	if len(fired) != 1 || fired[0] != 1000*time.Millisecond {
		t.Fatalf("fired = %v, want [1s]", fired)
	}
	if deb.Pending() {
		t.Fatal("Pending() = true after firing")
	}
}

func TestDebounce_CancelSuppressesFire(t *testing.T) {
	clock := scheduletest.NewClock()
	deb := schedule.NewDebounce(time.Second, clock.Tick)
	fired := 0
	d := scheduletest.NewDriver(clock, func(msg tea.Msg) tea.Cmd {
		if m, ok := msg.(schedule.DebounceMsg); ok && deb.Fired(m) {
			fired++
		}
		return nil
	})

	d.Exec(deb.Arm())
	deb.Cancel()
	d.Advance(2 * time.Second)

	if fired != 0 {
		t.Fatalf("fired = %d after Cancel, want 0", fired)
	}
}

func TestDebounce_IgnoresOtherInstances(t *testing.T) {
	clock := scheduletest.NewClock()
	a := schedule.NewDebounce(time.Second, clock.Tick)
	b := schedule.NewDebounce(time.Second, clock.Tick)
	if a.ID() == b.ID() {
		t.Fatal("debounces share an ID")
	}

	var msgs []tea.Msg
	d := scheduletest.NewDriver(clock, func(msg tea.Msg) tea.Cmd {
		msgs = append(msgs, msg)
		return nil
	})
	d.Exec(a.Arm())
	b.Arm()
	d.Advance(time.Second)

	for _, msg := range msgs {
		if m, ok := msg.(schedule.DebounceMsg); ok && m.ID == a.ID() {
			if b.Fired(m) {
				t.Fatal("b accepted a's message")
			}
		}
	}
}
