package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/sommelier/internal/api"
	"github.com/five82/sommelier/internal/state"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 2 * time.Minute
)

// Directory is the part of the API client the poller reads.
type Directory interface {
	FetchUsers(ctx context.Context) ([]api.User, error)
	FetchEvents(ctx context.Context) ([]api.Event, error)
	FetchWines(ctx context.Context, eventID int64) ([]api.Wine, error)
}

// Poller refreshes the directory snapshot in the background.
type Poller struct {
	store    *state.Store
	dir      Directory
	interval time.Duration
	logger   *slog.Logger
	trigger  chan struct{}
}

// StartPoller launches a background goroutine that refreshes the store at a
// fixed cadence, backing off while the API is unreachable. It returns
// immediately.
func StartPoller(ctx context.Context, store *state.Store, dir Directory, interval time.Duration, logger *slog.Logger) *Poller {
	p := newPoller(store, dir, interval, logger)
	go p.run(ctx)
	return p
}

func newPoller(store *state.Store, dir Directory, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Poller{
		store:    store,
		dir:      dir,
		interval: interval,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger asks for a refresh ahead of schedule. Requests made while one is
// already queued collapse into it.
func (p *Poller) Trigger() {
	if p == nil {
		return
	}
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

func (p *Poller) run(ctx context.Context) {
	for {
		p.refresh(ctx)
		wait := calculateBackoff(p.store.Snapshot().ConsecutiveFailures, p.interval)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-p.trigger:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	users, err := p.dir.FetchUsers(ctx)
	if err != nil {
		p.store.Update(nil, nil, err)
		p.logger.Warn("user refresh failed", "error", err)
		return
	}
	events, err := p.dir.FetchEvents(ctx)
	if err != nil {
		p.store.Update(nil, nil, err)
		p.logger.Warn("event refresh failed", "error", err)
		return
	}
	p.store.Update(users, events, nil)

	eventID := p.store.ActiveEvent()
	if eventID == 0 {
		return
	}
	wines, err := p.dir.FetchWines(ctx, eventID)
	if err != nil {
		p.logger.Warn("wine refresh failed", "event_id", eventID, "error", err)
		return
	}
	p.store.UpdateWines(eventID, wines)
}

// calculateBackoff doubles the interval per consecutive failure, up to maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for range failures {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
