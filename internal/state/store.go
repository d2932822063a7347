package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/sommelier/internal/api"
)

// Snapshot represents the latest directory data available to the UI.
type Snapshot struct {
	Users  []api.User
	Events []api.Event
	// Wines belong to WinesEvent; nil when not loaded or invalidated.
	Wines      []api.Wine
	WinesEvent int64

	// Revision increases on every successful directory refresh. The UI uses
	// it to revalidate the session once per refresh.
	Revision            uint64
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive refresh failures
}

// IsOffline returns true when the API has been unreachable for multiple refreshes.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu          sync.RWMutex
	snapshot    Snapshot
	activeEvent int64
}

// Update replaces the user and event lists. When err is non-nil the previous
// data is kept but the error is recorded for visibility.
func (s *Store) Update(users []api.User, events []api.Event, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Users = cloneSlice(users)
	s.snapshot.Events = cloneSlice(events)
	s.snapshot.Revision++
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// SetActiveEvent selects the event whose wines the refresher keeps loaded.
// Switching events drops the cached wines.
func (s *Store) SetActiveEvent(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeEvent == id {
		return
	}
	s.activeEvent = id
	s.snapshot.Wines = nil
	s.snapshot.WinesEvent = 0
}

// ActiveEvent returns the selected event, or zero.
func (s *Store) ActiveEvent() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeEvent
}

// UpdateWines stores the wine list of eventID. Results for an event that is
// no longer active are dropped.
func (s *Store) UpdateWines(eventID int64, wines []api.Wine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if eventID == 0 || eventID != s.activeEvent {
		return
	}
	s.snapshot.Wines = cloneSlice(wines)
	s.snapshot.WinesEvent = eventID
}

// InvalidateWines drops the cached wine list; the next refresh reloads it.
// Called after login since what the server returns may depend on who asks.
func (s *Store) InvalidateWines() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Wines = nil
	s.snapshot.WinesEvent = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Users = cloneSlice(s.snapshot.Users)
	snap.Events = cloneSlice(s.snapshot.Events)
	snap.Wines = cloneSlice(s.snapshot.Wines)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneSlice[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
