package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/sommelier/internal/api"
)

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	users := []api.User{{ID: 1, Name: "Marco"}, {ID: 2, Name: "Giulia"}}
	events := []api.Event{{ID: 10, Name: "Piemonte"}}

	before := time.Now()
	s.Update(users, events, nil)

	snap := s.Snapshot()
	if len(snap.Users) != 2 || snap.Users[0].Name != "Marco" {
		t.Fatalf("snapshot users = %#v, want 2 users", snap.Users)
	}
	if len(snap.Events) != 1 || snap.Events[0].ID != 10 {
		t.Fatalf("snapshot events = %#v, want 1 event", snap.Events)
	}
	if snap.Revision != 1 {
		t.Fatalf("Revision = %d, want 1", snap.Revision)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Users[0].Name = "changed"
	snap2 := s.Snapshot()
	if snap2.Users[0].Name != "Marco" {
		t.Fatalf("Snapshot should clone users; got %q want Marco", snap2.Users[0].Name)
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update([]api.User{{ID: 1}}, nil, nil)
	prev := s.Snapshot()

	origErr := errors.New("boom")
	s.Update(nil, nil, origErr)

	snap := s.Snapshot()
	if len(snap.Users) != 1 || snap.Users[0].ID != 1 {
		t.Fatalf("users changed on error: got %#v want %#v", snap.Users, prev.Users)
	}
	if snap.Revision != prev.Revision {
		t.Fatalf("Revision = %d after error, want %d", snap.Revision, prev.Revision)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	if s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}

	s.Update(nil, nil, errors.New("fail 1"))
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after 1 failure: %d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Update(nil, nil, errors.New("fail 2"))
	if snap := s.Snapshot(); !snap.IsOffline() {
		t.Fatal("IsOffline() = false, want true with 2 failures")
	}

	s.Update(nil, nil, nil)
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success: %d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
}

func TestStore_WinesFollowActiveEvent(t *testing.T) {
	var s Store

	s.UpdateWines(4, []api.Wine{{ID: 1}})
	if len(s.Snapshot().Wines) != 0 {
		t.Fatal("wines stored without an active event")
	}

	s.SetActiveEvent(4)
	s.UpdateWines(4, []api.Wine{{ID: 1, EventID: 4}})
	if snap := s.Snapshot(); len(snap.Wines) != 1 || snap.WinesEvent != 4 {
		t.Fatalf("wines = %#v event %d, want one wine for event 4", snap.Wines, snap.WinesEvent)
	}

	// A late result for a previous event is discarded.
	s.SetActiveEvent(5)
	s.UpdateWines(4, []api.Wine{{ID: 2}})
	if snap := s.Snapshot(); snap.Wines != nil || snap.WinesEvent != 0 {
		t.Fatalf("stale wines kept: %#v", snap.Wines)
	}

	s.UpdateWines(5, []api.Wine{{ID: 3}})
	s.InvalidateWines()
	if snap := s.Snapshot(); snap.Wines != nil {
		t.Fatalf("wines = %#v after InvalidateWines, want nil", snap.Wines)
	}
	if s.ActiveEvent() != 5 {
		t.Fatalf("ActiveEvent = %d, want 5", s.ActiveEvent())
	}
}
