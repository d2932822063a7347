// Package state provides thread-safe storage for the tasting directory: the
// user list, the event list and the wines of the active event.
//
// # Overview
//
// The background refresher in package app writes the store; the UI reads
// snapshots on its own tick. The store mediates between the two goroutines:
//
//	Producer (refresher):          Consumer (UI):
//	┌────────────────┐            ┌──────────────────┐
//	│ FetchUsers()   │            │                  │
//	│ FetchEvents()  │            │                  │
//	│ FetchWines()   │            │                  │
//	│      ↓         │            │                  │
//	│ store.Update() │───────────→│ store.Snapshot() │
//	└────────────────┘  (mutex)   └──────────────────┘
//
// # Update Semantics
//
// A successful Update replaces users and events, bumps Revision and resets
// ConsecutiveFailures. A failed Update keeps the previous lists and records
// the error. The user list is the authoritative one the session revalidates
// against, so only successful refreshes change Revision.
//
// Wines are scoped to the active event. SetActiveEvent drops the cached
// list, UpdateWines ignores results for any other event, and
// InvalidateWines clears the list after a login.
//
// # Defensive Copying
//
// Snapshot returns cloned slices and a wrapped copy of the last error, so
// the UI can hold on to a snapshot without racing the refresher.
//
// The zero Store is ready to use.
package state
