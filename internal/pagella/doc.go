// Package pagella keeps an event's shared note in sync with the server.
//
// # Overview
//
// The note is a single server-owned text per event. Two allow-listed users
// edit it; everyone else reads it. There is no merge: the last write wins and
// the client decides whether to accept incoming text by comparing
// timestamps.
//
// # Lifecycle
//
//	Init ──> initial load ──> poll every 10s ──> Stop
//	            │
//	            ├─ content     → display it, remember updatedAt
//	            ├─ empty       → display the local draft, if any
//	            └─ failure     → display the local draft, silently
//
// Polling starts only after the initial load completes, successful or not.
//
// # Edits
//
// Every ContentChanged call:
//
//  1. replaces the displayed text
//  2. writes the local draft, for editors and viewers alike
//  3. marks the user as typing for the next second
//  4. for editors, re-arms the 600ms autosave
//
// Only the text current when the autosave fires is sent. A save in flight is
// never cancelled. The status badge goes saving → saved (idle after 2s) or
// saving → error (idle after 3s).
//
// # Poll Rule
//
// A polled copy replaces the displayed text only when the user is not typing
// and its updatedAt is strictly after the last one the engine accepted.
// Equal timestamps are never applied, even if the text differs. The known
// timestamp only moves forward, including when a late save acknowledgment
// arrives.
//
// # Failure Semantics
//
// Network failures never leave this package. Loads fall back to the draft,
// polls wait for the next tick, saves show the error badge.
package pagella
