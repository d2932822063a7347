// Package api provides an HTTP client for the tasting REST API.
//
// # Overview
//
// The client covers the calls the session and pagella subsystems need, plus
// the directory listings the UI shows:
//
//   - POST /users/{id}/login      open a session (X-Unique-Session header)
//   - POST /users/{id}/logout     best-effort session close
//   - POST /users/{id}/heartbeat  session liveness
//   - GET  /events/{id}/pagella   read the shared note
//   - PUT  /events/{id}/pagella   write the shared note
//   - GET  /users, /events, /events/{id}/wines
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Send Accept: application/json and User-Agent: sommelier/0.1
//   - Carry a fresh X-Request-ID and, when configured, the X-Device-ID
//   - Have a 5-second client timeout
//
// # Error Handling
//
// Callers must be able to tell "the server said no" from "the server could
// not be reached": a rejected heartbeat ends the session, an unreachable one
// does not. Non-2xx responses therefore come back as *StatusError, while
// transport and decode failures are wrapped errors:
//
//	err := client.Heartbeat(ctx, userID, token)
//	switch {
//	case err == nil:
//	case api.IsRejection(err):
//		// session is gone
//	default:
//		// network trouble, try again next tick
//	}
//
// IsStatus(err, http.StatusConflict) identifies a login refused because the
// user is already signed in elsewhere.
//
// # Timestamps
//
// updatedAt values travel as RFC 3339 strings. Pagella.ParsedUpdatedAt
// returns the zero time for missing or unparseable values, which callers
// treat as "never saved".
//
// # URL Construction
//
// NewClient accepts "host:port" or a full URL; the scheme defaults to http
// and any path, query or fragment is discarded.
package api
