// Package session owns the client's login state and the heartbeat that keeps
// a server session alive.
//
// # State Machine
//
//	LoggedOut ──Login──> LoggingIn ──ok──> LoggedIn
//	    ^                    │                 │
//	    └──────failure───────┘                 │
//	    └──logout | heartbeat rejected | user gone
//
// The heartbeat loop runs if and only if the state is LoggedIn. Entering
// LoggedIn starts it once; every way out stops it.
//
// # Messages
//
// The Model is a Bubble Tea sub-model. Network calls run as commands and
// come back through Update. The parent observes transitions through
// LoggedInMsg, LoggedOutMsg and NoticeMsg.
//
// # Failure Handling
//
//   - Login 409: NoticeConflict, telling the user to disconnect the other
//     device. Nothing local is cleared.
//   - Any other login failure: NoticeError with a generic retry message.
//   - Heartbeat answered with a non-2xx status: forced logout, once.
//   - Heartbeat that never got an answer: ignored, the next tick still fires.
//   - User missing from a refreshed directory: forced logout.
//
// Every session change bumps a generation counter, so results belonging to
// an earlier session are dropped.
package session
