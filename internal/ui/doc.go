// Package ui provides the terminal interface for sommelier.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. The root Model owns the screens and
// forwards everything it does not handle itself to three sub-models:
//
//   - session.Model: login, heartbeat and forced logout
//   - gate.Gate: the admin PIN prompt guarding destructive actions
//   - pagella.Engine: load, autosave and poll of the open event's notes
//
// Sub-models are pointers so their timers and generation counters survive
// the value copies Bubble Tea makes of the root model.
//
// # Screens
//
//   - Login: participant list, sign in, force disconnect, single-session toggle
//   - Events: tasting events from the directory poller
//   - Pagella: the shared note; editors get a textarea, everyone else a
//     read-only viewport, with the wine list in a sidebar on wide terminals
//
// # Event Flow
//
//  1. Init starts the UI tick and reads the first state.Store snapshot
//  2. Each tick re-reads the snapshot; a new revision revalidates the
//     session user against the directory
//  3. Key presses go to the PIN prompt first when it is open, then to the
//     active screen
//  4. Timer and network messages are routed to every live sub-model; each
//     one drops messages that are not addressed to it
//  5. LoggedOutMsg from the session returns to the login screen and stops
//     the pagella engine
//
// # Key Bindings
//
//   - j/k, g/G: Move the selection
//   - Enter: Sign in or open the selected event
//   - D: Disconnect every session of the selected user (PIN)
//   - U: Toggle single-session login (PIN)
//   - Esc: Back to the event list
//   - Ctrl+R: Reload the pagella now
//   - Ctrl+X: Discard the local draft (PIN)
//   - Ctrl+O: Log out
//   - T: Cycle theme
//   - ?/F1: Help
//   - Ctrl+C: Quit, logging out first
package ui
