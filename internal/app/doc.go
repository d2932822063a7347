// Package app is the composition root of the sommelier client.
//
// Run loads the TOML configuration and preferences, makes sure the device has
// a persistent id, opens the log file, and builds the API client, the admin
// PIN verifier and the draft store. It then starts the directory poller and
// hands everything to the UI, blocking until the user quits.
//
// # Directory poller
//
// The poller is the only goroutine outside Bubble Tea. Every
// directory_seconds it fetches users and events, plus the wines of the
// active event, and writes them into a state.Store:
//
//	StartPoller() goroutine
//	  ├─> FetchUsers()
//	  ├─> FetchEvents()
//	  ├─> store.Update()       (Revision++ on success)
//	  └─> FetchWines(active)   (store.UpdateWines)
//
// Failures are logged and counted; while the API is unreachable the wait
// doubles per failure, capped at two minutes. The UI reads snapshots on its
// own tick and revalidates the session whenever Revision moves. Trigger asks
// for an early refresh, used after login and when the active event changes.
//
// # Errors
//
// Configuration problems, a missing admin PIN, and an unopenable log file are
// fatal and returned from Run. Refresh failures never are.
package app
