// Package config handles loading and parsing the sommelier client configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/sommelier/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - API endpoint: 127.0.0.1:8787
//   - Editors: Marco, Giulia
//   - Draft file: ~/.local/share/sommelier/drafts.toml
//   - Log file: none (logs are discarded)
//   - Heartbeat: 60s, pagella poll: 10s, directory refresh: 30s
//
// # TOML Format
//
//	api_bind = "127.0.0.1:8787"
//	event_id = 3
//	editors = ["Marco", "Giulia"]
//	admin_pin_hash = "$2a$10$..."
//	draft_path = "~/.local/share/sommelier/drafts.toml"
//	log_file = "~/.local/state/sommelier/client.log"
//	log_level = "debug"
//	heartbeat_seconds = 60
//	poll_seconds = 10
//	directory_seconds = 30
//
// admin_pin_hash holds a bcrypt hash and takes precedence over the plain
// admin_pin. Validate rejects a config that sets neither, since the
// admin-gated actions would be unreachable.
//
// Tilde expansion is performed for draft_path and log_file.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, and TOML parsing errors. A missing file is not an error.
package config
