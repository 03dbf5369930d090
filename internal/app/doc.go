// Package app is the composition root for tagdeck.
//
// # Overview
//
// Setup wires configuration, logging, the backend client, the artifact
// registry and the session workflow into an Env. The TUI (Run) and the
// headless commands in cmd/tagdeck both start from Setup, so they share one
// code path from link to saved file.
//
// # Startup
//
//  1. Load ~/.config/tagdeck/config.toml (missing file yields defaults)
//  2. Build the slog logger for the configured file plus any extra outputs
//  3. Create the backend client with the configured request timeout
//  4. Create the artifact registry; the TUI also starts the loopback link
//     server unless serve_bind is "off"
//  5. Create the workflow in the Idle phase
//  6. Run only: start the health poller and the Bubble Tea program
//
// # Health Polling
//
// The poller pings GET /health in the background and records each result in
// a state.Store that the UI header reads. Failures double the interval per
// consecutive miss, capped at 30 seconds, so an absent service is not
// hammered. Poll results never block or alter the workflow: a request made
// while the service looks offline is still sent, and its own error is what
// the user sees.
//
// # Error Handling
//
// Setup returns errors for an unreadable or invalid config, an unusable log
// destination and an unparsable api_url. A link server that cannot bind is
// logged and skipped.
package app
