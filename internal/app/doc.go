// Package app wires the license engine into a runnable application.
//
// # Initialization Flow
//
//  1. Validate configuration
//  2. Initialize logging and OpenTelemetry (local only)
//  3. Register license metrics
//  4. Create the file store and license manager, then load persisted state
//  5. Build the chi router for the local license API
//
// Run serves until the context is cancelled or SIGINT/SIGTERM arrives and
// then shuts the server down within Server.ShutdownTimeout. Close releases
// telemetry providers and the log file.
package app
