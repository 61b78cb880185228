// Package config provides centralized configuration for the VocaNote license engine.
//
// # Configuration Sources
//
// Configuration is layered, lowest precedence first:
//
//  1. Built-in defaults (Default)
//  2. vocanote.yaml beside the executable
//  3. VOCANOTE_* environment variables
//
// For example:
//
//	VOCANOTE_LOGGING_LEVEL=debug
//	VOCANOTE_LICENSE_FILE=/opt/vocanote/vocanote_license.json
//	VOCANOTE_SERVER_LISTEN_ADDR=127.0.0.1:8765
//	VOCANOTE_TELEMETRY_METRICS_ENABLED=true
//
// # Path Management
//
// All paths are resolved relative to the executable, never the working
// directory, so the license state is found whether the program runs as a
// packaged binary or from a development build:
//
//	paths, err := config.GetPaths()
//	licenseFile := paths.LicenseFile
//
// # Protocol Constants
//
// The license protocol values (product identifier, master passphrase, salt,
// PBKDF2 iteration count) are constants shared with the external issuer.
// They are intentionally absent from Config.
package config
