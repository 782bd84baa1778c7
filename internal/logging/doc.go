// Package logging provides structured logging with per-module log level
// configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// A ring buffer keeps the most recent entries in memory regardless of
// level so a crash report can include the lead-up.
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"animator": "debug",  // Per-module overrides
//			"storage":  "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("animator")
//	logger.Info("Routine started", "routine", "wheel_loop")
//	logger.Debug("Frame", "due", due)
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t stripd              # All stripd logs
//	journalctl -t stripd -f           # Follow live
//	journalctl -t stripd -p err       # Errors only
//
// Filter by structured fields:
//
//	journalctl -t stripd MODULE=storage
//
// # Configuration
//
// Log levels can be set globally or per-module. Module-specific levels
// override the global level for that module only, and both can be
// changed at runtime through UpdateLevels when the config file is
// reloaded.
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	controller = "debug"
//	storage = "warn"
package logging
