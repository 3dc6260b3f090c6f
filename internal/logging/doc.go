// Package logging provides structured logging with per-module log levels.
//
// Loggers are plain *slog.Logger values tagged with a "module" attribute:
//
//	logger := logging.GetLogger("serial")
//	logger.Info("Connected", "port", port, "baud", baud)
//
// Initialize once at startup; loggers obtained earlier are rebuilt so they
// pick up the configured format and outputs:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{"serial": "debug"},
//	})
//
// Records fan out to stdout (when a terminal, pipe, socket or file is
// attached), the systemd journal (when journald is reachable) and an
// in-memory ring buffer backing the log stream endpoint. SetLevels changes
// levels at runtime without touching handlers.
//
// Journal entries carry SYSLOG_IDENTIFIER=ledring and each attribute as an
// upper-case field:
//
//	journalctl -t ledring -f
//	journalctl -t ledring MODULE=serial
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	serial = "debug"
//	api = "warn"
package logging
