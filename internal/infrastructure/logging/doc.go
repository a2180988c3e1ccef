// Package logging provides structured logging for hmtk.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the application.
//
// # Features
//
//   - Text output for interactive CLI use (human-readable, the default)
//   - JSON output for running under a collector
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig section:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # text, json
//	  output: "stderr"   # stderr, stdout
//
// Logs go to stderr by default: the query command prints its result on
// stdout and the two streams must not interleave.
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("connected", "broker", "localhost:1883")
//	logger.Error("query failed", "error", err)
//
// # Security
//
// Never log secrets: broker passwords and InfluxDB tokens stay out of
// log fields.
package logging
