// Package log provides structured protocol event logging for sealink.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at the transport (framing) and secretbox (crypto)
// layers. It is separate from operational logging (slog): protocol capture
// produces a complete machine-readable trace of every frame and seal/open
// operation for debugging and analysis.
//
// # Basic Usage
//
// Components accept a Logger; pass nil or NoopLogger to disable capture:
//
//	// For development: log to console via slog
//	logger := log.NewSlogAdapter(slog.Default())
//
//	// For production analysis: write CBOR records to a file
//	logger, _ := log.NewFileLogger("/var/log/sealink/echo.slog")
//
//	// Both at once
//	logger := log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// Log files are a stream of CBOR-encoded Event records; Reader iterates
// them, optionally filtered.
package log
