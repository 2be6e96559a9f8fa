// Package services defines shared utilities consumed by the footage lifecycle,
// the organizer, and the outer CLI/HTTP surfaces.
//
// Key responsibilities:
//   - Context helpers that stamp footage IDs, operation names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify a
//     failure with errors.Is and render it without string matching.
//
// Use these helpers when wiring new operations so error reporting and
// observability stay uniform across the tool.
package services
