// Package logging assembles structured slog loggers used across reel.
//
// It owns the console and JSON handlers, parses levels, and exposes
// context-aware helpers so lifecycle and organizer code automatically tag log
// lines with footage IDs, operation names, and correlation IDs. A no-op logger
// is provided for tests and wiring code that cannot fail.
package logging
