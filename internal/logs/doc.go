// Package logs reads the reel log file for the "reel logs" command.
//
// Tail returns the last N lines (negative offset) or everything after a byte
// offset, optionally polling for new lines in follow mode. A Match filter
// narrows output to one footage item or component; FootageFilter understands
// both the console and JSON log formats.
package logs
