// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size)
//
// Inspect executes ffprobe and returns the parsed Result; Parse decodes an
// already captured payload. Helper methods expose stream counts, the first
// stream of each kind, rational frame rates and sample rates.
package ffprobe
