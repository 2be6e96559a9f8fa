// Package media implements footage probing: it turns ffprobe output into the
// MediaInfo facts that drive preview generation.
//
// Durations are rounded up to whole seconds so a preview never appears to end
// before its source. Probe results are cached per content hash, so repeated
// reconciles of identical bytes skip the external process.
package media
