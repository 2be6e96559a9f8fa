// Package preflight provides readiness checks for the external tools and
// filesystem paths reel depends on.
//
// The CLI "reel status" command renders every check. Commands that ingest,
// reconcile or serve call RunAll first and stop when a required check fails,
// so a missing ffmpeg is reported once instead of per footage item.
package preflight
