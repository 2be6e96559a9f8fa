// Package footage owns the lifecycle of footage records: ingesting files into
// the storage root, reconciling derived content (hash, duration, stream flags,
// preview) with the bytes on disk, serving previews, and deleting records
// together with their files.
//
// Reconcile runs hash, probe, preview and persist strictly in that order and
// writes the new hash only once everything derived from it is ready. Work on
// one footage ID is serialized in-process; the catalog's compare-and-set on
// the previous hash rejects writes from a superseded run.
package footage
