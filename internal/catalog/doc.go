// Package catalog persists footage, the scene/shot/take hierarchy, footage to
// take links and comments in SQLite.
//
// The schema is applied through golang-migrate on Open. Composite keys are
// enforced with foreign keys: a Shot requires its Scene, a Take requires its
// Shot, and a link requires its Take. Deleting a parent cascades to children;
// deleting either side of a link removes only the link row.
//
// Content fields of a footage record (hash, duration, stream flags, preview)
// are written with a compare-and-set on the previously stored hash so a stale
// reconcile can never overwrite a newer one.
package catalog
