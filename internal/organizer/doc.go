// Package organizer computes canonical locations for footage and moves files
// there.
//
// Resolve picks the take that represents a footage item and settles its
// (scene, shot, take) identity between true and marked values. Filename and
// Directory turn that identity into a target path under the footage root.
// Organizer drives both over a batch, isolating per-item failures so one bad
// file never blocks the rest.
//
// Policy values come from the [format] config section; selectors accept both
// named values ("scene_shot") and the legacy numeric values ("3").
package organizer
