package organizer

import (
	"cmp"
	"math"
	"slices"

	"reel/internal/catalog"
)

// Identity is the resolved (scene, shot, take) of a footage item. Take holds
// the footage ID when no take is linked.
type Identity struct {
	Scene int
	Shot  string
	Take  int64
}

// Resolve picks the representative take of a footage item and returns its
// identity. Footage without takes resolves to (0, "", footageID). Takes are
// ordered by (scene, shot, take) before selection; any selection other than
// SelectLast or SelectMedian behaves as SelectFirst.
func Resolve(footageID int64, takes []catalog.LinkedTake, selection TakeSelection, basis TakeBasis) Identity {
	if len(takes) == 0 {
		return Identity{Take: footageID}
	}

	ordered := slices.Clone(takes)
	slices.SortStableFunc(ordered, func(a, b catalog.LinkedTake) int {
		return cmp.Or(
			cmp.Compare(a.Scene, b.Scene),
			cmp.Compare(a.Shot, b.Shot),
			cmp.Compare(a.TakeNo, b.TakeNo),
		)
	})

	var chosen catalog.LinkedTake
	switch selection {
	case SelectLast:
		chosen = ordered[len(ordered)-1]
	case SelectMedian:
		chosen = ordered[MedianIndex(len(ordered))]
	default:
		chosen = ordered[0]
	}

	id := Identity{Scene: chosen.Scene, Shot: chosen.Shot, Take: int64(chosen.TakeNo)}
	if chosen.ShotMissing {
		id.Scene = 0
	}
	if basis == MarkedTakeFirst {
		if chosen.MarkedScene != 0 {
			id.Scene = chosen.MarkedScene
		}
		if chosen.MarkedShot != "" {
			id.Shot = chosen.MarkedShot
		}
		if chosen.MarkedTake != 0 {
			id.Take = int64(chosen.MarkedTake)
		}
	}
	return id
}

// MedianIndex returns round(count/2) with ties to even, clamped to a valid
// index. This is a position in the sorted takes, not a statistical median:
// for three takes it selects the last one.
func MedianIndex(count int) int {
	if count <= 0 {
		return 0
	}
	idx := int(math.RoundToEven(float64(count) / 2))
	return min(max(idx, 0), count-1)
}
