package organizer

import (
	"testing"

	"reel/internal/catalog"
)

func linked(scene int, shot string, take int) catalog.LinkedTake {
	return catalog.LinkedTake{Take: catalog.Take{TakeKey: catalog.TakeKey{Scene: scene, Shot: shot, TakeNo: take}}}
}

func TestResolveNoTakesFallsBackToFootageID(t *testing.T) {
	got := Resolve(42, nil, SelectFirst, TrueTake)
	if got != (Identity{Scene: 0, Shot: "", Take: 42}) {
		t.Fatalf("unexpected identity %+v", got)
	}
}

func TestResolveSelection(t *testing.T) {
	// Deliberately unsorted input.
	takes := []catalog.LinkedTake{linked(2, "B", 1), linked(1, "A", 2), linked(1, "A", 1)}

	tests := []struct {
		name      string
		selection TakeSelection
		want      Identity
	}{
		{name: "first", selection: SelectFirst, want: Identity{Scene: 1, Shot: "A", Take: 1}},
		{name: "last", selection: SelectLast, want: Identity{Scene: 2, Shot: "B", Take: 1}},
		{name: "median of three is index two", selection: SelectMedian, want: Identity{Scene: 2, Shot: "B", Take: 1}},
		{name: "unknown defaults to first", selection: TakeSelection(99), want: Identity{Scene: 1, Shot: "A", Take: 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(7, takes, tc.selection, TrueTake); got != tc.want {
				t.Fatalf("Resolve = %+v, want %+v", got, tc.want)
			}
		})
	}
	if takes[0].Scene != 2 {
		t.Fatal("Resolve must not reorder the caller's slice")
	}
}

func TestMedianIndex(t *testing.T) {
	tests := map[int]int{
		0: 0,
		1: 0, // round(0.5) = 0
		2: 1,
		3: 2, // round(1.5) = 2
		4: 2,
		5: 2, // round(2.5) = 2
		6: 3,
		7: 4, // round(3.5) = 4
	}
	for count, want := range tests {
		if got := MedianIndex(count); got != want {
			t.Fatalf("MedianIndex(%d) = %d, want %d", count, got, want)
		}
		if count > 0 && (MedianIndex(count) < 0 || MedianIndex(count) >= count) {
			t.Fatalf("MedianIndex(%d) out of range", count)
		}
	}
}

func TestResolveMarkedTakeFirstOverridesFieldByField(t *testing.T) {
	take := linked(3, "B", 2)
	take.MarkedShot = "C"
	takes := []catalog.LinkedTake{take}

	if got := Resolve(1, takes, SelectFirst, TrueTake); got != (Identity{Scene: 3, Shot: "B", Take: 2}) {
		t.Fatalf("true identity = %+v", got)
	}
	if got := Resolve(1, takes, SelectFirst, MarkedTakeFirst); got != (Identity{Scene: 3, Shot: "C", Take: 2}) {
		t.Fatalf("marked identity = %+v", got)
	}

	take.MarkedScene, take.MarkedTake = 9, 5
	if got := Resolve(1, []catalog.LinkedTake{take}, SelectFirst, MarkedTakeFirst); got != (Identity{Scene: 9, Shot: "C", Take: 5}) {
		t.Fatalf("fully marked identity = %+v", got)
	}
}

func TestResolveMissingShotYieldsSceneZero(t *testing.T) {
	take := linked(4, "A", 1)
	take.ShotMissing = true
	if got := Resolve(1, []catalog.LinkedTake{take}, SelectFirst, TrueTake); got != (Identity{Scene: 0, Shot: "A", Take: 1}) {
		t.Fatalf("unexpected identity %+v", got)
	}
}
