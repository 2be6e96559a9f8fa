package organizer

import (
	"os"
	"path/filepath"
	"testing"

	"reel/internal/catalog"
)

func TestSymbolForRatingBoundaries(t *testing.T) {
	tests := map[int]string{
		-16: "XXX",
		-15: "XX",
		-11: "XX",
		-10: "X",
		-6:  "X",
		-5:  "x",
		-1:  "x",
		0:   "^",
		4:   "^",
		5:   "o",
		9:   "o",
		10:  "O",
		100: "O",
	}
	for rating, want := range tests {
		if got := SymbolForRating(rating); got != want {
			t.Fatalf("SymbolForRating(%d) = %q, want %q", rating, got, want)
		}
	}
}

func TestRoundRatingHalfToEven(t *testing.T) {
	tests := map[float64]int{2.5: 2, 3.5: 4, -0.5: 0, 1.4: 1, -2.6: -3}
	for in, want := range tests {
		if got := RoundRating(in); got != want {
			t.Fatalf("RoundRating(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestFilenameFallsBackToID(t *testing.T) {
	f := &catalog.Footage{ID: 42, Path: "/footage/unlogged/clip1.MTS", ContentHash: "abc123", OriginalFilename: "clip1"}
	got := Filename(f, Identity{Scene: 3, Shot: "B", Take: 2}, catalog.Ratings{}, Policy{IncludeRating: RatingNone})
	if got != "42.MTS" {
		t.Fatalf("Filename = %q", got)
	}
}

func TestFilenameWithoutExtension(t *testing.T) {
	f := &catalog.Footage{ID: 7, Path: "/footage/unlogged/rawdump"}
	if got := Filename(f, Identity{Take: 7}, catalog.Ratings{}, Policy{IncludeUID: true}); got != "7" {
		t.Fatalf("Filename = %q", got)
	}
}

func TestFilenameComponents(t *testing.T) {
	f := &catalog.Footage{ID: 5, Path: "/x/a.mov", ContentHash: "h", OriginalFilename: "a"}
	ratings := catalog.Ratings{Average: 2.5, Max: 11, Count: 2}
	id := Identity{Scene: 1, Shot: "A", Take: 3}

	tests := []struct {
		name   string
		policy Policy
		want   string
	}{
		{name: "everything with average number", policy: Policy{IncludeUID: true, IncludeHash: true, IncludeOriginalFilename: true, IncludeTakeInFilename: true, IncludeRating: RatingNumber, UseRating: RatingAverage}, want: "5-h-a-1A-3-2.mov"},
		{name: "max symbol", policy: Policy{IncludeUID: true, IncludeRating: RatingSymbol, UseRating: RatingMax}, want: "5-O.mov"},
		{name: "rating only", policy: Policy{IncludeRating: RatingNumber, UseRating: RatingMax}, want: "11.mov"},
		{name: "hash only", policy: Policy{IncludeHash: true, IncludeRating: RatingNone}, want: "h.mov"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Filename(f, id, ratings, tc.policy); got != tc.want {
				t.Fatalf("Filename = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDirectoryLayouts(t *testing.T) {
	id := Identity{Scene: 3, Shot: "B", Take: 2}
	tests := map[FolderSort]string{
		SortNone:          "logged",
		SortScene:         "scene3",
		SortSceneShot:     filepath.Join("scene3", "shot3B"),
		SortSceneShotTake: filepath.Join("scene3", "shot3B", "take3B2"),
	}
	for sort, want := range tests {
		if got := Directory(id, sort); got != want {
			t.Fatalf("Directory(%v) = %q, want %q", sort, got, want)
		}
	}
}

func TestFormatEndToEndScenario(t *testing.T) {
	root := t.TempDir()
	f := &catalog.Footage{ID: 42, Path: "/footage/unlogged/clip1.mov", ContentHash: "abc123", OriginalFilename: "clip1"}
	takes := []catalog.LinkedTake{linked(3, "B", 2)}
	policy := Policy{
		IncludeUID:              true,
		IncludeOriginalFilename: true,
		IncludeTakeInFilename:   true,
		IncludeRating:           RatingNone,
		BaseTakesOn:             TrueTake,
		ForMultipleTakesUse:     SelectFirst,
		SortFoldersBy:           SortSceneShot,
	}

	id := Resolve(f.ID, takes, policy.ForMultipleTakesUse, policy.BaseTakesOn)
	if id != (Identity{Scene: 3, Shot: "B", Take: 2}) {
		t.Fatalf("identity = %+v", id)
	}

	formatter := NewFormatter(root)
	for i := 0; i < 2; i++ {
		dir, name, err := formatter.Format(f, id, catalog.Ratings{}, policy)
		if err != nil {
			t.Fatalf("Format (call %d): %v", i+1, err)
		}
		if name != "42-clip1-3B-2.mov" {
			t.Fatalf("filename = %q", name)
		}
		if dir != filepath.Join(root, "scene3", "shot3B") {
			t.Fatalf("directory = %q", dir)
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory to exist: %v", err)
		}
	}
}

func TestFilenameSanitizesUserComponents(t *testing.T) {
	f := &catalog.Footage{ID: 1, Path: "/x/a.mov", OriginalFilename: "a/b"}
	got := Filename(f, Identity{Scene: 1, Shot: "A/B", Take: 1}, catalog.Ratings{}, Policy{IncludeOriginalFilename: true, IncludeTakeInFilename: true})
	if got != "a-b-1A-B-1.mov" {
		t.Fatalf("Filename = %q", got)
	}
	if dir := Directory(Identity{Scene: 1, Shot: "../x"}, SortSceneShot); dir != filepath.Join("scene1", "shot1..-x") {
		t.Fatalf("Directory = %q", dir)
	}
}
