package testsupport

import (
	"context"
	"testing"

	"reel/internal/catalog"
	"reel/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewFootage creates a footage record for path.
func NewFootage(t testing.TB, store *catalog.Store, path, originalName string) *catalog.Footage {
	t.Helper()

	f := &catalog.Footage{Path: path, OriginalFilename: originalName}
	if err := store.CreateFootage(context.Background(), f); err != nil {
		t.Fatalf("store.CreateFootage: %v", err)
	}
	return f
}

// LinkTake creates the scene if needed, get-or-creates the shot and take,
// applies rating, and links it to footage.
func LinkTake(t testing.TB, store *catalog.Store, footageID int64, scene int, shot string, takeNo, rating int) catalog.Take {
	t.Helper()

	ctx := context.Background()
	if _, err := store.GetScene(ctx, scene); err != nil {
		if err := store.CreateScene(ctx, catalog.Scene{Number: scene, Title: "scene"}); err != nil {
			t.Fatalf("store.CreateScene: %v", err)
		}
	}
	key := catalog.TakeKey{Scene: scene, Shot: shot, TakeNo: takeNo}
	take, err := store.EnsureTake(ctx, key)
	if err != nil {
		t.Fatalf("store.EnsureTake: %v", err)
	}
	if rating != take.Rating {
		take.Rating = rating
		if err := store.UpdateTake(ctx, take); err != nil {
			t.Fatalf("store.UpdateTake: %v", err)
		}
	}
	if err := store.LinkTake(ctx, catalog.FootageTake{FootageID: footageID, TakeKey: key}); err != nil {
		t.Fatalf("store.LinkTake: %v", err)
	}
	return take
}
