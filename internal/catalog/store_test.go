package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reel/internal/catalog"
	"reel/internal/services"
	"reel/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	status, err := store.SchemaStatus()
	require.NoError(t, err)
	assert.True(t, status.UpToDate(), "status %+v", status)
	assert.Equal(t, uint(1), status.Latest)

	// Reopening an already migrated database is a no-op.
	require.NoError(t, store.Close())
	reopened, err := catalog.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, reopened.Close())
}

func TestFootageCRUD(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	f := testsupport.NewFootage(t, store, "/root/footage/unlogged/clip1.mov", "clip1")
	require.NotZero(t, f.ID)

	fetched, err := store.GetFootage(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "clip1.mov", fetched.Filename())
	assert.Equal(t, "mov", fetched.Filetype())
	assert.Equal(t, "clip1", fetched.OriginalFilename)
	assert.Empty(t, fetched.ContentHash)
	assert.False(t, fetched.HasPreview())

	require.NoError(t, store.UpdateFootageDetails(ctx, f.ID, "good light", true))
	require.NoError(t, store.UpdateFootagePath(ctx, f.ID, "/root/footage/logged/42-clip1.mov"))
	fetched, err = store.GetFootage(ctx, f.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Logged)
	assert.Equal(t, "good light", fetched.Notes)
	assert.Equal(t, "/root/footage/logged/42-clip1.mov", fetched.Path)

	byPath, err := store.FindFootageByPath(ctx, fetched.Path)
	require.NoError(t, err)
	require.NotNil(t, byPath)
	assert.Equal(t, f.ID, byPath.ID)

	missing, err := store.FindFootageByPath(ctx, "/nowhere")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.DeleteFootage(ctx, f.ID))
	_, err = store.GetFootage(ctx, f.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.ErrorIs(t, store.DeleteFootage(ctx, f.ID), services.ErrNotFound)
}

func TestFootagePathIsUnique(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	testsupport.NewFootage(t, store, "/a.mov", "a")
	err := store.CreateFootage(context.Background(), &catalog.Footage{Path: "/a.mov"})
	assert.ErrorIs(t, err, services.ErrConflict)
}

func TestListFootageLoggedFilter(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	a := testsupport.NewFootage(t, store, "/b.mov", "b")
	testsupport.NewFootage(t, store, "/a.mov", "a")
	require.NoError(t, store.UpdateFootageDetails(ctx, a.ID, "", true))

	all, err := store.ListFootage(ctx, catalog.LoggedAny)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "/a.mov", all[0].Path, "ordered by path")

	logged, err := store.ListFootage(ctx, catalog.LoggedOnly)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, a.ID, logged[0].ID)

	unlogged, err := store.ListFootage(ctx, catalog.UnloggedOnly)
	require.NoError(t, err)
	require.Len(t, unlogged, 1)
	assert.Equal(t, "/a.mov", unlogged[0].Path)
}

func TestApplyContentComparesStoredHash(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	f := testsupport.NewFootage(t, store, "/clip.mov", "clip")

	update := catalog.ContentUpdate{ContentHash: "h1", Length: 13 * time.Second, HasVideo: true, HasAudio: true, Preview: "h1.mp4"}
	require.NoError(t, store.ApplyContent(ctx, f.ID, "", update))

	fetched, err := store.GetFootage(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "h1", fetched.ContentHash)
	assert.Equal(t, 13*time.Second, fetched.Length)
	assert.True(t, fetched.HasVideo)
	assert.Equal(t, "h1.mp4", fetched.Preview)

	stale := catalog.ContentUpdate{ContentHash: "h2"}
	err = store.ApplyContent(ctx, f.ID, "", stale)
	assert.ErrorIs(t, err, services.ErrConflict)

	err = store.ApplyContent(ctx, 9999, "", stale)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestPreviewReferences(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	a := testsupport.NewFootage(t, store, "/a.mov", "a")
	b := testsupport.NewFootage(t, store, "/b.mov", "b")
	for _, f := range []*catalog.Footage{a, b} {
		require.NoError(t, store.ApplyContent(ctx, f.ID, "", catalog.ContentUpdate{ContentHash: "same", Preview: "same.mp4"}))
	}

	refs, err := store.PreviewReferences(ctx, "same.mp4", a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, refs)

	refs, err = store.PreviewReferences(ctx, "", a.ID)
	require.NoError(t, err)
	assert.Zero(t, refs)
}

func TestSceneShotTakeHierarchy(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	assert.ErrorIs(t, store.CreateScene(ctx, catalog.Scene{Number: 0}), services.ErrValidation)
	require.NoError(t, store.CreateScene(ctx, catalog.Scene{Number: 3, Title: "Diner"}))
	assert.ErrorIs(t, store.CreateScene(ctx, catalog.Scene{Number: 3}), services.ErrConflict)

	assert.ErrorIs(t, store.CreateShot(ctx, catalog.Shot{Scene: 4, Name: "A"}), services.ErrNotFound)
	require.NoError(t, store.CreateShot(ctx, catalog.Shot{Scene: 3, Name: "B", Description: "wide"}))

	_, err := store.CreateTake(ctx, catalog.Take{TakeKey: catalog.TakeKey{Scene: 3, Shot: "C", TakeNo: 1}})
	assert.ErrorIs(t, err, services.ErrValidation, "take must reference an existing shot")

	take, err := store.CreateTake(ctx, catalog.Take{TakeKey: catalog.TakeKey{Scene: 3, Shot: "B", TakeNo: 2}, Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, take.Rating)

	shots, err := store.ListShots(ctx, 3)
	require.NoError(t, err)
	require.Len(t, shots, 1)
	assert.Equal(t, "wide", shots[0].Description)

	require.NoError(t, store.DeleteScene(ctx, 3))
	_, err = store.GetShot(ctx, 3, "B")
	assert.ErrorIs(t, err, services.ErrNotFound, "shots cascade from scene")
	_, err = store.GetTake(ctx, catalog.TakeKey{Scene: 3, Shot: "B", TakeNo: 2})
	assert.ErrorIs(t, err, services.ErrNotFound, "takes cascade from shot")
}

func TestCreateTakeFillsMarkedFieldsOnce(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	require.NoError(t, store.CreateScene(ctx, catalog.Scene{Number: 1}))
	require.NoError(t, store.CreateShot(ctx, catalog.Shot{Scene: 1, Name: "A"}))

	key := catalog.TakeKey{Scene: 1, Shot: "A", TakeNo: 2}
	_, err := store.CreateTake(ctx, catalog.Take{TakeKey: key})
	require.NoError(t, err)

	take, err := store.GetTake(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, take.MarkedScene)
	assert.Equal(t, "A", take.MarkedShot)
	assert.Equal(t, 2, take.MarkedTake)

	take.MarkedScene, take.MarkedShot, take.MarkedTake = 0, "", 0
	require.NoError(t, store.UpdateTake(ctx, *take))
	take, err = store.GetTake(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, take.MarkedScene)
	assert.Empty(t, take.MarkedShot)
	assert.Zero(t, take.MarkedTake)

	partial := catalog.Take{TakeKey: catalog.TakeKey{Scene: 1, Shot: "A", TakeNo: 3}, MarkedShot: "Z"}
	created, err := store.CreateTake(ctx, partial)
	require.NoError(t, err)
	assert.Equal(t, 1, created.MarkedScene)
	assert.Equal(t, "Z", created.MarkedShot)
	assert.Equal(t, 3, created.MarkedTake)
}

func TestLinksAndRatings(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	f := testsupport.NewFootage(t, store, "/clip.mov", "clip")

	ratings, err := store.Ratings(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.Ratings{}, ratings)

	testsupport.LinkTake(t, store, f.ID, 2, "B", 1, 3)
	testsupport.LinkTake(t, store, f.ID, 1, "A", 2, -4)
	testsupport.LinkTake(t, store, f.ID, 1, "A", 1, 7)

	linked, err := store.TakesForFootage(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, linked, 3)
	assert.Equal(t, catalog.TakeKey{Scene: 1, Shot: "A", TakeNo: 1}, linked[0].TakeKey)
	assert.Equal(t, catalog.TakeKey{Scene: 1, Shot: "A", TakeNo: 2}, linked[1].TakeKey)
	assert.Equal(t, catalog.TakeKey{Scene: 2, Shot: "B", TakeNo: 1}, linked[2].TakeKey)
	assert.False(t, linked[0].ShotMissing)

	ratings, err = store.Ratings(ctx, f.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, ratings.Average, 1e-9)
	assert.Equal(t, 7, ratings.Max)
	assert.Equal(t, 3, ratings.Count)

	key := catalog.TakeKey{Scene: 1, Shot: "A", TakeNo: 2}
	require.NoError(t, store.LinkTake(ctx, catalog.FootageTake{FootageID: f.ID, TakeKey: key, StartTime: 90 * time.Second}))
	linked, err = store.TakesForFootage(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, linked[1].StartTime)

	require.NoError(t, store.UnlinkTake(ctx, f.ID, key))
	_, err = store.GetTake(ctx, key)
	require.NoError(t, err, "unlink keeps the take")
	assert.ErrorIs(t, store.UnlinkTake(ctx, f.ID, key), services.ErrNotFound)

	require.NoError(t, store.DeleteFootage(ctx, f.ID))
	_, err = store.GetTake(ctx, catalog.TakeKey{Scene: 2, Shot: "B", TakeNo: 1})
	require.NoError(t, err, "deleting footage keeps linked takes")
}

func TestEnsureTakeRequiresScene(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, err := store.EnsureTake(context.Background(), catalog.TakeKey{Scene: 9, Shot: "A", TakeNo: 1})
	assert.True(t, errors.Is(err, services.ErrNotFound), "got %v", err)
}

func TestComments(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	f := testsupport.NewFootage(t, store, "/clip.mov", "clip")

	late := &catalog.Comment{FootageID: f.ID, Time: 40 * time.Second, Body: "boom in frame"}
	early := &catalog.Comment{FootageID: f.ID, Time: 5 * time.Second, Body: "slate"}
	require.NoError(t, store.AddComment(ctx, late))
	require.NoError(t, store.AddComment(ctx, early))
	assert.ErrorIs(t, store.AddComment(ctx, &catalog.Comment{FootageID: f.ID}), services.ErrValidation)

	comments, err := store.ListComments(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "slate", comments[0].Body)

	early.Body = "clap"
	require.NoError(t, store.UpdateComment(ctx, *early))
	require.NoError(t, store.DeleteComment(ctx, late.ID))
	comments, err = store.ListComments(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "clap", comments[0].Body)
}
