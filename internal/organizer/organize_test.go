package organizer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reel/internal/catalog"
	"reel/internal/logging"
	"reel/internal/metrics"
	"reel/internal/organizer"
	"reel/internal/services"
	"reel/internal/testsupport"
)

type fixture struct {
	store *catalog.Store
	root  string
	org   *organizer.Organizer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	m, err := metrics.New()
	require.NoError(t, err)
	root := cfg.FootageRoot()
	return fixture{
		store: store,
		root:  root,
		org:   organizer.New(store, root, logging.NewNop(), organizer.WithMetrics(m)),
	}
}

func (f fixture) addFootage(t *testing.T, name string, logged bool) *catalog.Footage {
	t.Helper()
	path := filepath.Join(f.root, "unlogged", name)
	testsupport.WriteContent(t, path, "bytes of "+name)
	footage := testsupport.NewFootage(t, f.store, path, name[:len(name)-len(filepath.Ext(name))])
	if logged {
		require.NoError(t, f.store.UpdateFootageDetails(context.Background(), footage.ID, "", true))
		footage.Logged = true
	}
	return footage
}

func scenePolicy() organizer.Policy {
	return organizer.Policy{
		IncludeUID:                true,
		IncludeOriginalFilename:   true,
		IncludeTakeInFilename:     true,
		IncludeRating:             organizer.RatingNone,
		UseRating:                 organizer.RatingAverage,
		BaseTakesOn:               organizer.TrueTake,
		ForMultipleTakesUse:       organizer.SelectFirst,
		SortFoldersBy:             organizer.SortSceneShot,
		OnlyLoggedFootage:         false,
		OnlyCreateUsedDirectories: true,
	}
}

func TestOrganizeMovesFilesAndUpdatesPaths(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	clip := fx.addFootage(t, "clip1.mov", true)
	testsupport.LinkTake(t, fx.store, clip.ID, 3, "B", 2, 0)

	result, err := fx.org.Organize(ctx, scenePolicy())
	require.NoError(t, err)
	require.Equal(t, 1, result.Moved)
	require.Empty(t, result.Failures())

	want := filepath.Join(fx.root, "scene3", "shot3B", strconv.FormatInt(clip.ID, 10)+"-clip1-3B-2.mov")
	assert.FileExists(t, want)
	assert.NoFileExists(t, clip.Path)

	stored, err := fx.store.GetFootage(ctx, clip.ID)
	require.NoError(t, err)
	assert.Equal(t, want, stored.Path)

	// Running again is idempotent.
	again, err := fx.org.Organize(ctx, scenePolicy())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Moved)
	assert.Equal(t, 1, again.Unchanged)
	assert.FileExists(t, want)
}

func TestOrganizeBatchPartialFailure(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	first := fx.addFootage(t, "a.mov", true)
	second := fx.addFootage(t, "b.mov", true)
	third := fx.addFootage(t, "c.mov", true)
	require.NoError(t, os.Remove(second.Path))

	policy := scenePolicy()
	policy.SortFoldersBy = organizer.SortNone
	result, err := fx.org.OrganizeFootage(ctx, []*catalog.Footage{first, second, third}, policy)
	require.NoError(t, err)

	require.Len(t, result.Items, 3)
	assert.Equal(t, 2, result.Moved)
	assert.Equal(t, 1, result.Failed)

	failures := result.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, second.ID, failures[0].FootageID)
	assert.Equal(t, "move_failure", failures[0].Kind)
	assert.True(t, errors.Is(failures[0].Err, services.ErrMoveFailure))

	for _, f := range []*catalog.Footage{first, third} {
		stored, err := fx.store.GetFootage(ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(fx.root, "logged"), filepath.Dir(stored.Path))
		assert.FileExists(t, stored.Path)
	}
	stored, err := fx.store.GetFootage(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Path, stored.Path, "failed item keeps its stored path")
}

func TestOrganizeOnlyLoggedFootage(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	logged := fx.addFootage(t, "logged.mov", true)
	unlogged := fx.addFootage(t, "raw.mov", false)

	policy := scenePolicy()
	policy.OnlyLoggedFootage = true
	result, err := fx.org.Organize(ctx, policy)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, logged.ID, result.Items[0].FootageID)
	assert.FileExists(t, unlogged.Path)
}

func TestOrganizeScaffoldsAllDirectories(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	clip := fx.addFootage(t, "clip.mov", true)
	testsupport.LinkTake(t, fx.store, clip.ID, 1, "A", 1, 0)
	require.NoError(t, fx.store.CreateScene(ctx, catalog.Scene{Number: 2}))
	require.NoError(t, fx.store.CreateShot(ctx, catalog.Shot{Scene: 2, Name: "C"}))
	_, err := fx.store.CreateTake(ctx, catalog.Take{TakeKey: catalog.TakeKey{Scene: 2, Shot: "C", TakeNo: 4}})
	require.NoError(t, err)

	policy := scenePolicy()
	policy.SortFoldersBy = organizer.SortSceneShotTake
	policy.OnlyCreateUsedDirectories = false
	result, err := fx.org.Organize(ctx, policy)
	require.NoError(t, err)
	assert.Empty(t, result.ScaffoldErrors)

	assert.DirExists(t, filepath.Join(fx.root, "scene2", "shot2C", "take2C4"), "unused take directory is pre-created")
	assert.DirExists(t, filepath.Join(fx.root, "scene1", "shot1A", "take1A1"))
}

func TestOrganizeRejectsConcurrentBatch(t *testing.T) {
	fx := newFixture(t)
	other := organizer.New(fx.store, fx.root, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	held := make(chan struct{})
	release := make(chan struct{})
	locker := blockingLocker{held: held, release: release}
	blocking := organizer.New(fx.store, fx.root, nil, organizer.WithItemLocker(locker))
	clip := fx.addFootage(t, "clip.mov", false)

	done := make(chan error, 1)
	go func() {
		_, err := blocking.OrganizeFootage(ctx, []*catalog.Footage{clip}, scenePolicy())
		done <- err
	}()
	<-held

	_, err := other.OrganizeFootage(context.Background(), nil, scenePolicy())
	assert.ErrorIs(t, err, services.ErrConflict)

	close(release)
	require.NoError(t, <-done)
}

type blockingLocker struct {
	held    chan struct{}
	release chan struct{}
}

func (b blockingLocker) Lock(int64) func() {
	close(b.held)
	<-b.release
	return func() {}
}
