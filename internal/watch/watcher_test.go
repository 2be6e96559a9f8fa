package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reel/internal/catalog"
	"reel/internal/footage"
	"reel/internal/logging"
	"reel/internal/services"
)

type fakeIngester struct {
	mu    sync.Mutex
	calls []string
	opts  []footage.IngestOptions
	err   error
}

func (f *fakeIngester) Ingest(_ context.Context, source string, opts footage.IngestOptions) (*catalog.Footage, footage.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, source)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, footage.Outcome{}, f.err
	}
	return &catalog.Footage{ID: int64(len(f.calls)), Path: source}, footage.Outcome{}, nil
}

func (f *fakeIngester) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestWatcher(t *testing.T, ingester Ingester, removeSource bool) (*Watcher, *clock, string) {
	t.Helper()
	dir := t.TempDir()
	w := New(dir, time.Minute, removeSource, ingester, logging.NewNop())
	c := &clock{t: time.Now()}
	w.now = c.now
	return w, c, dir
}

func drop(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("frames"), 0o644))
	return path
}

func TestFlushWaitsForSettle(t *testing.T) {
	ingester := &fakeIngester{}
	w, c, dir := newTestWatcher(t, ingester, true)
	path := drop(t, dir, "A001.mov")

	require.NoError(t, w.Scan())
	assert.Zero(t, w.Flush(context.Background()))

	c.t = c.t.Add(time.Minute)
	assert.Equal(t, 1, w.Flush(context.Background()))
	assert.Equal(t, []string{path}, ingester.Calls())
	assert.True(t, ingester.opts[0].RemoveSource)

	c.t = c.t.Add(time.Minute)
	assert.Zero(t, w.Flush(context.Background()), "ingested files leave the queue")
}

func TestGrowingFileRestartsSettle(t *testing.T) {
	ingester := &fakeIngester{}
	w, c, dir := newTestWatcher(t, ingester, false)
	path := drop(t, dir, "A002.mov")
	require.NoError(t, w.Scan())

	c.t = c.t.Add(time.Minute)
	require.NoError(t, os.WriteFile(path, []byte("frames and more frames"), 0o644))
	assert.Zero(t, w.Flush(context.Background()))

	c.t = c.t.Add(time.Minute)
	assert.Equal(t, 1, w.Flush(context.Background()))
}

func TestHiddenAndPartialFilesAreIgnored(t *testing.T) {
	ingester := &fakeIngester{}
	w, c, dir := newTestWatcher(t, ingester, false)
	drop(t, dir, ".DS_Store")
	drop(t, dir, "upload.mov.part")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	require.NoError(t, w.Scan())
	c.t = c.t.Add(time.Minute)
	assert.Zero(t, w.Flush(context.Background()))
	assert.Empty(t, ingester.Calls())
}

func TestFailedFileRetriedOnlyAfterChange(t *testing.T) {
	ingester := &fakeIngester{err: services.Wrap(services.ErrMediaUnreadable, "probe", "ffprobe", "bad", errors.New("exit 1"))}
	w, c, dir := newTestWatcher(t, ingester, false)
	path := drop(t, dir, "broken.mov")

	require.NoError(t, w.Scan())
	c.t = c.t.Add(time.Minute)
	assert.Zero(t, w.Flush(context.Background()))
	require.Len(t, ingester.Calls(), 1)

	require.NoError(t, w.Scan())
	c.t = c.t.Add(time.Minute)
	w.Flush(context.Background())
	assert.Len(t, ingester.Calls(), 1, "unchanged failure is not retried")

	ingester.err = nil
	touched := c.t.Add(time.Second)
	require.NoError(t, os.Chtimes(path, touched, touched))
	require.NoError(t, w.Scan())
	c.t = c.t.Add(time.Minute)
	assert.Equal(t, 1, w.Flush(context.Background()))
	assert.Len(t, ingester.Calls(), 2)
}

func TestRunIngestsDroppedFiles(t *testing.T) {
	ingester := &fakeIngester{}
	dir := t.TempDir()
	existing := drop(t, dir, "before.mov")
	w := New(dir, 0, false, ingester, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return len(ingester.Calls()) == 1 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, existing, ingester.Calls()[0])

	dropped := drop(t, dir, "after.mov")
	require.Eventually(t, func() bool { return len(ingester.Calls()) == 2 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, dropped, ingester.Calls()[1])

	cancel()
	require.NoError(t, <-done)
}

func TestRunRejectsMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"), time.Second, false, &fakeIngester{}, logging.NewNop())
	require.Error(t, w.Run(context.Background()))
}

func TestValidateDirRejectsReservedRoots(t *testing.T) {
	base := t.TempDir()
	footageRoot := filepath.Join(base, "footage")
	previews := filepath.Join(base, "previews")
	require.NoError(t, os.MkdirAll(filepath.Join(footageRoot, "_unlogged"), 0o755))
	require.NoError(t, os.MkdirAll(previews, 0o755))

	for _, dir := range []string{
		footageRoot,
		filepath.Join(footageRoot, "_unlogged"),
		filepath.Join(footageRoot, "2026", "drop"),
		previews,
		previews + string(filepath.Separator),
	} {
		err := ValidateDir(dir, footageRoot, previews)
		require.Error(t, err, dir)
		assert.ErrorIs(t, err, services.ErrConfiguration, dir)
	}
}

func TestValidateDirAllowsOutsideDirs(t *testing.T) {
	base := t.TempDir()
	footageRoot := filepath.Join(base, "footage")

	assert.NoError(t, ValidateDir(filepath.Join(base, "drop"), footageRoot, ""))
	assert.NoError(t, ValidateDir(filepath.Join(base, "footage-drop"), footageRoot))
	assert.NoError(t, ValidateDir(filepath.Join(base, "..drop"), footageRoot))
}
