package preview

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reel/internal/config"
	"reel/internal/logging"
	"reel/internal/media"
	"reel/internal/services"
)

func newTestGenerator(t *testing.T) (*Generator, *Store) {
	t.Helper()
	cfg := config.Default()
	store := NewStore(filepath.Join(t.TempDir(), "previews"))
	return NewGenerator(&cfg, store, logging.NewNop()), store
}

func writingRunner(calls *int) commandRunner {
	return func(_ context.Context, _ string, args ...string) error {
		*calls++
		return os.WriteFile(args[len(args)-1], []byte("preview bytes"), 0o644)
	}
}

func TestGenerateWritesContentAddressedArtifact(t *testing.T) {
	gen, store := newTestGenerator(t)
	calls := 0
	gen.WithCommandRunner(writingRunner(&calls))

	info := media.MediaInfo{HasVideo: true, HasAudio: true, Width: 1920, Height: 1080, Duration: 13}
	artifact, err := gen.Generate(context.Background(), "/src/clip.mov", "abc123", info)
	require.NoError(t, err)
	require.NotNil(t, artifact)

	assert.Equal(t, "abc123.mp4", artifact.Name)
	assert.Equal(t, ContainerVideo, artifact.Container)
	assert.Equal(t, 13, artifact.Duration)
	assert.False(t, artifact.Reused)
	assert.True(t, store.Exists("abc123.mp4"))
	assert.NoFileExists(t, store.stagingPath("abc123.mp4"))
	assert.Equal(t, 1, calls)

	again, err := gen.Generate(context.Background(), "/src/copy.mov", "abc123", info)
	require.NoError(t, err)
	assert.True(t, again.Reused)
	assert.Equal(t, 1, calls, "existing artifact must be reused")
}

func TestGenerateAudioOnlyUsesAudioContainer(t *testing.T) {
	gen, _ := newTestGenerator(t)
	calls := 0
	gen.WithCommandRunner(writingRunner(&calls))

	artifact, err := gen.Generate(context.Background(), "/src/room.wav", "f00d", media.MediaInfo{HasAudio: true, SampleRate: 48000, Duration: 4})
	require.NoError(t, err)
	assert.Equal(t, "f00d.mp3", artifact.Name)
	assert.Equal(t, ContainerAudio, artifact.Container)
}

func TestGenerateWithoutStreamsIsNoop(t *testing.T) {
	gen, _ := newTestGenerator(t)
	calls := 0
	gen.WithCommandRunner(writingRunner(&calls))

	artifact, err := gen.Generate(context.Background(), "/src/notes.bin", "abc", media.MediaInfo{})
	require.NoError(t, err)
	assert.Nil(t, artifact)
	assert.Zero(t, calls)
}

func TestGenerateFailureIsTranscodeFailure(t *testing.T) {
	gen, store := newTestGenerator(t)
	gen.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		_ = os.WriteFile(args[len(args)-1], []byte("partial"), 0o644)
		return errors.New("exit status 1: Invalid data found when processing input")
	})

	_, err := gen.Generate(context.Background(), "/src/corrupt.mov", "dead", media.MediaInfo{HasVideo: true, Width: 640, Height: 480})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrTranscodeFailure)
	assert.False(t, store.Exists("dead.mp4"))
	assert.NoFileExists(t, store.stagingPath("dead.mp4"))
}

func TestGenerateEmptyOutputIsTranscodeFailure(t *testing.T) {
	gen, _ := newTestGenerator(t)
	gen.WithCommandRunner(func(context.Context, string, ...string) error { return nil })

	_, err := gen.Generate(context.Background(), "/src/clip.mov", "beef", media.MediaInfo{HasAudio: true})
	assert.ErrorIs(t, err, services.ErrTranscodeFailure)
}
