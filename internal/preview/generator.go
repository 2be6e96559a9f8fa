package preview

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"reel/internal/config"
	"reel/internal/fileutil"
	"reel/internal/logging"
	"reel/internal/media"
	"reel/internal/services"
)

// commandRunner executes an external tool.
type commandRunner func(ctx context.Context, name string, args ...string) error

// Artifact describes a generated (or reused) preview.
type Artifact struct {
	Name      string
	Path      string
	Container Container
	// Duration is the probed source duration in whole seconds.
	Duration int
	Reused   bool
}

// Generator renders previews with ffmpeg.
type Generator struct {
	ffmpeg   string
	timeout  time.Duration
	settings config.Preview
	store    *Store
	run      commandRunner
	logger   *slog.Logger
}

// NewGenerator constructs a preview generator writing into store.
func NewGenerator(cfg *config.Config, store *Store, logger *slog.Logger) *Generator {
	return &Generator{
		ffmpeg:   cfg.Media.FFmpegBinary,
		timeout:  cfg.TranscodeTimeout(),
		settings: cfg.Preview,
		store:    store,
		run:      defaultCommandRunner,
		logger:   logging.NewComponentLogger(logger, "preview"),
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (g *Generator) WithCommandRunner(r commandRunner) {
	if g != nil && r != nil {
		g.run = r
	}
}

// Store returns the artifact store the generator writes into.
func (g *Generator) Store() *Store {
	return g.store
}

// Generate renders a preview of sourcePath for contentHash. It returns nil
// without error when info has no streams. An artifact already stored under the
// same content-addressed name is reused without transcoding. Render failures
// are tagged with services.ErrTranscodeFailure.
func (g *Generator) Generate(ctx context.Context, sourcePath, contentHash string, info media.MediaInfo) (*Artifact, error) {
	plan, ok := BuildPlan(info, g.settings)
	if !ok {
		g.logger.Info("no audio or video streams; preview skipped",
			logging.String("path", sourcePath),
			logging.String(logging.FieldEventType, "preview_skipped"),
		)
		return nil, nil
	}
	if strings.TrimSpace(contentHash) == "" {
		return nil, services.Wrap(services.ErrValidation, "preview", "generate", "content hash is required", nil)
	}

	name := NameFor(contentHash, plan.Extension)
	artifact := &Artifact{
		Name:      name,
		Path:      g.store.Path(name),
		Container: plan.Container,
		Duration:  info.Duration,
	}
	if g.store.Exists(name) {
		artifact.Reused = true
		g.logger.Debug("reusing existing preview", logging.String("preview", name))
		return artifact, nil
	}

	if err := fileutil.EnsureDirectory(g.store.Dir()); err != nil {
		return nil, err
	}
	staging := g.store.stagingPath(name)
	_ = os.Remove(staging)

	renderCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	g.logger.Debug("rendering preview",
		logging.String("path", sourcePath),
		logging.String("preview", name),
		logging.Int("scale_width", plan.ScaleWidth),
		logging.Int("scale_height", plan.ScaleHeight),
		logging.Float64("frame_rate", plan.FrameRate),
		logging.Int("sample_rate", plan.SampleRate),
	)
	started := time.Now()
	if err := g.run(renderCtx, g.ffmpeg, plan.FFmpegArgs(sourcePath, staging)...); err != nil {
		_ = os.Remove(staging)
		return nil, services.Wrap(services.ErrTranscodeFailure, "preview", "ffmpeg", sourcePath, err)
	}
	if info, err := os.Stat(staging); err != nil || info.Size() == 0 {
		_ = os.Remove(staging)
		return nil, services.Wrap(services.ErrTranscodeFailure, "preview", "ffmpeg", "no output produced for "+sourcePath, err)
	}
	if err := os.Rename(staging, artifact.Path); err != nil {
		_ = os.Remove(staging)
		return nil, services.Wrap(services.ErrTranscodeFailure, "preview", "publish", name, err)
	}

	g.logger.Info("preview generated",
		logging.String(logging.FieldEventType, "preview_generated"),
		logging.String("preview", name),
		logging.String("container", string(plan.Container)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return artifact, nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
