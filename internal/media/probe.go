package media

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"reel/internal/config"
	"reel/internal/logging"
	"reel/internal/media/ffprobe"
	"reel/internal/services"
)

var errUnrecognized = errors.New("no recognized container or streams")

// MediaInfo describes the streams discovered in a footage file. Width, Height
// and FrameRate are zero unless HasVideo; SampleRate is zero unless HasAudio.
type MediaInfo struct {
	HasVideo   bool
	HasAudio   bool
	Width      int
	Height     int
	FrameRate  float64
	SampleRate int
	// Duration is the container duration in whole seconds, rounded up.
	Duration int
}

// HasStreams reports whether any playable stream was found.
func (m MediaInfo) HasStreams() bool {
	return m.HasVideo || m.HasAudio
}

// InspectFunc runs ffprobe against a path.
type InspectFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Prober extracts MediaInfo from files using ffprobe.
type Prober struct {
	binary  string
	timeout time.Duration
	inspect InspectFunc
	cache   *cache.Cache
	logger  *slog.Logger
}

// Option customizes a Prober.
type Option func(*Prober)

// WithInspectFunc replaces the ffprobe invocation, primarily for tests.
func WithInspectFunc(fn InspectFunc) Option {
	return func(p *Prober) {
		if fn != nil {
			p.inspect = fn
		}
	}
}

// NewProber builds a Prober from configuration. A zero cache TTL disables caching.
func NewProber(cfg *config.Config, logger *slog.Logger, opts ...Option) *Prober {
	p := &Prober{
		binary:  cfg.Media.FFprobeBinary,
		timeout: cfg.ProbeTimeout(),
		inspect: ffprobe.Inspect,
		logger:  logging.NewComponentLogger(logger, "media"),
	}
	if ttl := cfg.ProbeCacheTTL(); ttl > 0 {
		p.cache = cache.New(ttl, 2*ttl)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe inspects path. When contentHash is non-empty, results are cached under
// it. Failures are tagged with services.ErrMediaUnreadable.
func (p *Prober) Probe(ctx context.Context, path, contentHash string) (MediaInfo, error) {
	if p.cache != nil && contentHash != "" {
		if cached, ok := p.cache.Get(contentHash); ok {
			if info, ok := cached.(MediaInfo); ok {
				p.logger.Debug("probe cache hit", logging.String("hash", contentHash))
				return info, nil
			}
		}
	}

	probeCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	started := time.Now()
	result, err := p.inspect(probeCtx, p.binary, path)
	if err != nil {
		return MediaInfo{}, services.Wrap(services.ErrMediaUnreadable, "probe", "ffprobe", path, err)
	}
	info, err := FromResult(result)
	if err != nil {
		return MediaInfo{}, services.Wrap(services.ErrMediaUnreadable, "probe", "interpret", path, err)
	}

	p.logger.Debug("probed media",
		logging.String("path", path),
		logging.Bool("has_video", info.HasVideo),
		logging.Bool("has_audio", info.HasAudio),
		logging.Int("duration_seconds", info.Duration),
		logging.Duration("elapsed", time.Since(started)),
	)

	if p.cache != nil && contentHash != "" {
		p.cache.SetDefault(contentHash, info)
	}
	return info, nil
}

// Forget drops a cached probe result.
func (p *Prober) Forget(contentHash string) {
	if p.cache != nil && contentHash != "" {
		p.cache.Delete(contentHash)
	}
}

// FromResult converts parsed ffprobe output into MediaInfo. A result without a
// recognized container format is rejected.
func FromResult(result ffprobe.Result) (MediaInfo, error) {
	if strings.TrimSpace(result.Format.FormatName) == "" && len(result.Streams) == 0 {
		return MediaInfo{}, errUnrecognized
	}

	var info MediaInfo
	if video, ok := result.FirstVideo(); ok {
		info.HasVideo = true
		info.Width = video.Width
		info.Height = video.Height
		info.FrameRate = video.FrameRate()
	}
	if audio, ok := result.FirstAudio(); ok {
		info.HasAudio = true
		info.SampleRate = audio.SampleRateHz()
	}
	info.Duration = CeilSeconds(result.DurationSeconds())
	return info, nil
}

// CeilSeconds rounds a duration in seconds up to the next whole second.
// Missing, negative and non-finite values yield zero.
func CeilSeconds(seconds float64) int {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0
	}
	return int(math.Ceil(seconds))
}
