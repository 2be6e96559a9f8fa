package preview

import (
	"fmt"
	"strconv"
	"strings"

	"reel/internal/config"
	"reel/internal/media"
)

// Container identifies the kind of preview produced.
type Container string

const (
	ContainerVideo Container = "video"
	ContainerAudio Container = "audio"
)

// Plan describes how a preview is rendered. Zero-valued caps mean the source
// value is kept.
type Plan struct {
	Container    Container
	Extension    string
	IncludeVideo bool
	IncludeAudio bool
	ScaleWidth   int
	ScaleHeight  int
	FrameRate    float64
	SampleRate   int
}

// BuildPlan decides the preview container and down-sampling for info. The
// second return value is false when the media has neither video nor audio, in
// which case no preview is produced.
func BuildPlan(info media.MediaInfo, settings config.Preview) (Plan, bool) {
	if !info.HasStreams() {
		return Plan{}, false
	}

	var plan Plan
	if info.HasVideo {
		plan.IncludeVideo = true
		plan.Container = ContainerVideo
		plan.Extension = settings.VideoExtension
		if info.Width > settings.MaxWidth && info.Width > 0 {
			plan.ScaleWidth = settings.MaxWidth
			plan.ScaleHeight = ScaledHeight(info.Width, info.Height, settings.MaxWidth)
		}
		if settings.MaxFrameRate > 0 && info.FrameRate > settings.MaxFrameRate {
			plan.FrameRate = settings.MaxFrameRate
		}
	}
	if info.HasAudio {
		plan.IncludeAudio = true
		if settings.MaxSampleRate > 0 && info.SampleRate > settings.MaxSampleRate {
			plan.SampleRate = settings.MaxSampleRate
		}
		if !info.HasVideo {
			plan.Container = ContainerAudio
			plan.Extension = settings.AudioExtension
		}
	}
	return plan, true
}

// ScaledHeight preserves the aspect ratio of width x height at targetWidth.
// The result is truncated and then bumped up to the next even number, since
// most encoders reject odd dimensions.
func ScaledHeight(width, height, targetWidth int) int {
	if width <= 0 {
		return height
	}
	scaled := height * targetWidth / width
	if scaled%2 != 0 {
		scaled++
	}
	return scaled
}

// FFmpegArgs builds the ffmpeg command line that renders input to output.
func (p Plan) FFmpegArgs(input, output string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
	}
	if p.IncludeVideo {
		args = append(args, "-map", "0:v:0")
	}
	if p.IncludeAudio {
		args = append(args, "-map", "0:a:0")
	}

	var videoFilters []string
	if p.ScaleWidth > 0 {
		videoFilters = append(videoFilters, fmt.Sprintf("scale=%d:%d", p.ScaleWidth, p.ScaleHeight))
	}
	if p.FrameRate > 0 {
		videoFilters = append(videoFilters, "fps="+strconv.FormatFloat(p.FrameRate, 'f', -1, 64))
	}
	if len(videoFilters) > 0 {
		args = append(args, "-vf", strings.Join(videoFilters, ","))
	}
	if p.SampleRate > 0 {
		args = append(args, "-af", fmt.Sprintf("aresample=%d", p.SampleRate))
	}

	if p.IncludeVideo {
		args = append(args, "-pix_fmt", "yuv420p")
		if isMP4Family(p.Extension) {
			args = append(args, "-movflags", "+faststart")
		}
	} else {
		args = append(args, "-vn")
	}
	if !p.IncludeAudio {
		args = append(args, "-an")
	}
	args = append(args, "-sn", "-dn", output)
	return args
}

func isMP4Family(ext string) bool {
	switch strings.ToLower(ext) {
	case "mp4", "m4v", "mov":
		return true
	}
	return false
}
