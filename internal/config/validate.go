package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Format selectors are checked
// by the organizer when the policy is parsed.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validatePreview(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Watch.SettleSeconds < 0 {
		return errors.New("watch.settle_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StorageRoot) == "" {
		return errors.New("paths.storage_root must be set")
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		return errors.New("paths.database_path must be set")
	}
	return nil
}

func (c *Config) validateMedia() error {
	if c.Media.ProbeTimeoutSeconds <= 0 {
		return errors.New("media.probe_timeout_seconds must be positive")
	}
	if c.Media.TranscodeTimeoutSeconds <= 0 {
		return errors.New("media.transcode_timeout_seconds must be positive")
	}
	if c.Media.ProbeCacheMinutes < 0 {
		return errors.New("media.probe_cache_minutes must be zero or positive")
	}
	return nil
}

func (c *Config) validatePreview() error {
	if c.Preview.MaxWidth <= 0 {
		return errors.New("preview.max_width must be positive")
	}
	if c.Preview.MaxFrameRate <= 0 {
		return errors.New("preview.max_frame_rate must be positive")
	}
	if c.Preview.MaxSampleRate <= 0 {
		return errors.New("preview.max_sample_rate must be positive")
	}
	if c.Preview.VideoExtension == c.Preview.AudioExtension {
		return errors.New("preview.video_extension and preview.audio_extension must differ")
	}
	switch c.Preview.OnTranscodeFailure {
	case TranscodeFailureKeepFlags, TranscodeFailureRollbackFlags:
	default:
		return fmt.Errorf("preview.on_transcode_failure: unsupported value %q (want %s or %s)",
			c.Preview.OnTranscodeFailure, TranscodeFailureKeepFlags, TranscodeFailureRollbackFlags)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
