package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMedia()
	c.normalizePreview()
	c.normalizeFormat()
	c.normalizeLogging()
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	c.Server.Token = strings.TrimSpace(c.Server.Token)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if strings.TrimSpace(c.Watch.Dir) != "" {
		dir, err := expandPath(c.Watch.Dir)
		if err != nil {
			return fmt.Errorf("watch.dir: %w", err)
		}
		c.Watch.Dir = dir
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StorageRoot) == "" {
		c.Paths.StorageRoot = defaultStorageRoot
	}
	if c.Paths.StorageRoot, err = expandPath(c.Paths.StorageRoot); err != nil {
		return fmt.Errorf("paths.storage_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		c.Paths.DatabasePath = filepath.Join(c.Paths.StorageRoot, defaultDatabaseName)
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMedia() {
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	if c.Media.FFprobeBinary == "" {
		c.Media.FFprobeBinary = defaultFFprobeBinary
	}
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	if c.Media.FFmpegBinary == "" {
		c.Media.FFmpegBinary = defaultFFmpegBinary
	}
}

func (c *Config) normalizePreview() {
	c.Preview.VideoExtension = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Preview.VideoExtension), "."))
	if c.Preview.VideoExtension == "" {
		c.Preview.VideoExtension = defaultVideoExtension
	}
	c.Preview.AudioExtension = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Preview.AudioExtension), "."))
	if c.Preview.AudioExtension == "" {
		c.Preview.AudioExtension = defaultAudioExtension
	}
	c.Preview.OnTranscodeFailure = strings.ToLower(strings.TrimSpace(c.Preview.OnTranscodeFailure))
	if c.Preview.OnTranscodeFailure == "" {
		c.Preview.OnTranscodeFailure = TranscodeFailureKeepFlags
	}
}

func (c *Config) normalizeFormat() {
	for _, field := range []*string{
		&c.Format.IncludeRating,
		&c.Format.UseRating,
		&c.Format.BaseTakesOn,
		&c.Format.ForMultipleTakesUse,
		&c.Format.SortFoldersBy,
	} {
		*field = strings.ToLower(strings.TrimSpace(*field))
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
		c.Logging.Format = "json"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
