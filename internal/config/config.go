package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains storage locations.
type Paths struct {
	StorageRoot  string `toml:"storage_root"`
	DatabasePath string `toml:"database_path"`
	LogDir       string `toml:"log_dir"`
}

// Media contains external tool settings used for probing and transcoding.
type Media struct {
	FFprobeBinary           string `toml:"ffprobe_binary"`
	FFmpegBinary            string `toml:"ffmpeg_binary"`
	ProbeTimeoutSeconds     int    `toml:"probe_timeout_seconds"`
	TranscodeTimeoutSeconds int    `toml:"transcode_timeout_seconds"`
	ProbeCacheMinutes       int    `toml:"probe_cache_minutes"`
}

// Preview contains the down-sampling thresholds applied to generated previews.
type Preview struct {
	MaxWidth           int     `toml:"max_width"`
	MaxFrameRate       float64 `toml:"max_frame_rate"`
	MaxSampleRate      int     `toml:"max_sample_rate"`
	VideoExtension     string  `toml:"video_extension"`
	AudioExtension     string  `toml:"audio_extension"`
	OnTranscodeFailure string  `toml:"on_transcode_failure"`
}

// Format holds the default footage formatting policy. Selector values accept
// either the named form ("scene_shot") or the legacy numeric form ("3").
type Format struct {
	IncludeUID                bool   `toml:"include_uid"`
	IncludeHash               bool   `toml:"include_hash"`
	IncludeOriginalFilename   bool   `toml:"include_original_filename"`
	IncludeTakeInFilename     bool   `toml:"include_take_in_filename"`
	IncludeRating             string `toml:"include_rating"`
	UseRating                 string `toml:"use_rating"`
	BaseTakesOn               string `toml:"base_takes_on"`
	ForMultipleTakesUse       string `toml:"for_multiple_takes_use"`
	SortFoldersBy             string `toml:"sort_folders_by"`
	OnlyLoggedFootage         bool   `toml:"only_logged_footage"`
	OnlyCreateUsedDirectories bool   `toml:"only_create_used_directories"`
}

// Server contains the preview HTTP server settings.
type Server struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Watch configures the drop directory scanned by "reel watch".
type Watch struct {
	Dir           string `toml:"dir"`
	SettleSeconds int    `toml:"settle_seconds"`
	RemoveSource  bool   `toml:"remove_source"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reel.
//
// Configuration sections by subsystem:
//   - Paths: storage root, database, and logs
//   - Media: ffprobe/ffmpeg binaries and their deadlines
//   - Preview: preview down-sampling thresholds and failure policy
//   - Format: default footage organization policy
//   - Server: preview endpoint bind address
//   - Watch: drop directory for automatic ingestion
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Media   Media   `toml:"media"`
	Preview Preview `toml:"preview"`
	Format  Format  `toml:"format"`
	Server  Server  `toml:"server"`
	Watch   Watch   `toml:"watch"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// FootageRoot is the directory that holds every footage file.
func (c *Config) FootageRoot() string {
	return filepath.Join(c.Paths.StorageRoot, footageDirName)
}

// UnloggedDir is the landing directory for freshly ingested footage.
func (c *Config) UnloggedDir() string {
	return filepath.Join(c.FootageRoot(), unloggedDirName)
}

// WatchSettle is how long a dropped file must stay unchanged before ingestion.
func (c *Config) WatchSettle() time.Duration {
	return time.Duration(c.Watch.SettleSeconds) * time.Second
}

// PreviewDir is the directory that holds generated preview artifacts.
func (c *Config) PreviewDir() string {
	return filepath.Join(c.Paths.StorageRoot, previewDirName)
}

// ProbeTimeout returns the deadline applied to a single ffprobe invocation.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Media.ProbeTimeoutSeconds) * time.Second
}

// TranscodeTimeout returns the deadline applied to a single preview transcode.
func (c *Config) TranscodeTimeout() time.Duration {
	return time.Duration(c.Media.TranscodeTimeoutSeconds) * time.Second
}

// ProbeCacheTTL returns how long probe results stay cached per content hash.
func (c *Config) ProbeCacheTTL() time.Duration {
	return time.Duration(c.Media.ProbeCacheMinutes) * time.Minute
}

// RollbackFlagsOnTranscodeFailure reports whether probed stream flags are
// discarded when preview transcoding fails.
func (c *Config) RollbackFlagsOnTranscodeFailure() bool {
	return c.Preview.OnTranscodeFailure == TranscodeFailureRollbackFlags
}

// EnsureDirectories creates the storage layout required for normal operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.StorageRoot,
		c.FootageRoot(),
		c.UnloggedDir(),
		c.PreviewDir(),
		c.Paths.LogDir,
		filepath.Dir(c.Paths.DatabasePath),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
