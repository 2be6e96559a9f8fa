package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"reel/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantRoot := filepath.Join(tempHome, "reel")
	if cfg.Paths.StorageRoot != wantRoot {
		t.Fatalf("unexpected storage root: got %q want %q", cfg.Paths.StorageRoot, wantRoot)
	}
	if cfg.Paths.DatabasePath != filepath.Join(wantRoot, "reel.db") {
		t.Fatalf("unexpected database path: %q", cfg.Paths.DatabasePath)
	}
	if cfg.FootageRoot() != filepath.Join(wantRoot, "footage") {
		t.Fatalf("unexpected footage root: %q", cfg.FootageRoot())
	}
	if cfg.PreviewDir() != filepath.Join(wantRoot, "previews") {
		t.Fatalf("unexpected preview dir: %q", cfg.PreviewDir())
	}
	if cfg.Preview.MaxWidth != 720 || cfg.Preview.MaxFrameRate != 24 || cfg.Preview.MaxSampleRate != 44100 {
		t.Fatalf("unexpected preview thresholds: %+v", cfg.Preview)
	}
	if cfg.RollbackFlagsOnTranscodeFailure() {
		t.Fatal("expected keep_flags by default")
	}
	if !cfg.Format.IncludeUID || cfg.Format.IncludeHash || !cfg.Format.OnlyLoggedFootage {
		t.Fatalf("unexpected format defaults: %+v", cfg.Format)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.FootageRoot(), cfg.UnloggedDir(), cfg.PreviewDir(), cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be a directory", dir)
		}
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"storage_root": "~/shoot",
		},
		"preview": map[string]any{
			"max_width":            640,
			"on_transcode_failure": "Rollback_Flags",
		},
		"format": map[string]any{
			"sort_folders_by": " Scene_Shot ",
		},
		"watch": map[string]any{
			"dir":            "~/drop",
			"settle_seconds": 2,
		},
		"server": map[string]any{
			"token": "  s3cret ",
		},
		"logging": map[string]any{
			"format": "JSON",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config file to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.StorageRoot != filepath.Join(tempHome, "shoot") {
		t.Fatalf("unexpected storage root: %q", cfg.Paths.StorageRoot)
	}
	if cfg.Preview.MaxWidth != 640 {
		t.Fatalf("unexpected max width: %d", cfg.Preview.MaxWidth)
	}
	if !cfg.RollbackFlagsOnTranscodeFailure() {
		t.Fatal("expected rollback_flags policy")
	}
	if cfg.Format.SortFoldersBy != "scene_shot" {
		t.Fatalf("expected normalized selector, got %q", cfg.Format.SortFoldersBy)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
	if cfg.Watch.Dir != filepath.Join(tempHome, "drop") || cfg.WatchSettle() != 2*time.Second {
		t.Fatalf("unexpected watch settings: %+v", cfg.Watch)
	}
	if cfg.Server.Token != "s3cret" {
		t.Fatalf("expected trimmed token, got %q", cfg.Server.Token)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"width", func(c *config.Config) { c.Preview.MaxWidth = 0 }, "preview.max_width"},
		{"policy", func(c *config.Config) { c.Preview.OnTranscodeFailure = "maybe" }, "on_transcode_failure"},
		{"probe timeout", func(c *config.Config) { c.Media.ProbeTimeoutSeconds = 0 }, "probe_timeout_seconds"},
		{"extensions", func(c *config.Config) { c.Preview.AudioExtension = c.Preview.VideoExtension }, "must differ"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"watch settle", func(c *config.Config) { c.Watch.SettleSeconds = -1 }, "watch.settle_seconds"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.StorageRoot = t.TempDir()
			cfg.Paths.DatabasePath = filepath.Join(cfg.Paths.StorageRoot, "reel.db")
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Preview.VideoExtension != "mp4" || cfg.Preview.AudioExtension != "mp3" {
		t.Fatalf("unexpected preview extensions: %+v", cfg.Preview)
	}
}
