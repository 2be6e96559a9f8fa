package config

const (
	defaultConfigPath              = "~/.config/reel/config.toml"
	defaultStorageRoot             = "~/reel"
	defaultDatabaseName            = "reel.db"
	defaultLogDir                  = "~/.local/share/reel/logs"
	defaultFFprobeBinary           = "ffprobe"
	defaultFFmpegBinary            = "ffmpeg"
	defaultProbeTimeoutSeconds     = 60
	defaultTranscodeTimeoutSeconds = 1800
	defaultProbeCacheMinutes       = 30
	defaultPreviewMaxWidth         = 720
	defaultPreviewMaxFrameRate     = 24
	defaultPreviewMaxSampleRate    = 44100
	defaultVideoExtension          = "mp4"
	defaultAudioExtension          = "mp3"
	defaultServerBind              = "127.0.0.1:8642"
	defaultWatchSettleSeconds      = 5
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"

	footageDirName  = "footage"
	unloggedDirName = "unlogged"
	previewDirName  = "previews"
)

// Transcode failure policies.
const (
	TranscodeFailureKeepFlags     = "keep_flags"
	TranscodeFailureRollbackFlags = "rollback_flags"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageRoot: defaultStorageRoot,
			LogDir:      defaultLogDir,
		},
		Media: Media{
			FFprobeBinary:           defaultFFprobeBinary,
			FFmpegBinary:            defaultFFmpegBinary,
			ProbeTimeoutSeconds:     defaultProbeTimeoutSeconds,
			TranscodeTimeoutSeconds: defaultTranscodeTimeoutSeconds,
			ProbeCacheMinutes:       defaultProbeCacheMinutes,
		},
		Preview: Preview{
			MaxWidth:           defaultPreviewMaxWidth,
			MaxFrameRate:       defaultPreviewMaxFrameRate,
			MaxSampleRate:      defaultPreviewMaxSampleRate,
			VideoExtension:     defaultVideoExtension,
			AudioExtension:     defaultAudioExtension,
			OnTranscodeFailure: TranscodeFailureKeepFlags,
		},
		Format: Format{
			IncludeUID:              true,
			IncludeOriginalFilename: true,
			IncludeTakeInFilename:   true,
			IncludeRating:           "no",
			UseRating:               "average",
			BaseTakesOn:             "true_take",
			ForMultipleTakesUse:     "first",
			SortFoldersBy:           "none",
			OnlyLoggedFootage:       true,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Watch: Watch{
			SettleSeconds: defaultWatchSettleSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
