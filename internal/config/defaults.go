package config

const (
	defaultConfigPath             = "~/.config/pmpayout/config.toml"
	defaultDataDir                = "~/.local/share/pmpayout"
	defaultLogDir                 = "~/.local/share/pmpayout/logs"
	defaultReportDir              = "~/pmpayout-reports"
	defaultYTDLPBinary            = "yt-dlp"
	defaultFFmpegBinary           = "ffmpeg"
	defaultDownloadTimeoutSeconds = 60
	defaultExtractTimeoutSeconds  = 15
	defaultLookupTimeoutSeconds   = 90
	defaultSignatureConcurrency   = 4
	defaultHashThreshold          = 10
	defaultFallbackStrategy       = "phash"
	defaultCreatorConcurrency     = 4
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultPageSize               = 20000
	defaultAPITimeoutSeconds      = 60
	defaultMaxRetries             = 3
)

// maxPageSize is the largest page the export API accepts.
const maxPageSize = 20000

const (
	envVideosFile   = "PMPAYOUT_VIDEOS_FILE"
	envCreatorsFile = "PMPAYOUT_CREATORS_FILE"
	envLogLevel     = "PMPAYOUT_LOG_LEVEL"
	envAPIKey       = "PMPAYOUT_API_KEY"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			ReportDir: defaultReportDir,
		},
		Source: Source{
			PageSize:          defaultPageSize,
			APITimeoutSeconds: defaultAPITimeoutSeconds,
			MaxRetries:        defaultMaxRetries,
		},
		Signature: Signature{
			YTDLPBinary:            defaultYTDLPBinary,
			FFmpegBinary:           defaultFFmpegBinary,
			DownloadTimeoutSeconds: defaultDownloadTimeoutSeconds,
			ExtractTimeoutSeconds:  defaultExtractTimeoutSeconds,
			LookupTimeoutSeconds:   defaultLookupTimeoutSeconds,
			Concurrency:            defaultSignatureConcurrency,
			CacheEnabled:           true,
		},
		Matching: Matching{
			HashThreshold:      defaultHashThreshold,
			FallbackStrategy:   defaultFallbackStrategy,
			CreatorConcurrency: defaultCreatorConcurrency,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
