package config

const (
	defaultConfigPath         = "~/.config/instancesync/config.toml"
	defaultInputDir           = "mods"
	defaultOutputPath         = "minecraftinstance.json"
	defaultLogDir             = "~/.local/share/instancesync/logs"
	defaultCurseForgeBaseURL  = "https://api.curseforge.com"
	defaultFingerprintPath    = "/v1/fingerprints/{game_id}"
	defaultGameID             = 432
	defaultUserAgent          = "instancesync/dev"
	defaultTimeoutSeconds     = 30
	defaultBatchSize          = 50
	defaultScanExtension      = "jar"
	defaultScanMaxDepth       = 1
	defaultScanWorkers        = 4
	defaultScanMaxFileMiB     = 512
	defaultLookupCacheEnabled = true
	defaultFailOnUnmatched    = true
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	maxCurseForgeBatchSize    = 1000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:   defaultInputDir,
			OutputPath: defaultOutputPath,
			LogDir:     defaultLogDir,
		},
		CurseForge: CurseForge{
			BaseURL:         defaultCurseForgeBaseURL,
			FingerprintPath: defaultFingerprintPath,
			GameID:          defaultGameID,
			UserAgent:       defaultUserAgent,
			TimeoutSeconds:  defaultTimeoutSeconds,
			BatchSize:       defaultBatchSize,
		},
		Scan: Scan{
			Extensions: []string{defaultScanExtension},
			MaxDepth:   defaultScanMaxDepth,
			Workers:    defaultScanWorkers,
			MaxFileMiB: defaultScanMaxFileMiB,
		},
		LookupCache: LookupCache{
			Enabled: defaultLookupCacheEnabled,
			Path:    defaultLookupCachePath(),
		},
		Manifest: Manifest{
			FailOnUnmatched: defaultFailOnUnmatched,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
