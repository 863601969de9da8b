package config

const (
	defaultDataDir             = "~/.local/share/cinevibe"
	defaultLogDir              = "~/.local/share/cinevibe/logs"
	defaultAPIBind             = "127.0.0.1:7823"
	defaultCatalogTimeout      = 15
	defaultSessionMaxAgeMin    = 30
	defaultLocatorPollAttempts = 15
	defaultLocatorPollSeconds  = 1
	defaultTMDBLanguage        = "pt-BR"
	defaultTMDBBaseURL         = "https://api.themoviedb.org/3"
	defaultMinSimilarity       = 0.40
	defaultShortTitleLen       = 10
	defaultYearTolerance       = 1
	defaultWorkers             = 1
	defaultBackgroundJobs      = 1
	defaultRepairPassMinutes   = 60
	defaultRepairItemDelaySec  = 1
	defaultMissingCeiling      = 10
	defaultSuspectCeiling      = 5
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Catalog: Catalog{
			RequestTimeout:      defaultCatalogTimeout,
			SessionMaxAgeMin:    defaultSessionMaxAgeMin,
			LocatorPollAttempts: defaultLocatorPollAttempts,
			LocatorPollSeconds:  defaultLocatorPollSeconds,
		},
		TMDB: TMDB{
			Language: defaultTMDBLanguage,
			BaseURL:  defaultTMDBBaseURL,
		},
		Resolver: Resolver{
			MinSimilarity:  defaultMinSimilarity,
			ShortTitleLen:  defaultShortTitleLen,
			YearTolerance:  defaultYearTolerance,
			Workers:        defaultWorkers,
			BackgroundJobs: defaultBackgroundJobs,
		},
		Repair: Repair{
			Enabled:             true,
			PassIntervalMinutes: defaultRepairPassMinutes,
			ItemDelaySeconds:    defaultRepairItemDelaySec,
			MissingCeiling:      defaultMissingCeiling,
			SuspectCeiling:      defaultSuspectCeiling,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Resolved:       true,
			Repairs:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
