package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeTMDB()
	c.normalizeResolver()
	c.normalizeRepair()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	if c.Catalog.Username == "" {
		if value, ok := os.LookupEnv("CINEVIBE_CATALOG_USER"); ok {
			c.Catalog.Username = value
		}
	}
	if c.Catalog.Password == "" {
		if value, ok := os.LookupEnv("CINEVIBE_CATALOG_PASS"); ok {
			c.Catalog.Password = value
		}
	}
	if c.Catalog.RequestTimeout <= 0 {
		c.Catalog.RequestTimeout = defaultCatalogTimeout
	}
	if c.Catalog.SessionMaxAgeMin <= 0 {
		c.Catalog.SessionMaxAgeMin = defaultSessionMaxAgeMin
	}
	if c.Catalog.LocatorPollAttempts <= 0 {
		c.Catalog.LocatorPollAttempts = defaultLocatorPollAttempts
	}
	if c.Catalog.LocatorPollSeconds <= 0 {
		c.Catalog.LocatorPollSeconds = defaultLocatorPollSeconds
	}
	for i, host := range c.Catalog.DeprecatedHosts {
		c.Catalog.DeprecatedHosts[i] = strings.ToLower(strings.TrimSpace(host))
	}
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	if strings.TrimSpace(c.TMDB.Language) == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
}

func (c *Config) normalizeResolver() {
	if c.Resolver.MinSimilarity <= 0 {
		c.Resolver.MinSimilarity = defaultMinSimilarity
	}
	if c.Resolver.ShortTitleLen <= 0 {
		c.Resolver.ShortTitleLen = defaultShortTitleLen
	}
	if c.Resolver.YearTolerance <= 0 {
		c.Resolver.YearTolerance = defaultYearTolerance
	}
	if c.Resolver.Workers <= 0 {
		c.Resolver.Workers = defaultWorkers
	}
	if c.Resolver.BackgroundJobs <= 0 {
		c.Resolver.BackgroundJobs = defaultBackgroundJobs
	}
}

func (c *Config) normalizeRepair() {
	if c.Repair.PassIntervalMinutes <= 0 {
		c.Repair.PassIntervalMinutes = defaultRepairPassMinutes
	}
	if c.Repair.ItemDelaySeconds < 0 {
		c.Repair.ItemDelaySeconds = defaultRepairItemDelaySec
	}
	if c.Repair.MissingCeiling <= 0 {
		c.Repair.MissingCeiling = defaultMissingCeiling
	}
	if c.Repair.SuspectCeiling <= 0 {
		c.Repair.SuspectCeiling = defaultSuspectCeiling
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
