package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateResolver(); err != nil {
		return err
	}
	if err := c.validateRepair(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/cinevibe/config.toml"
		}
		return fmt.Errorf("catalog.base_url is required. Edit %s (create with 'cinevibe config init')", defaultPath)
	}
	if c.Catalog.LocatorPollAttempts > 60 {
		return errors.New("catalog.locator_poll_attempts must be 60 or fewer")
	}
	return nil
}

func (c *Config) validateResolver() error {
	if c.Resolver.MinSimilarity < 0 || c.Resolver.MinSimilarity > 1 {
		return errors.New("resolver.min_similarity must be between 0 and 1")
	}
	if c.Resolver.Workers > 16 {
		return errors.New("resolver.workers must be 16 or fewer")
	}
	return nil
}

func (c *Config) validateRepair() error {
	if c.Repair.SuspectCeiling > c.Repair.MissingCeiling {
		return errors.New("repair.suspect_ceiling must not exceed repair.missing_ceiling")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
}
