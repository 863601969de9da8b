// Package config loads, normalizes, and validates cinevibe's TOML
// configuration.
//
// Configuration is resolved from an explicit --config path, then
// ~/.config/cinevibe/config.toml, then ./cinevibe.toml. Missing files fall
// back to defaults; the catalog base URL is the only hard requirement.
// Credentials may be supplied via CINEVIBE_CATALOG_USER/CINEVIBE_CATALOG_PASS
// and TMDB_API_KEY environment variables.
package config
