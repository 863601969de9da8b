// Package repair runs the background audit rotation over stored results:
// retrying exhausted resolutions, revalidating locators on deprecated hosts,
// and backfilling enrichment where it is missing.
package repair
