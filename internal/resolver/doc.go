// Package resolver orchestrates a single title resolution: store lookup,
// variant walk against the catalog, candidate scoring, locator extraction,
// enrichment, and persistence. One Resolver owns one catalog session and
// processes requests strictly serially.
package resolver
