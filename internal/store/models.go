package store

import "time"

// NotFound is the sentinel stored in locator_uri when resolution exhausted
// every variant without producing a locator. It distinguishes "we looked and
// found nothing" from "we never looked", and marks the row for repair passes.
const NotFound = "NOT_FOUND"

// Record is one persisted resolution result keyed by the requested title.
// Zero values (empty string, 0) mean unknown and are preserved on upsert
// rather than overwriting previously stored data.
type Record struct {
	ID             int64
	Title          string
	MatchedTitle   string
	Year           int
	TMDBID         int64
	LocatorURI     string
	MediaID        string
	PosterURL      string
	BackdropURL    string
	Overview       string
	RepairAttempts int
	LastRepairAt   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Resolved reports whether the record carries a usable locator.
func (r *Record) Resolved() bool {
	return r.LocatorURI != "" && r.LocatorURI != NotFound
}

// Missing reports whether the record is an exhausted-resolution marker.
func (r *Record) Missing() bool {
	return r.LocatorURI == NotFound
}

// BatchEntry is one TMDB id's standing in a batch status query.
type BatchEntry struct {
	Status     string `json:"status"`
	LocatorURI string `json:"locatorUri,omitempty"`
	MediaID    string `json:"mediaId,omitempty"`
}

// Batch status values.
const (
	BatchResolved = "resolved"
	BatchMissing  = "missing"
	BatchUnknown  = "unknown"
)

// Stats aggregates the store for diagnostics.
type Stats struct {
	Total    int `json:"total"`
	Resolved int `json:"resolved"`
	Missing  int `json:"missing"`
	Enriched int `json:"enriched"`
}
