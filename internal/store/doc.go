// Package store persists resolution results in SQLite.
//
// Each row is keyed by the exact requested title and accumulates data across
// resolutions: the upsert preserves any previously stored field the incoming
// write does not know, so a later enrichment-only pass never erases a locator
// and a locator-only repair never erases artwork. The NOT_FOUND sentinel in
// locator_uri records an exhausted resolution and feeds the repair rotation.
package store
