package catalog

import (
	"context"
	"fmt"
)

// Candidate is one catalog entry returned by a search, not yet validated.
// Candidates live only for the duration of a resolution attempt and are never
// persisted.
type Candidate struct {
	DisplayTitle string
	DetailRef    string
	RawYearText  string
}

// Locator is the canonical playable-media reference extracted from a
// candidate's detail view: the full URI plus the stable media ID derived from
// it. Two locators point at the same underlying asset iff their media IDs are
// equal, even when the full URIs differ through signed tokens or CDN rotation.
type Locator struct {
	URI     string
	MediaID string
}

// Client abstracts the catalog browsing mechanics. Implementations must treat
// an empty search result as success and a locator that never materializes as
// a nil locator, not an error. Clients are not safe for concurrent use; each
// worker owns exactly one.
type Client interface {
	// Open authenticates and prepares the browsing session. It fails with a
	// *SessionError when credentials are rejected or the catalog is
	// unreachable within the configured timeout.
	Open(ctx context.Context) error
	// Search returns zero or more candidates for a query.
	Search(ctx context.Context, query string) ([]Candidate, error)
	// FetchLocator navigates to the candidate's detail view and polls for a
	// resolvable media URI. It returns (nil, nil) when the polling window
	// elapses without one.
	FetchLocator(ctx context.Context, cand Candidate) (*Locator, error)
	// Close releases session resources. Idempotent.
	Close() error
}

// SessionError marks authentication or connectivity failures that invalidate
// the whole session. Callers recover by closing and reopening rather than
// retrying the operation on the same session.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("catalog session: %s", e.Op)
	}
	return fmt.Sprintf("catalog session: %s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }
