package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dedsfe/cinevibe/internal/logging"
)

const imageBaseURL = "https://image.tmdb.org/t/p/w500"

// Metadata is the enrichment payload attached to a stored resolution result.
type Metadata struct {
	TMDBID      int64
	Title       string
	Year        int
	Overview    string
	PosterURL   string
	BackdropURL string
}

// Enricher looks up display metadata for resolved titles. It is best effort:
// a failed or empty lookup never fails the resolution that requested it.
type Enricher struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewEnricher wraps a Searcher. A nil searcher disables enrichment, which is
// how an unset API key degrades.
func NewEnricher(searcher Searcher, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Enricher{
		searcher: searcher,
		logger:   logging.WithComponent(logger, "enrich"),
	}
}

// Enabled reports whether lookups will actually hit TMDB.
func (e *Enricher) Enabled() bool {
	return e != nil && e.searcher != nil
}

// Lookup finds metadata for a title, or nil when nothing matches. A positive
// year narrows the search; when the narrowed search comes up empty the lookup
// retries without it, since catalog years drift from TMDB release years.
func (e *Enricher) Lookup(ctx context.Context, title string, year int) (*Metadata, error) {
	if !e.Enabled() {
		return nil, nil
	}
	resp, err := e.searcher.SearchMovie(ctx, title, year)
	if err != nil {
		return nil, fmt.Errorf("tmdb search: %w", err)
	}
	if len(resp.Results) == 0 && year > 0 {
		resp, err = e.searcher.SearchMovie(ctx, title, 0)
		if err != nil {
			return nil, fmt.Errorf("tmdb search retry: %w", err)
		}
	}
	if len(resp.Results) == 0 {
		e.logger.Debug("no tmdb match", logging.String(logging.FieldTitle, title))
		return nil, nil
	}

	best := resp.Results[0]
	return &Metadata{
		TMDBID:      best.ID,
		Title:       best.Title,
		Year:        releaseYear(best.ReleaseDate),
		Overview:    best.Overview,
		PosterURL:   imageURL(best.PosterPath),
		BackdropURL: imageURL(best.BackdropPath),
	}, nil
}

// LookupByID fetches metadata for a known TMDB ID.
func (e *Enricher) LookupByID(ctx context.Context, tmdbID int64) (*Metadata, error) {
	if !e.Enabled() {
		return nil, nil
	}
	result, err := e.searcher.GetMovieDetails(ctx, tmdbID)
	if err != nil {
		return nil, fmt.Errorf("tmdb details: %w", err)
	}
	return &Metadata{
		TMDBID:      result.ID,
		Title:       result.Title,
		Year:        releaseYear(result.ReleaseDate),
		Overview:    result.Overview,
		PosterURL:   imageURL(result.PosterPath),
		BackdropURL: imageURL(result.BackdropPath),
	}, nil
}

func releaseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

func imageURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return imageBaseURL + path
}
