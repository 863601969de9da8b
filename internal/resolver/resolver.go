package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dedsfe/cinevibe/internal/catalog"
	"github.com/dedsfe/cinevibe/internal/enrich"
	"github.com/dedsfe/cinevibe/internal/logging"
	"github.com/dedsfe/cinevibe/internal/store"
	"github.com/dedsfe/cinevibe/internal/title"
)

// Options tune the matching gates.
type Options struct {
	// MinSimilarity is the score a candidate must reach to qualify.
	MinSimilarity float64
	// ShortTitleLen is the normalized length below which a candidate must
	// contain (or be contained by) the requested title; edit distance is too
	// forgiving on short strings.
	ShortTitleLen int
	// YearTolerance is the advisory window around the requested year.
	// Candidates outside it rank behind compatible ones but are not dropped;
	// catalog year text is unreliable.
	YearTolerance int
}

func (o *Options) applyDefaults() {
	if o.MinSimilarity <= 0 {
		o.MinSimilarity = 0.40
	}
	if o.ShortTitleLen <= 0 {
		o.ShortTitleLen = 10
	}
	if o.YearTolerance <= 0 {
		o.YearTolerance = 1
	}
}

// Request identifies the media to resolve.
type Request struct {
	Title  string `json:"title"`
	Year   int    `json:"year,omitempty"`
	TMDBID int64  `json:"tmdbId,omitempty"`
}

// Outcome is the terminal state of a resolution.
type Outcome string

const (
	OutcomeResolved Outcome = "resolved"
	OutcomeMissing  Outcome = "missing"
)

// Missing reasons surfaced in results and logs.
const (
	ReasonCached         = "cached"
	ReasonNoCandidates   = "no_candidates"
	ReasonLowConfidence  = "low_confidence"
	ReasonLocatorTimeout = "locator_timeout"
)

// Result is a finished resolution. Record is always populated: either the
// resolved row or the persisted NOT_FOUND marker.
type Result struct {
	Outcome    Outcome
	Record     *store.Record
	FromCache  bool
	Variant    string
	Similarity float64
	Reason     string
}

// Resolver turns a title request into a validated locator. It owns one
// catalog session and is not safe for concurrent use; the worker pool gives
// each shard its own Resolver.
type Resolver struct {
	session  *catalog.Session
	store    *store.Store
	enricher *enrich.Enricher
	opts     Options
	logger   *slog.Logger
}

// New builds a Resolver. The enricher may be nil.
func New(session *catalog.Session, st *store.Store, enricher *enrich.Enricher, opts Options, logger *slog.Logger) *Resolver {
	opts.applyDefaults()
	if logger == nil {
		logger = logging.NewNop()
	}
	if enricher == nil {
		enricher = enrich.NewEnricher(nil, nil)
	}
	return &Resolver{
		session:  session,
		store:    st,
		enricher: enricher,
		opts:     opts,
		logger:   logging.WithComponent(logger, "resolver"),
	}
}

// Close releases the catalog session.
func (r *Resolver) Close() error {
	if r.session == nil {
		return nil
	}
	return r.session.Close()
}

// Resolve answers a request from the store when possible and otherwise runs
// the full variant walk against the catalog. Errors are infrastructure
// failures only; an exhausted search is a Result with OutcomeMissing.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	requested := strings.TrimSpace(req.Title)
	if requested == "" {
		return nil, errors.New("title is empty")
	}

	cached, err := r.lookupCached(ctx, req, requested)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}
	return r.resolveLive(ctx, req, requested)
}

func (r *Resolver) lookupCached(ctx context.Context, req Request, requested string) (*Result, error) {
	var rec *store.Record
	var err error
	if req.TMDBID > 0 {
		rec, err = r.store.GetByTMDBID(ctx, req.TMDBID)
		if err != nil {
			return nil, err
		}
	}
	if rec == nil {
		rec, err = r.store.GetByTitle(ctx, requested)
		if err != nil {
			return nil, err
		}
	}
	if rec == nil {
		return nil, nil
	}

	switch {
	case rec.Resolved():
		r.logger.Debug("cache hit", logging.String(logging.FieldTitle, requested))
		return &Result{Outcome: OutcomeResolved, Record: rec, FromCache: true}, nil
	case rec.Missing():
		// Repair passes own retries of exhausted rows; requests do not.
		return &Result{Outcome: OutcomeMissing, Record: rec, FromCache: true, Reason: ReasonCached}, nil
	default:
		// Enrichment-only row, no locator yet. Resolve live.
		return nil, nil
	}
}

// ProbeResult is a fresh catalog walk outcome, not yet persisted. Reason is
// empty on success.
type ProbeResult struct {
	LocatorURI   string
	MediaID      string
	MatchedTitle string
	Year         int
	Variant      string
	Similarity   float64
	Reason       string
}

// Probe walks the catalog for a fresh locator without consulting or writing
// the store. Repair passes use it to revalidate rows the cache would
// otherwise short-circuit.
func (r *Resolver) Probe(ctx context.Context, req Request) (*ProbeResult, error) {
	requested := strings.TrimSpace(req.Title)
	if requested == "" {
		return nil, errors.New("title is empty")
	}
	return r.walk(ctx, req, requested)
}

func (r *Resolver) resolveLive(ctx context.Context, req Request, requested string) (*Result, error) {
	out, err := r.walk(ctx, req, requested)
	if err != nil {
		return nil, err
	}

	if out.Reason != "" {
		r.logger.Info("resolution exhausted",
			logging.String(logging.FieldTitle, requested),
			logging.String("reason", out.Reason))
		rec, err := r.store.Upsert(ctx, &store.Record{
			Title:      requested,
			Year:       req.Year,
			TMDBID:     req.TMDBID,
			LocatorURI: store.NotFound,
		})
		if err != nil {
			return nil, fmt.Errorf("persist exhausted resolution: %w", err)
		}
		return &Result{Outcome: OutcomeMissing, Record: rec, Reason: out.Reason}, nil
	}

	return r.persistSuccess(ctx, req, requested, out)
}

func (r *Resolver) walk(ctx context.Context, req Request, requested string) (*ProbeResult, error) {
	if err := r.session.Ensure(ctx); err != nil {
		return nil, Wrap(ErrSessionFailed, requested, "open session", err)
	}

	sawCandidate := false
	sawQualifier := false
	for _, variant := range title.Variants(requested) {
		candidates, err := r.search(ctx, variant)
		if err != nil {
			if isSessionFailure(err) {
				return nil, err
			}
			// An ordinary failure only burns this variant.
			r.logger.Warn("variant search failed",
				logging.String(logging.FieldTitle, requested),
				logging.String(logging.FieldVariant, variant),
				logging.Error(err))
			continue
		}
		if len(candidates) == 0 {
			continue
		}
		sawCandidate = true

		qualifiers := r.qualify(requested, req.Year, candidates)
		if len(qualifiers) == 0 {
			continue
		}
		sawQualifier = true

		for _, q := range qualifiers {
			locator, err := r.fetchLocator(ctx, q.candidate)
			if err != nil {
				if isSessionFailure(err) {
					return nil, err
				}
				r.logger.Warn("candidate fetch failed",
					logging.String(logging.FieldTitle, requested),
					logging.String("candidate", q.candidate.DisplayTitle),
					logging.Error(err))
				continue
			}
			if locator == nil {
				r.logger.Debug("locator poll lapsed",
					logging.String(logging.FieldTitle, requested),
					logging.String("candidate", q.candidate.DisplayTitle))
				continue
			}
			return &ProbeResult{
				LocatorURI:   locator.URI,
				MediaID:      locator.MediaID,
				MatchedTitle: q.candidate.DisplayTitle,
				Year:         q.year,
				Variant:      variant,
				Similarity:   q.score,
			}, nil
		}
	}

	reason := ReasonLocatorTimeout
	switch {
	case !sawCandidate:
		reason = ReasonNoCandidates
	case !sawQualifier:
		reason = ReasonLowConfidence
	}
	return &ProbeResult{Reason: reason}, nil
}

// search runs a variant query, reopening the session once when it has gone
// stale mid-flight.
func (r *Resolver) search(ctx context.Context, variant string) ([]catalog.Candidate, error) {
	candidates, err := r.session.Search(ctx, variant)
	if err == nil {
		return candidates, nil
	}
	var sessionErr *catalog.SessionError
	if !errors.As(err, &sessionErr) {
		return nil, fmt.Errorf("search %q: %w", variant, err)
	}

	r.logger.Warn("catalog session lost, reopening",
		logging.String(logging.FieldVariant, variant),
		logging.Error(err))
	if err := r.session.Ensure(ctx); err != nil {
		return nil, Wrap(ErrSessionFailed, variant, "reopen session", err)
	}
	candidates, err = r.session.Search(ctx, variant)
	if err != nil {
		return nil, fmt.Errorf("search %q after reopen: %w", variant, err)
	}
	return candidates, nil
}

func (r *Resolver) fetchLocator(ctx context.Context, cand catalog.Candidate) (*catalog.Locator, error) {
	locator, err := r.session.FetchLocator(ctx, cand)
	if err == nil {
		return locator, nil
	}
	var sessionErr *catalog.SessionError
	if !errors.As(err, &sessionErr) {
		return nil, fmt.Errorf("fetch locator: %w", err)
	}

	if err := r.session.Ensure(ctx); err != nil {
		return nil, Wrap(ErrSessionFailed, cand.DisplayTitle, "reopen session", err)
	}
	locator, err = r.session.FetchLocator(ctx, cand)
	if err != nil {
		return nil, fmt.Errorf("fetch locator after reopen: %w", err)
	}
	return locator, nil
}

// isSessionFailure separates session loss (fatal for the walk, the caller
// already got its one reopen) from per-variant trouble like a broken detail
// page.
func isSessionFailure(err error) bool {
	var sessionErr *catalog.SessionError
	return errors.Is(err, ErrSessionFailed) || errors.As(err, &sessionErr)
}

type qualifier struct {
	candidate      catalog.Candidate
	score          float64
	year           int
	yearCompatible bool
}

// qualify scores candidates against the requested title and orders the
// survivors: year-compatible first, then by score.
func (r *Resolver) qualify(requested string, wantYear int, candidates []catalog.Candidate) []qualifier {
	shortTitle := len([]rune(title.Normalize(requested))) < r.opts.ShortTitleLen

	var qualifiers []qualifier
	for _, cand := range candidates {
		score, contained := title.ScoreWithContainment(requested, cand.DisplayTitle)
		if score < r.opts.MinSimilarity {
			continue
		}
		if shortTitle && !contained {
			continue
		}
		candYear := yearFromText(cand.RawYearText)
		compatible := wantYear == 0 || candYear == 0 || abs(candYear-wantYear) <= r.opts.YearTolerance
		qualifiers = append(qualifiers, qualifier{
			candidate:      cand,
			score:          score,
			year:           candYear,
			yearCompatible: compatible,
		})
	}

	sort.SliceStable(qualifiers, func(i, j int) bool {
		if qualifiers[i].yearCompatible != qualifiers[j].yearCompatible {
			return qualifiers[i].yearCompatible
		}
		return qualifiers[i].score > qualifiers[j].score
	})
	return qualifiers
}

func (r *Resolver) persistSuccess(ctx context.Context, req Request, requested string, out *ProbeResult) (*Result, error) {
	rec := &store.Record{
		Title:        requested,
		MatchedTitle: out.MatchedTitle,
		Year:         out.Year,
		TMDBID:       req.TMDBID,
		LocatorURI:   out.LocatorURI,
		MediaID:      out.MediaID,
	}
	if rec.Year == 0 {
		rec.Year = req.Year
	}

	if meta := r.enrichment(ctx, req, requested, rec.Year); meta != nil {
		if rec.TMDBID == 0 {
			rec.TMDBID = meta.TMDBID
		}
		if rec.Year == 0 {
			rec.Year = meta.Year
		}
		rec.PosterURL = meta.PosterURL
		rec.BackdropURL = meta.BackdropURL
		rec.Overview = meta.Overview
	}

	stored, err := r.store.Upsert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("persist resolution: %w", err)
	}
	r.logger.Info("resolved",
		logging.String(logging.FieldTitle, requested),
		logging.String(logging.FieldVariant, out.Variant),
		logging.String("matched", out.MatchedTitle),
		logging.Float64("similarity", out.Similarity))
	return &Result{
		Outcome:    OutcomeResolved,
		Record:     stored,
		Variant:    out.Variant,
		Similarity: out.Similarity,
	}, nil
}

// enrichment is best effort; failures are logged and swallowed.
func (r *Resolver) enrichment(ctx context.Context, req Request, requested string, year int) *enrich.Metadata {
	if !r.enricher.Enabled() {
		return nil
	}
	var meta *enrich.Metadata
	var err error
	if req.TMDBID > 0 {
		meta, err = r.enricher.LookupByID(ctx, req.TMDBID)
	} else {
		meta, err = r.enricher.Lookup(ctx, requested, year)
	}
	if err != nil {
		r.logger.Warn("enrichment failed",
			logging.String(logging.FieldTitle, requested),
			logging.Error(err))
		return nil
	}
	return meta
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

func yearFromText(text string) int {
	match := yearPattern.FindString(text)
	if match == "" {
		return 0
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return year
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
