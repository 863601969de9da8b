package resolver

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dedsfe/cinevibe/internal/catalog"
	"github.com/dedsfe/cinevibe/internal/store"
)

type fakeCatalog struct {
	searches       map[string][]catalog.Candidate
	locators       map[string]*catalog.Locator
	fetchErrs      map[string]error
	searchCalls    int
	openCalls      int
	failNextSearch error
}

func (f *fakeCatalog) Open(ctx context.Context) error {
	f.openCalls++
	return nil
}

func (f *fakeCatalog) Search(ctx context.Context, query string) ([]catalog.Candidate, error) {
	f.searchCalls++
	if err := f.failNextSearch; err != nil {
		f.failNextSearch = nil
		return nil, err
	}
	return f.searches[query], nil
}

func (f *fakeCatalog) FetchLocator(ctx context.Context, cand catalog.Candidate) (*catalog.Locator, error) {
	if err := f.fetchErrs[cand.DetailRef]; err != nil {
		return nil, err
	}
	return f.locators[cand.DetailRef], nil
}

func (f *fakeCatalog) Close() error { return nil }

func newTestResolver(t *testing.T, fake *fakeCatalog) (*Resolver, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	session := catalog.NewSession(fake, 0)
	r := New(session, st, nil, Options{MinSimilarity: 0.40, ShortTitleLen: 10, YearTolerance: 1}, nil)
	t.Cleanup(func() { _ = r.Close() })
	return r, st
}

func TestResolveSuccess(t *testing.T) {
	fake := &fakeCatalog{
		searches: map[string][]catalog.Candidate{
			"A Lista de Schindler": {
				{DisplayTitle: "A Lista de Schindler", DetailRef: "/movie/info/101", RawYearText: "1993"},
			},
		},
		locators: map[string]*catalog.Locator{
			"/movie/info/101": {URI: "https://cdn7.example.net/movies/tt0108052.mp4?token=a", MediaID: "tt0108052"},
		},
	}
	r, _ := newTestResolver(t, fake)

	result, err := r.Resolve(context.Background(), Request{Title: "A Lista de Schindler", Year: 1993})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Outcome != OutcomeResolved {
		t.Fatalf("Outcome = %s, want resolved", result.Outcome)
	}
	if result.FromCache {
		t.Error("first resolution should not be a cache hit")
	}
	if result.Record.MediaID != "tt0108052" {
		t.Errorf("MediaID = %q", result.Record.MediaID)
	}
	if result.Record.MatchedTitle != "A Lista de Schindler" {
		t.Errorf("MatchedTitle = %q", result.Record.MatchedTitle)
	}
	if result.Similarity != 1.0 {
		t.Errorf("Similarity = %v, want 1.0", result.Similarity)
	}
	if result.Record.Year != 1993 {
		t.Errorf("Year = %d", result.Record.Year)
	}
}

func TestResolveCacheHitSkipsCatalog(t *testing.T) {
	fake := &fakeCatalog{
		searches: map[string][]catalog.Candidate{
			"Interestelar": {{DisplayTitle: "Interestelar", DetailRef: "/movie/info/1"}},
		},
		locators: map[string]*catalog.Locator{
			"/movie/info/1": {URI: "https://cdn7.example.net/movies/tt0816692.mp4", MediaID: "tt0816692"},
		},
	}
	r, _ := newTestResolver(t, fake)

	if _, err := r.Resolve(context.Background(), Request{Title: "Interestelar"}); err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	callsAfterFirst := fake.searchCalls

	result, err := r.Resolve(context.Background(), Request{Title: "Interestelar"})
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if !result.FromCache {
		t.Error("expected cache hit")
	}
	if fake.searchCalls != callsAfterFirst {
		t.Errorf("searchCalls = %d, want %d (no catalog traffic on cache hit)", fake.searchCalls, callsAfterFirst)
	}
}

func TestResolveExhaustedPersistsNotFound(t *testing.T) {
	fake := &fakeCatalog{searches: map[string][]catalog.Candidate{}}
	r, st := newTestResolver(t, fake)

	result, err := r.Resolve(context.Background(), Request{Title: "Filme Inexistente XYZ999"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Outcome != OutcomeMissing {
		t.Fatalf("Outcome = %s, want missing", result.Outcome)
	}
	if result.Reason != ReasonNoCandidates {
		t.Errorf("Reason = %q, want no_candidates", result.Reason)
	}

	rec, err := st.GetByTitle(context.Background(), "Filme Inexistente XYZ999")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec == nil || !rec.Missing() {
		t.Fatalf("expected persisted NOT_FOUND marker, got %+v", rec)
	}

	// The marker short-circuits later requests.
	again, err := r.Resolve(context.Background(), Request{Title: "Filme Inexistente XYZ999"})
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if !again.FromCache || again.Reason != ReasonCached {
		t.Errorf("second result = %+v, want cached miss", again)
	}
}

func TestResolveLowConfidence(t *testing.T) {
	fake := &fakeCatalog{
		searches: map[string][]catalog.Candidate{
			"O Poderoso Chefao": {
				{DisplayTitle: "Documentario Sobre Tubaroes", DetailRef: "/movie/info/9"},
			},
		},
	}
	r, _ := newTestResolver(t, fake)

	result, err := r.Resolve(context.Background(), Request{Title: "O Poderoso Chefao"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Outcome != OutcomeMissing || result.Reason != ReasonLowConfidence {
		t.Fatalf("result = %+v, want low_confidence miss", result)
	}
}

func TestResolveLocatorTimeout(t *testing.T) {
	fake := &fakeCatalog{
		searches: map[string][]catalog.Candidate{
			"Interestelar": {{DisplayTitle: "Interestelar", DetailRef: "/movie/info/1"}},
		},
		// No locator for the detail ref: every poll window lapses.
		locators: map[string]*catalog.Locator{},
	}
	r, _ := newTestResolver(t, fake)

	result, err := r.Resolve(context.Background(), Request{Title: "Interestelar"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Outcome != OutcomeMissing || result.Reason != ReasonLocatorTimeout {
		t.Fatalf("result = %+v, want locator_timeout miss", result)
	}
}

func TestResolvePrefersYearCompatibleCandidate(t *testing.T) {
	fake := &fakeCatalog{
		searches: map[string][]catalog.Candidate{
			"Metropolis": {
				{DisplayTitle: "Metropolis", DetailRef: "/movie/info/2001", RawYearText: "2001"},
				{DisplayTitle: "Metropolis", DetailRef: "/movie/info/1927", RawYearText: "1927"},
			},
		},
		locators: map[string]*catalog.Locator{
			"/movie/info/2001": {URI: "https://cdn.example.net/metropolis-anime.mp4", MediaID: "metropolis-anime"},
			"/movie/info/1927": {URI: "https://cdn.example.net/metropolis-1927.mp4", MediaID: "metropolis-1927"},
		},
	}
	r, _ := newTestResolver(t, fake)

	result, err := r.Resolve(context.Background(), Request{Title: "Metropolis", Year: 1927})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Record.MediaID != "metropolis-1927" {
		t.Errorf("MediaID = %q, want the year-compatible candidate", result.Record.MediaID)
	}
}

func TestResolveYearIsAdvisoryOnly(t *testing.T) {
	fake := &fakeCatalog{
		searches: map[string][]catalog.Candidate{
			"Metropolis": {
				{DisplayTitle: "Metropolis", DetailRef: "/movie/info/2001", RawYearText: "2001"},
			},
		},
		locators: map[string]*catalog.Locator{
			"/movie/info/2001": {URI: "https://cdn.example.net/metropolis-anime.mp4", MediaID: "metropolis-anime"},
		},
	}
	r, _ := newTestResolver(t, fake)

	// The only candidate is outside the year window; it still wins.
	result, err := r.Resolve(context.Background(), Request{Title: "Metropolis", Year: 1927})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Outcome != OutcomeResolved {
		t.Fatalf("Outcome = %s, want resolved", result.Outcome)
	}
}

func TestResolveShortTitleRequiresContainment(t *testing.T) {
	fake := &fakeCatalog{
		searches: map[string][]catalog.Candidate{
			// "Up" edit-distance-matches all sorts of two-letter noise.
			"Up": {{DisplayTitle: "Os", DetailRef: "/movie/info/5"}},
		},
		locators: map[string]*catalog.Locator{
			"/movie/info/5": {URI: "https://cdn.example.net/os.mp4", MediaID: "os"},
		},
	}
	r, _ := newTestResolver(t, fake)

	result, err := r.Resolve(context.Background(), Request{Title: "Up"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Outcome != OutcomeMissing {
		t.Fatalf("Outcome = %s, want missing for non-contained short title", result.Outcome)
	}
}

func TestResolveReopensSessionOnSearchFailure(t *testing.T) {
	fake := &fakeCatalog{
		searches: map[string][]catalog.Candidate{
			"Interestelar": {{DisplayTitle: "Interestelar", DetailRef: "/movie/info/1"}},
		},
		locators: map[string]*catalog.Locator{
			"/movie/info/1": {URI: "https://cdn7.example.net/movies/tt0816692.mp4", MediaID: "tt0816692"},
		},
		failNextSearch: &catalog.SessionError{Op: "search", Err: errors.New("connection reset")},
	}
	r, _ := newTestResolver(t, fake)

	result, err := r.Resolve(context.Background(), Request{Title: "Interestelar"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Outcome != OutcomeResolved {
		t.Fatalf("Outcome = %s, want resolved after session reopen", result.Outcome)
	}
	if fake.openCalls != 2 {
		t.Errorf("openCalls = %d, want 2 (initial open plus reopen)", fake.openCalls)
	}
}

func TestResolveSkipsVariantOnSearchFailure(t *testing.T) {
	fake := &fakeCatalog{
		searches: map[string][]catalog.Candidate{
			// The first variant errors below; the normalized variant hits.
			"interestelar": {{DisplayTitle: "Interestelar", DetailRef: "/movie/info/1"}},
		},
		locators: map[string]*catalog.Locator{
			"/movie/info/1": {URI: "https://cdn7.example.net/movies/tt0816692.mp4", MediaID: "tt0816692"},
		},
		failNextSearch: errors.New("search results 500"),
	}
	r, _ := newTestResolver(t, fake)

	result, err := r.Resolve(context.Background(), Request{Title: "Interestelar"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Outcome != OutcomeResolved {
		t.Fatalf("Outcome = %s, want resolved via a later variant", result.Outcome)
	}
	if fake.openCalls != 1 {
		t.Errorf("openCalls = %d, want 1 (ordinary failures must not reopen the session)", fake.openCalls)
	}
}

func TestResolveSkipsCandidateOnFetchFailure(t *testing.T) {
	fake := &fakeCatalog{
		searches: map[string][]catalog.Candidate{
			"Interestelar": {
				{DisplayTitle: "Interestelar", DetailRef: "/movie/info/broken"},
				{DisplayTitle: "Interestelar", DetailRef: "/movie/info/1"},
			},
		},
		locators: map[string]*catalog.Locator{
			"/movie/info/1": {URI: "https://cdn7.example.net/movies/tt0816692.mp4", MediaID: "tt0816692"},
		},
		fetchErrs: map[string]error{
			"/movie/info/broken": errors.New("detail page 500"),
		},
	}
	r, _ := newTestResolver(t, fake)

	result, err := r.Resolve(context.Background(), Request{Title: "Interestelar"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Outcome != OutcomeResolved {
		t.Fatalf("Outcome = %s, want resolved via the next candidate", result.Outcome)
	}
	if result.Record.MediaID != "tt0816692" {
		t.Errorf("MediaID = %q", result.Record.MediaID)
	}
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	opts.applyDefaults()
	if opts.MinSimilarity != 0.40 {
		t.Errorf("MinSimilarity = %v, want 0.40", opts.MinSimilarity)
	}
	if opts.ShortTitleLen != 10 {
		t.Errorf("ShortTitleLen = %d, want 10", opts.ShortTitleLen)
	}
	if opts.YearTolerance != 1 {
		t.Errorf("YearTolerance = %d, want 1", opts.YearTolerance)
	}
}

func TestYearFromText(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"1993", 1993},
		{"Lancamento: 2014", 2014},
		{"", 0},
		{"sem ano", 0},
		{"12345", 0},
	}
	for _, tt := range tests {
		if got := yearFromText(tt.text); got != tt.want {
			t.Errorf("yearFromText(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
