package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTMDBServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search/movie", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") == "" {
			http.Error(w, "missing api key", http.StatusUnauthorized)
			return
		}
		query := r.URL.Query().Get("query")
		year := r.URL.Query().Get("primary_release_year")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case query == "Interestelar" && (year == "" || year == "2014"):
			fmt.Fprint(w, `{"page":1,"results":[{"id":157336,"title":"Interestelar","overview":"Exploradores viajam por um buraco de minhoca.","release_date":"2014-11-05","poster_path":"/poster.jpg","backdrop_path":"/backdrop.jpg"}],"total_pages":1,"total_results":1}`)
		case query == "Metropolis" && year == "":
			// Only matches once the year filter is dropped.
			fmt.Fprint(w, `{"page":1,"results":[{"id":19,"title":"Metropolis","release_date":"1927-01-10"}],"total_pages":1,"total_results":1}`)
		default:
			fmt.Fprint(w, `{"page":1,"results":[],"total_pages":1,"total_results":0}`)
		}
	})
	mux.HandleFunc("/movie/157336", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":157336,"title":"Interestelar","release_date":"2014-11-05","poster_path":"/poster.jpg"}`)
	})
	return httptest.NewServer(mux)
}

func newTestEnricher(t *testing.T, baseURL string) *Enricher {
	t.Helper()
	client, err := New("test-key", baseURL, "pt-BR")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return NewEnricher(client, nil)
}

func TestLookup(t *testing.T) {
	server := newTMDBServer(t)
	defer server.Close()

	enricher := newTestEnricher(t, server.URL)
	meta, err := enricher.Lookup(context.Background(), "Interestelar", 2014)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if meta == nil {
		t.Fatal("expected metadata")
	}
	if meta.TMDBID != 157336 {
		t.Errorf("TMDBID = %d", meta.TMDBID)
	}
	if meta.Year != 2014 {
		t.Errorf("Year = %d", meta.Year)
	}
	if meta.PosterURL != "https://image.tmdb.org/t/p/w500/poster.jpg" {
		t.Errorf("PosterURL = %q", meta.PosterURL)
	}
}

func TestLookupRetriesWithoutYear(t *testing.T) {
	server := newTMDBServer(t)
	defer server.Close()

	enricher := newTestEnricher(t, server.URL)
	meta, err := enricher.Lookup(context.Background(), "Metropolis", 1926)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if meta == nil || meta.TMDBID != 19 {
		t.Fatalf("meta = %+v, want id 19 via yearless retry", meta)
	}
}

func TestLookupNoMatch(t *testing.T) {
	server := newTMDBServer(t)
	defer server.Close()

	enricher := newTestEnricher(t, server.URL)
	meta, err := enricher.Lookup(context.Background(), "Filme Inexistente XYZ999", 0)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if meta != nil {
		t.Fatalf("expected nil metadata, got %+v", meta)
	}
}

func TestLookupByID(t *testing.T) {
	server := newTMDBServer(t)
	defer server.Close()

	enricher := newTestEnricher(t, server.URL)
	meta, err := enricher.LookupByID(context.Background(), 157336)
	if err != nil {
		t.Fatalf("LookupByID: %v", err)
	}
	if meta == nil || meta.Title != "Interestelar" {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestDisabledEnricher(t *testing.T) {
	enricher := NewEnricher(nil, nil)
	if enricher.Enabled() {
		t.Fatal("nil searcher should disable enrichment")
	}
	meta, err := enricher.Lookup(context.Background(), "Interestelar", 0)
	if err != nil || meta != nil {
		t.Fatalf("disabled lookup = (%+v, %v), want (nil, nil)", meta, err)
	}
}
