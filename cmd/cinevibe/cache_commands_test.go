package main

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/dedsfe/cinevibe/internal/store"
)

func seedRecord(t *testing.T, env *cliTestEnv, rec *store.Record) *store.Record {
	t.Helper()
	st, err := store.Open(filepath.Join(env.dataDir, "results.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	saved, err := st.Upsert(context.Background(), rec)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	return saved
}

func TestCacheListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRecord(t, env, &store.Record{
		Title:        "Interestelar",
		MatchedTitle: "Interestelar",
		Year:         2014,
		LocatorURI:   "https://cdn7.example.net/movies/tt0816692.mp4",
		MediaID:      "tt0816692",
	})
	seedRecord(t, env, &store.Record{Title: "Filme Perdido", LocatorURI: store.NotFound})

	out, _, err := runCLI(t, []string{"cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "Interestelar")
	requireContains(t, out, "tt0816692")
	requireContains(t, out, "Filme Perdido")

	out, _, err = runCLI(t, []string{"cache", "list", "--missing"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list --missing: %v", err)
	}
	requireContains(t, out, "Filme Perdido")
	if strings.Contains(out, "Interestelar") {
		t.Error("resolved title listed with --missing")
	}

	out, _, err = runCLI(t, []string{"cache", "show", "Interestelar"}, env.configPath)
	if err != nil {
		t.Fatalf("cache show: %v", err)
	}
	requireContains(t, out, "resolved")
	requireContains(t, out, "https://cdn7.example.net/movies/tt0816692.mp4")
}

func TestCacheShowUnknownTitle(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"cache", "show", "Nunca Pedido"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown title")
	}
}

func TestCacheResetRepairs(t *testing.T) {
	env := setupCLITestEnv(t)
	rec := seedRecord(t, env, &store.Record{Title: "Filme Perdido", LocatorURI: store.NotFound})

	st, err := store.Open(filepath.Join(env.dataDir, "results.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.RecordRepairFailure(context.Background(), rec.ID); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	_ = st.Close()

	out, _, err := runCLI(t, []string{"cache", "reset-repairs", strconv.FormatInt(rec.ID, 10)}, env.configPath)
	if err != nil {
		t.Fatalf("cache reset-repairs: %v", err)
	}
	requireContains(t, out, "Reset repair attempts on 1 record(s)")
}

func TestCacheStats(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRecord(t, env, &store.Record{Title: "Filme Perdido", LocatorURI: store.NotFound})

	out, _, err := runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, "Missing")
}
