package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists resolution results backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the results database and applies migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Upsert inserts or updates the record keyed by title. Unknown fields in the
// incoming record (empty strings, zero numbers) never clobber previously
// stored values; known fields always win.
func (s *Store) Upsert(ctx context.Context, rec *Record) (*Record, error) {
	if rec == nil {
		return nil, errors.New("record is nil")
	}
	if rec.Title == "" {
		return nil, errors.New("record title is empty")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO titles (
            title, matched_title, year, tmdb_id, locator_uri, media_id,
            poster_url, backdrop_url, overview, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(title) DO UPDATE SET
            matched_title = COALESCE(excluded.matched_title, titles.matched_title),
            year = COALESCE(excluded.year, titles.year),
            tmdb_id = COALESCE(excluded.tmdb_id, titles.tmdb_id),
            locator_uri = COALESCE(excluded.locator_uri, titles.locator_uri),
            media_id = COALESCE(excluded.media_id, titles.media_id),
            poster_url = COALESCE(excluded.poster_url, titles.poster_url),
            backdrop_url = COALESCE(excluded.backdrop_url, titles.backdrop_url),
            overview = COALESCE(excluded.overview, titles.overview),
            updated_at = excluded.updated_at`,
		rec.Title,
		nullableString(rec.MatchedTitle),
		nullableInt(rec.Year),
		nullableInt64(rec.TMDBID),
		nullableString(rec.LocatorURI),
		nullableString(rec.MediaID),
		nullableString(rec.PosterURL),
		nullableString(rec.BackdropURL),
		nullableString(rec.Overview),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert title: %w", err)
	}
	return s.GetByTitle(ctx, rec.Title)
}

// GetByTitle fetches the record for an exact title key, or nil when absent.
func (s *Store) GetByTitle(ctx context.Context, title string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM titles WHERE title = ?`, title)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get by title: %w", err)
	}
	return rec, nil
}

// GetByTMDBID fetches the first record carrying the given external ID.
func (s *Store) GetByTMDBID(ctx context.Context, tmdbID int64) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+recordColumns+` FROM titles WHERE tmdb_id = ? ORDER BY id LIMIT 1`,
		tmdbID,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get by tmdb id: %w", err)
	}
	return rec, nil
}

// List returns all records ordered by title.
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM titles ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// BatchStatus reports the cache standing for a set of TMDB ids without
// touching the catalog. Frontends hold external ids, not our title keys, so
// the lookup runs over the tmdb_id index. Ids with no row come back as
// BatchUnknown.
func (s *Store) BatchStatus(ctx context.Context, tmdbIDs []int64) (map[int64]BatchEntry, error) {
	result := make(map[int64]BatchEntry, len(tmdbIDs))
	for _, id := range tmdbIDs {
		result[id] = BatchEntry{Status: BatchUnknown}
	}
	if len(tmdbIDs) == 0 {
		return result, nil
	}

	placeholders := makePlaceholders(len(tmdbIDs))
	args := make([]any, len(tmdbIDs))
	for i, id := range tmdbIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT tmdb_id, locator_uri, media_id FROM titles WHERE tmdb_id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("batch status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var locator, mediaID sql.NullString
		if err := rows.Scan(&id, &locator, &mediaID); err != nil {
			return nil, err
		}
		switch {
		case locator.String == NotFound:
			result[id] = BatchEntry{Status: BatchMissing}
		case locator.String != "":
			result[id] = BatchEntry{
				Status:     BatchResolved,
				LocatorURI: locator.String,
				MediaID:    mediaID.String,
			}
		}
	}
	return result, rows.Err()
}

// MissingRecords returns up to limit exhausted-resolution rows, least
// recently repaired first so every row eventually gets another look.
func (s *Store) MissingRecords(ctx context.Context, limit int) ([]*Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM titles
         WHERE locator_uri = ?
         ORDER BY repair_attempts, last_repair_at IS NOT NULL, last_repair_at
         LIMIT ?`,
		NotFound,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("missing records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// SuspectRecords returns up to limit resolved rows whose locator the given
// predicate flags, least recently repaired first.
func (s *Store) SuspectRecords(ctx context.Context, limit int, isSuspect func(locatorURI string) bool) ([]*Record, error) {
	if isSuspect == nil || limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM titles
         WHERE locator_uri IS NOT NULL AND locator_uri != '' AND locator_uri != ?
         ORDER BY repair_attempts, last_repair_at IS NOT NULL, last_repair_at`,
		NotFound,
	)
	if err != nil {
		return nil, fmt.Errorf("suspect records: %w", err)
	}
	defer rows.Close()

	var suspects []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		if !isSuspect(rec.LocatorURI) {
			continue
		}
		suspects = append(suspects, rec)
		if len(suspects) >= limit {
			break
		}
	}
	return suspects, rows.Err()
}

// ReplaceLocator overwrites the stored locator after a successful repair and
// clears the repair counter so the row leaves the retry rotation.
func (s *Store) ReplaceLocator(ctx context.Context, id int64, locatorURI, mediaID, matchedTitle string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE titles
         SET locator_uri = ?, media_id = ?,
             matched_title = COALESCE(?, matched_title),
             repair_attempts = 0, last_repair_at = ?, updated_at = ?
         WHERE id = ?`,
		locatorURI,
		nullableString(mediaID),
		nullableString(matchedTitle),
		now,
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("replace locator: %w", err)
	}
	return nil
}

// RecordRepairFailure bumps the repair counter after an unsuccessful attempt.
func (s *Store) RecordRepairFailure(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE titles
         SET repair_attempts = repair_attempts + 1, last_repair_at = ?, updated_at = ?
         WHERE id = ?`,
		now,
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("record repair failure: %w", err)
	}
	return nil
}

// ResetRepairAttempts zeroes the repair counters, for every row or a subset.
func (s *Store) ResetRepairAttempts(ctx context.Context, ids ...int64) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE titles SET repair_attempts = 0, updated_at = ? WHERE repair_attempts > 0`,
			now,
		)
		if err != nil {
			return 0, fmt.Errorf("reset repair attempts: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, now)
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE titles SET repair_attempts = 0, updated_at = ? WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reset selected repair attempts: %w", err)
	}
	return res.RowsAffected()
}

// Stats aggregates the store for the cache stats endpoint and CLI status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1),
                COALESCE(SUM(CASE WHEN locator_uri IS NOT NULL AND locator_uri != '' AND locator_uri != ? THEN 1 ELSE 0 END), 0),
                COALESCE(SUM(CASE WHEN locator_uri = ? THEN 1 ELSE 0 END), 0),
                COALESCE(SUM(CASE WHEN tmdb_id IS NOT NULL THEN 1 ELSE 0 END), 0)
         FROM titles`,
		NotFound,
		NotFound,
	)
	var stats Stats
	if err := row.Scan(&stats.Total, &stats.Resolved, &stats.Missing, &stats.Enriched); err != nil {
		return Stats{}, fmt.Errorf("store stats: %w", err)
	}
	return stats, nil
}

const recordColumns = "id, title, matched_title, year, tmdb_id, locator_uri, media_id, poster_url, backdrop_url, overview, repair_attempts, last_repair_at, created_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id             int64
		title          string
		matchedTitle   sql.NullString
		year           sql.NullInt64
		tmdbID         sql.NullInt64
		locatorURI     sql.NullString
		mediaID        sql.NullString
		posterURL      sql.NullString
		backdropURL    sql.NullString
		overview       sql.NullString
		repairAttempts int
		lastRepairRaw  sql.NullString
		createdRaw     string
		updatedRaw     string
	)

	if err := scanner.Scan(
		&id,
		&title,
		&matchedTitle,
		&year,
		&tmdbID,
		&locatorURI,
		&mediaID,
		&posterURL,
		&backdropURL,
		&overview,
		&repairAttempts,
		&lastRepairRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	rec := &Record{
		ID:             id,
		Title:          title,
		MatchedTitle:   matchedTitle.String,
		Year:           int(year.Int64),
		TMDBID:         tmdbID.Int64,
		LocatorURI:     locatorURI.String,
		MediaID:        mediaID.String,
		PosterURL:      posterURL.String,
		BackdropURL:    backdropURL.String,
		Overview:       overview.String,
		RepairAttempts: repairAttempts,
	}
	if lastRepairRaw.Valid {
		if t, err := parseTimeString(lastRepairRaw.String); err == nil {
			rec.LastRepairAt = &t
		}
	}
	if t, err := parseTimeString(createdRaw); err == nil {
		rec.CreatedAt = t
	}
	if t, err := parseTimeString(updatedRaw); err == nil {
		rec.UpdatedAt = t
	}
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullableInt64(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
