package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/periplus/internal/models"
	_ "modernc.org/sqlite" // registers the sqlite driver
)

// SQLite is the file-backed geocode cache, the default backend. It needs no
// external services, so a fresh checkout can run with caching enabled.
type SQLite struct {
	db  *sql.DB
	log *slog.Logger
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS place_cache (
	place_hash TEXT PRIMARY KEY,
	place      TEXT NOT NULL,
	latitude   REAL NOT NULL,
	longitude  REAL NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS address_cache (
	point_hash TEXT PRIMARY KEY,
	latitude   REAL NOT NULL,
	longitude  REAL NOT NULL,
	country    TEXT NOT NULL DEFAULT '',
	city       TEXT NOT NULL DEFAULT '',
	formatted  TEXT NOT NULL DEFAULT '',
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// NewSQLite opens (or creates) the cache database at path, configures WAL
// mode and applies the schema.
func NewSQLite(path string, log *slog.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err = db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to exec %s: %w", pragma, err)
		}
	}

	if _, err = db.Exec(sqliteMigration); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply cache schema: %w", err)
	}

	return &SQLite{db: db, log: log}, nil
}

// FetchPlaceCoordinates returns the cached coordinates for a place query, or
// ErrCacheMiss when the place has not been geocoded before.
func (r *SQLite) FetchPlaceCoordinates(ctx context.Context, place string) (*models.Coordinates, error) {
	query := `SELECT latitude, longitude FROM place_cache WHERE place_hash = ?;`

	var coords models.Coordinates
	err := r.db.QueryRowContext(ctx, query, placeKey(place)).Scan(&coords.Latitude, &coords.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cached place: %w", err)
	}

	r.log.DebugContext(ctx, "Cached coordinates found", "place", place)

	return &coords, nil
}

// SavePlaceCoordinates stores geocoded coordinates for a place query,
// replacing any previous entry.
func (r *SQLite) SavePlaceCoordinates(ctx context.Context, place string, coords models.Coordinates) error {
	query := `
		INSERT INTO place_cache (place_hash, place, latitude, longitude)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (place_hash) DO UPDATE
		SET latitude = excluded.latitude, longitude = excluded.longitude, cached_at = datetime('now');
	`

	_, err := r.db.ExecContext(ctx, query, placeKey(place), place, coords.Latitude, coords.Longitude)
	if err != nil {
		return fmt.Errorf("failed to store geocoded place: %w", err)
	}

	return nil
}

// FetchPointAddress returns the cached reverse-geocoded address for a
// coordinate, or ErrCacheMiss when the point has not been looked up before.
func (r *SQLite) FetchPointAddress(ctx context.Context, point models.Coordinates) (*models.Address, error) {
	query := `SELECT country, city, formatted FROM address_cache WHERE point_hash = ?;`

	var addr models.Address
	err := r.db.QueryRowContext(ctx, query, pointKey(point)).Scan(&addr.Country, &addr.City, &addr.Formatted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cached address: %w", err)
	}

	r.log.DebugContext(ctx, "Cached address found", "lat", point.Latitude, "lon", point.Longitude)

	return &addr, nil
}

// SavePointAddress stores a reverse-geocoded address for a coordinate,
// replacing any previous entry.
func (r *SQLite) SavePointAddress(ctx context.Context, point models.Coordinates, addr models.Address) error {
	query := `
		INSERT INTO address_cache (point_hash, latitude, longitude, country, city, formatted)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (point_hash) DO UPDATE
		SET country = excluded.country, city = excluded.city, formatted = excluded.formatted,
			cached_at = datetime('now');
	`

	_, err := r.db.ExecContext(ctx, query,
		pointKey(point), point.Latitude, point.Longitude, addr.Country, addr.City, addr.Formatted)
	if err != nil {
		return fmt.Errorf("failed to store reverse geocoded address: %w", err)
	}

	return nil
}

// Ping verifies the database file is reachable.
func (r *SQLite) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database file.
func (r *SQLite) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
