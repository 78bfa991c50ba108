package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/periplus/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database abstracts the pgx connection pool so tests can substitute a mock.
type Database interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// Postgres is the shared geocode cache backed by a PostgreSQL database.
type Postgres struct {
	db  Database
	log *slog.Logger
}

// NewDatabase opens a pgx connection pool for the given settings and
// verifies the connection with a ping.
func NewDatabase(ctx context.Context, host, port, user, password, name string) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, name)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// NewPostgres creates a new instance of Postgres cache with the provided Database.
// It returns a pointer to the newly created Postgres.
func NewPostgres(db Database, log *slog.Logger) *Postgres {
	return &Postgres{db: db, log: log}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS place_cache (
	place_hash TEXT PRIMARY KEY,
	place      TEXT NOT NULL,
	latitude   DOUBLE PRECISION NOT NULL,
	longitude  DOUBLE PRECISION NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS address_cache (
	point_hash TEXT PRIMARY KEY,
	latitude   DOUBLE PRECISION NOT NULL,
	longitude  DOUBLE PRECISION NOT NULL,
	country    TEXT NOT NULL DEFAULT '',
	city       TEXT NOT NULL DEFAULT '',
	formatted  TEXT NOT NULL DEFAULT '',
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate applies the cache schema. It is safe to call on every start.
func (r *Postgres) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, postgresMigration); err != nil {
		return fmt.Errorf("failed to apply cache schema: %w", err)
	}

	return nil
}

// FetchPlaceCoordinates returns the cached coordinates for a place query, or
// ErrCacheMiss when the place has not been geocoded before.
func (r *Postgres) FetchPlaceCoordinates(ctx context.Context, place string) (*models.Coordinates, error) {
	query := `
		SELECT latitude, longitude
		FROM place_cache
		WHERE place_hash = $1;
	`

	var coords models.Coordinates
	err := r.db.QueryRow(ctx, query, placeKey(place)).Scan(&coords.Latitude, &coords.Longitude)
	if errors.Is(err, pgx.ErrNoRows) {
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
func (r *Postgres) SavePlaceCoordinates(ctx context.Context, place string, coords models.Coordinates) error {
	query := `
		INSERT INTO place_cache (place_hash, place, latitude, longitude)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (place_hash) DO UPDATE
		SET latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude, cached_at = now();
	`

	_, err := r.db.Exec(ctx, query, placeKey(place), place, coords.Latitude, coords.Longitude)
	if err != nil {
		return fmt.Errorf("failed to store geocoded place: %w", err)
	}

	return nil
}

// FetchPointAddress returns the cached reverse-geocoded address for a
// coordinate, or ErrCacheMiss when the point has not been looked up before.
func (r *Postgres) FetchPointAddress(ctx context.Context, point models.Coordinates) (*models.Address, error) {
	query := `
		SELECT country, city, formatted
		FROM address_cache
		WHERE point_hash = $1;
	`

	var addr models.Address
	err := r.db.QueryRow(ctx, query, pointKey(point)).Scan(&addr.Country, &addr.City, &addr.Formatted)
	if errors.Is(err, pgx.ErrNoRows) {
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
func (r *Postgres) SavePointAddress(ctx context.Context, point models.Coordinates, addr models.Address) error {
	query := `
		INSERT INTO address_cache (point_hash, latitude, longitude, country, city, formatted)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (point_hash) DO UPDATE
		SET country = EXCLUDED.country, city = EXCLUDED.city, formatted = EXCLUDED.formatted, cached_at = now();
	`

	_, err := r.db.Exec(ctx, query,
		pointKey(point), point.Latitude, point.Longitude, addr.Country, addr.City, addr.Formatted)
	if err != nil {
		return fmt.Errorf("failed to store reverse geocoded address: %w", err)
	}

	return nil
}

// Ping verifies the database connection.
func (r *Postgres) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close releases the connection pool.
func (r *Postgres) Close() error {
	r.db.Close()

	return nil
}
