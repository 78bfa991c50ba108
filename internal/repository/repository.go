package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/periplus/internal/models"
)

// ErrCacheMiss is returned when the cache holds no entry for the requested key.
var ErrCacheMiss = errors.New("geocode cache miss")

// Interface is the geocode cache contract. Forward results are keyed by the
// normalized place query, reverse results by the rounded coordinate. Both
// fetch methods return ErrCacheMiss when nothing is cached.
type Interface interface {
	FetchPlaceCoordinates(ctx context.Context, place string) (*models.Coordinates, error)
	SavePlaceCoordinates(ctx context.Context, place string, coords models.Coordinates) error
	FetchPointAddress(ctx context.Context, point models.Coordinates) (*models.Address, error)
	SavePointAddress(ctx context.Context, point models.Coordinates, addr models.Address) error
	Ping(ctx context.Context) error
	Close() error
}

// placeKey normalizes a place query and hashes it into a cache key.
func placeKey(place string) string {
	normalized := strings.ToLower(strings.TrimSpace(place))
	sum := sha256.Sum256([]byte(normalized))

	return hex.EncodeToString(sum[:])
}

// pointKey rounds a coordinate to five decimal places (about one meter) and
// hashes it, so repeated lookups of the same point share an entry.
func pointKey(point models.Coordinates) string {
	rounded := strconv.FormatFloat(point.Latitude, 'f', 5, 64) +
		":" + strconv.FormatFloat(point.Longitude, 'f', 5, 64)
	sum := sha256.Sum256([]byte(rounded))

	return hex.EncodeToString(sum[:])
}

// Noop is the disabled cache: every lookup misses and saves are dropped.
type Noop struct{}

// NewNoop returns the disabled cache implementation.
func NewNoop() *Noop { return &Noop{} }

func (*Noop) FetchPlaceCoordinates(context.Context, string) (*models.Coordinates, error) {
	return nil, ErrCacheMiss
}

func (*Noop) SavePlaceCoordinates(context.Context, string, models.Coordinates) error { return nil }

func (*Noop) FetchPointAddress(context.Context, models.Coordinates) (*models.Address, error) {
	return nil, ErrCacheMiss
}

func (*Noop) SavePointAddress(context.Context, models.Coordinates, models.Address) error { return nil }

func (*Noop) Ping(context.Context) error { return nil }

func (*Noop) Close() error { return nil }
