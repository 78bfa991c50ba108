package geocoding

import (
	"context"
	"errors"
	"log/slog"

	"github.com/UnknownOlympus/periplus/internal/metrics"
	"github.com/UnknownOlympus/periplus/internal/models"
	"github.com/UnknownOlympus/periplus/internal/repository"
)

// CachedProvider wraps another provider with the geocode cache. Hits skip
// the remote call entirely; cache failures degrade to the wrapped provider,
// so a broken cache never fails a lookup.
type CachedProvider struct {
	inner   Provider
	cache   repository.Interface
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewCachedProvider decorates inner with the given cache.
func NewCachedProvider(
	inner Provider,
	cache repository.Interface,
	mtr *metrics.Metrics,
	log *slog.Logger,
) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache, metrics: mtr, log: log}
}

// Geocode answers from the cache when possible and stores fresh results
// after a successful provider call.
func (cp *CachedProvider) Geocode(ctx context.Context, place string) (*models.Coordinates, error) {
	coords, err := cp.cache.FetchPlaceCoordinates(ctx, place)
	if err == nil {
		cp.metrics.CacheLookups.WithLabelValues("hit").Inc()
		cp.log.DebugContext(ctx, "Geocode cache hit", "place", place)
		return coords, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		cp.log.WarnContext(ctx, "Geocode cache lookup failed", "place", place, "error", err)
	}
	cp.metrics.CacheLookups.WithLabelValues("miss").Inc()

	coords, err = cp.inner.Geocode(ctx, place)
	if err != nil {
		return nil, err
	}

	if saveErr := cp.cache.SavePlaceCoordinates(ctx, place, *coords); saveErr != nil {
		cp.log.WarnContext(ctx, "Failed to cache geocode result", "place", place, "error", saveErr)
	}

	return coords, nil
}

// ReverseGeocode answers from the cache when possible and stores fresh
// results after a successful provider call.
func (cp *CachedProvider) ReverseGeocode(ctx context.Context, point models.Coordinates) (*models.Address, error) {
	addr, err := cp.cache.FetchPointAddress(ctx, point)
	if err == nil {
		cp.metrics.CacheLookups.WithLabelValues("hit").Inc()
		cp.log.DebugContext(ctx, "Reverse geocode cache hit", "lat", point.Latitude, "lon", point.Longitude)
		return addr, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		cp.log.WarnContext(ctx, "Reverse geocode cache lookup failed",
			"lat", point.Latitude, "lon", point.Longitude, "error", err)
	}
	cp.metrics.CacheLookups.WithLabelValues("miss").Inc()

	addr, err = cp.inner.ReverseGeocode(ctx, point)
	if err != nil {
		return nil, err
	}

	if saveErr := cp.cache.SavePointAddress(ctx, point, *addr); saveErr != nil {
		cp.log.WarnContext(ctx, "Failed to cache reverse geocode result",
			"lat", point.Latitude, "lon", point.Longitude, "error", saveErr)
	}

	return addr, nil
}
