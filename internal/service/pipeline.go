package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/periplus/internal/geo"
	"github.com/UnknownOlympus/periplus/internal/geocoding"
	"github.com/UnknownOlympus/periplus/internal/metrics"
	"github.com/UnknownOlympus/periplus/internal/models"
	"golang.org/x/sync/errgroup"
)

// Pipeline provides the three stages of a matching run: resolving place
// names to cities, annotating coordinates with reverse-geocoded addresses,
// and matching each coordinate to its nearest city. Stages are independent;
// commands compose the ones they need.
type Pipeline struct {
	log          *slog.Logger       // Logger for logging pipeline activities
	provider     geocoding.Provider // Geocoding provider for external lookups
	providerName string             // Name of the provider for metrics labeling
	metrics      *metrics.Metrics   // Metrics for tracking pipeline performance
	numWorkers   int                // Number of concurrent workers for processing
	matcherKind  geo.MatcherKind    // Matcher implementation for nearest-city lookups
}

// resolveJob carries one place name through the worker pool together with
// its input position, so results can be placed back in input order.
type resolveJob struct {
	idx  int
	name string
}

// NewPipeline creates a new Pipeline. It takes a logger, a geocoding
// provider with its name for metrics labeling, metrics, the number of
// concurrent workers, and the matcher kind for nearest-city lookups.
func NewPipeline(
	log *slog.Logger,
	provider geocoding.Provider,
	providerName string,
	mtr *metrics.Metrics,
	numWorkers int,
	matcherKind geo.MatcherKind,
) *Pipeline {
	return &Pipeline{
		log:          log,
		provider:     provider,
		providerName: providerName,
		metrics:      mtr,
		numWorkers:   numWorkers,
		matcherKind:  matcherKind,
	}
}

// ResolveCities geocodes each place name into a NamedCity using a worker
// pool. Names that cannot be resolved are logged and skipped: they simply do
// not appear in the result. Resolved cities keep the order of their input
// names. The only error returned is context cancellation.
func (p *Pipeline) ResolveCities(ctx context.Context, names []string) ([]models.NamedCity, error) {
	if len(names) == 0 {
		return nil, nil
	}

	p.log.InfoContext(ctx, "Resolving place names. Starting worker pool.",
		"jobs", len(names), "num_workers", p.numWorkers)

	jobs := make(chan resolveJob, len(names))
	resolved := make([]*models.NamedCity, len(names))
	var wgr sync.WaitGroup

	for i := 1; i <= p.numWorkers; i++ {
		wgr.Add(1)
		go p.resolveWorker(ctx, i, &wgr, jobs, resolved)
	}

	for idx, name := range names {
		jobs <- resolveJob{idx: idx, name: name}
	}
	close(jobs)

	wgr.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolving interrupted: %w", err)
	}

	cities := make([]models.NamedCity, 0, len(names))
	for _, city := range resolved {
		if city != nil {
			cities = append(cities, *city)
		}
	}

	p.log.InfoContext(ctx, "Place names resolved", "requested", len(names), "resolved", len(cities))

	return cities, nil
}

// resolveWorker consumes place names from the jobs channel and writes each
// resolved city into its input slot. Workers share nothing but the jobs
// channel and disjoint result slots.
func (p *Pipeline) resolveWorker(
	ctx context.Context,
	idx int,
	wg *sync.WaitGroup,
	jobs <-chan resolveJob,
	resolved []*models.NamedCity,
) {
	defer wg.Done()
	for job := range jobs {
		p.metrics.ActiveWorkers.Inc()
		p.log.DebugContext(ctx, "Resolving place", "worker", idx, "place", job.name)

		startTime := time.Now()
		coords, err := p.provider.Geocode(ctx, job.name)
		duration := time.Since(startTime).Seconds()
		p.metrics.RequestSeconds.WithLabelValues(p.providerName).Observe(duration)

		if err != nil {
			// Unresolvable places are skipped, never fatal.
			p.log.ErrorContext(ctx, "Failed to geocode place, skipping",
				"worker", idx, "place", job.name, "error", err)
			p.metrics.PlacesResolved.WithLabelValues("failure").Inc()
			p.metrics.APIErrors.Inc()
			p.metrics.ActiveWorkers.Dec()
			continue
		}

		p.metrics.PlacesResolved.WithLabelValues("success").Inc()
		resolved[job.idx] = &models.NamedCity{Name: job.name, Location: *coords}
		p.metrics.ActiveWorkers.Dec()
	}
}

// AnnotateCoordinates reverse geocodes each coordinate into an
// AnnotatedCoordinate. Lookups run concurrently with a bounded group; each
// one is independent, so a failed point is logged and skipped while the
// rest of the batch continues. Annotated rows keep the order of their input
// coordinates. The only error returned is context cancellation.
func (p *Pipeline) AnnotateCoordinates(
	ctx context.Context,
	points []models.Coordinates,
) ([]models.AnnotatedCoordinate, error) {
	if len(points) == 0 {
		return nil, nil
	}

	p.log.InfoContext(ctx, "Annotating coordinates", "points", len(points), "num_workers", p.numWorkers)

	annotated := make([]*models.AnnotatedCoordinate, len(points))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.numWorkers)

	for idx, point := range points {
		group.Go(func() error {
			p.metrics.ActiveWorkers.Inc()
			defer p.metrics.ActiveWorkers.Dec()

			startTime := time.Now()
			addr, err := p.provider.ReverseGeocode(groupCtx, point)
			duration := time.Since(startTime).Seconds()
			p.metrics.RequestSeconds.WithLabelValues(p.providerName).Observe(duration)

			if err != nil {
				// Points without an address are skipped, never fatal.
				p.log.ErrorContext(groupCtx, "Failed to reverse geocode point, skipping",
					"lat", point.Latitude, "lon", point.Longitude, "error", err)
				p.metrics.PointsAnnotated.WithLabelValues("failure").Inc()
				p.metrics.APIErrors.Inc()
				return nil
			}

			p.metrics.PointsAnnotated.WithLabelValues("success").Inc()
			annotated[idx] = &models.AnnotatedCoordinate{Location: point, Address: *addr}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("annotation interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("annotation interrupted: %w", err)
	}

	rows := make([]models.AnnotatedCoordinate, 0, len(points))
	for _, row := range annotated {
		if row != nil {
			rows = append(rows, *row)
		}
	}

	p.log.InfoContext(ctx, "Coordinates annotated", "requested", len(points), "annotated", len(rows))

	return rows, nil
}

// MatchNearest assigns each query coordinate to its nearest city using the
// configured matcher. Results keep query order. An empty candidate set
// aborts the run: a closest-city report computed against no cities would
// hide a broken input.
func (p *Pipeline) MatchNearest(
	ctx context.Context,
	queries []models.Coordinates,
	cities []models.NamedCity,
) ([]models.MatchResult, error) {
	matcher, err := geo.NewMatcher(p.matcherKind, cities)
	if err != nil {
		return nil, fmt.Errorf("failed to build matcher: %w", err)
	}

	p.log.InfoContext(ctx, "Matching coordinates to nearest cities",
		"queries", len(queries), "candidates", len(cities), "matcher", string(p.matcherKind))

	results := make([]models.MatchResult, 0, len(queries))
	for _, query := range queries {
		city, dist, err := matcher.Nearest(query)
		if err != nil {
			return nil, fmt.Errorf("failed to match coordinate: %w", err)
		}

		p.metrics.MatchesComputed.Inc()
		results = append(results, models.MatchResult{Query: query, Closest: city, DistanceKm: dist})
	}

	return results, nil
}
