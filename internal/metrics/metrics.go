package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	PlacesResolved  *prometheus.CounterVec
	PointsAnnotated *prometheus.CounterVec
	MatchesComputed prometheus.Counter
	APIErrors       prometheus.Counter
	RequestSeconds  *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec
	ActiveWorkers   prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		PlacesResolved: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "periplus_places_resolved_total",
			Help: "Total number of place names processed by forward geocoding.",
		}, []string{"status"}),
		PointsAnnotated: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "periplus_points_annotated_total",
			Help: "Total number of coordinates processed by reverse geocoding.",
		}, []string{"status"}),
		MatchesComputed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "periplus_matches_computed_total",
			Help: "Total number of nearest-city matches computed.",
		}),
		APIErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "periplus_provider_api_errors_total",
			Help: "Total number of errors received from the geocoding provider API.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "periplus_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		CacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "periplus_cache_lookups_total",
			Help: "Total number of geocode cache lookups.",
		}, []string{"result"}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "periplus_active_workers",
			Help: "Current number of active workers processing lookups.",
		}),
	}
}
