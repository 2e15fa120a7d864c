package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup results.
const (
	LookupHit      = "hit"
	LookupMiss     = "miss"
	LookupStale    = "stale"
	LookupMismatch = "mismatch"
)

// Resolution outcomes.
const (
	OutcomeCached   = "cached"
	OutcomeFetched  = "fetched"
	OutcomeSynced   = "synced"
	OutcomeFallback = "fallback"
	OutcomeFailed   = "failed"
)

// Metrics provides observability for claims resolution and caching.
type Metrics struct {
	CacheLookups    *prometheus.CounterVec
	ResolveOutcomes *prometheus.CounterVec
	ResolveDuration prometheus.Histogram
	ProfileSyncs    prometheus.Counter
}

// New registers the claims metrics on reg. Pass prometheus.DefaultRegisterer
// in binaries and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "coursegate_claims_cache_lookups_total",
			Help: "Claims cache lookups by result",
		}, []string{"result"}),
		ResolveOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "coursegate_claims_resolve_total",
			Help: "Claims resolutions by outcome",
		}, []string{"outcome"}),
		ResolveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "coursegate_claims_resolve_duration_seconds",
			Help:    "Duration of claims resolution including backend calls",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		ProfileSyncs: f.NewCounter(prometheus.CounterOpts{
			Name: "coursegate_claims_profile_syncs_total",
			Help: "Profile sync calls issued for subjects without a server role",
		}),
	}
}

func (m *Metrics) RecordLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveResolve records the outcome and the duration since start.
func (m *Metrics) ObserveResolve(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.ResolveOutcomes.WithLabelValues(outcome).Inc()
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementProfileSync() {
	if m == nil {
		return
	}
	m.ProfileSyncs.Inc()
}
