package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the role table backend.
type Metrics struct {
	ProfilesProvisioned prometheus.Counter
	RoleAssignments     *prometheus.CounterVec
	RouteDecisions      *prometheus.CounterVec
	ClaimsDuration      prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProfilesProvisioned: f.NewCounter(prometheus.CounterOpts{
			Name: "coursegate_profiles_provisioned_total",
			Help: "Profiles created by profile sync",
		}),
		RoleAssignments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "coursegate_role_assignments_total",
			Help: "Admin role assignments by resulting role",
		}, []string{"role"}),
		RouteDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "coursegate_route_access_decisions_total",
			Help: "Route access checks by result",
		}, []string{"allowed"}),
		ClaimsDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "coursegate_claims_lookup_duration_seconds",
			Help:    "Duration of server-side claims lookups",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementProvisioned() {
	if m == nil {
		return
	}
	m.ProfilesProvisioned.Inc()
}

func (m *Metrics) IncrementRoleAssignment(role string) {
	if m == nil {
		return
	}
	m.RoleAssignments.WithLabelValues(role).Inc()
}

func (m *Metrics) RecordRouteDecision(allowed bool) {
	if m == nil {
		return
	}
	label := "false"
	if allowed {
		label = "true"
	}
	m.RouteDecisions.WithLabelValues(label).Inc()
}

// ObserveClaims records the duration of a claims lookup.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveClaims(start time.Time) {
	if m == nil {
		return
	}
	m.ClaimsDuration.Observe(time.Since(start).Seconds())
}
