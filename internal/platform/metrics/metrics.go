package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-level metrics shared by the binaries.
type Metrics struct {
	BuildInfo *prometheus.GaugeVec
	Startups  prometheus.Counter
}

// NewRegistry returns a registry carrying the Go runtime and process
// collectors. Module metrics register on it instead of the global default.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New creates and registers the process metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BuildInfo: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "coursegate_build_info",
			Help: "Constant 1, labelled with the component and version of the running binary",
		}, []string{"component", "version"}),
		Startups: factory.NewCounter(prometheus.CounterOpts{
			Name: "coursegate_startups_total",
			Help: "Total number of component startups in this process",
		}),
	}
}

// RecordStartup marks component as running at version.
func (m *Metrics) RecordStartup(component, version string) {
	if m == nil {
		return
	}
	m.BuildInfo.WithLabelValues(component, version).Set(1)
	m.Startups.Inc()
}
