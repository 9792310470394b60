package ncs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects statistics about NCS searches.
type Metrics struct {
	Comparisons prometheus.Counter
	Accepted    prometheus.Counter
	RMSD        prometheus.Histogram
	Groups      prometheus.Gauge
}

// NewMetrics creates the search metrics and registers them with reg. If reg
// is nil, the metrics are not registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Comparisons: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ncs",
			Name:      "chain_comparisons_total",
			Help:      "Number of chain pairs compared.",
		}),
		Accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ncs",
			Name:      "chain_matches_total",
			Help:      "Number of chain pairs related by a rigid motion.",
		}),
		RMSD: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ncs",
			Name:      "match_rmsd_angstroms",
			Help:      "RMSD of accepted chain pairs.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 1.5, 2, 3, 5},
		}),
		Groups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ncs",
			Name:      "groups",
			Help:      "Number of NCS groups in the last result.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Comparisons, m.Accepted, m.RMSD, m.Groups)
	}
	return m
}

func (m *Metrics) compared(accepted bool, rmsd float64) {
	if m == nil {
		return
	}
	m.Comparisons.Inc()
	if accepted {
		m.Accepted.Inc()
		m.RMSD.Observe(rmsd)
	}
}

func (m *Metrics) groups(n int) {
	if m == nil {
		return
	}
	m.Groups.Set(float64(n))
}
