package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts cache outcomes per proxy name. A nil *Metrics is a no-op.
type Metrics struct {
	Lookups     *prometheus.CounterVec
	FetchErrors *prometheus.CounterVec
}

// NewMetrics creates and registers cache metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "travelglobe_cache_lookups_total",
			Help: "Cache lookups by cache name and result (hit or miss)",
		}, []string{"cache", "result"}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "travelglobe_cache_fetch_errors_total",
			Help: "Upstream fetches that failed and were not cached",
		}, []string{"cache"}),
	}
}

func (m *Metrics) hit(name string) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(name, "hit").Inc()
}

func (m *Metrics) miss(name string) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(name, "miss").Inc()
}

func (m *Metrics) fetchError(name string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(name).Inc()
}
