package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the account counters. A nil *Metrics is a no-op.
type Metrics struct {
	UsersRegistered prometheus.Counter
	LoginFailures   prometheus.Counter
	TravelUpdates   *prometheus.CounterVec
}

// NewMetrics creates and registers account metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "travelglobe_users_registered_total",
			Help: "Total number of accounts created",
		}),
		LoginFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "travelglobe_login_failures_total",
			Help: "Total number of rejected login attempts",
		}),
		TravelUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "travelglobe_travel_updates_total",
			Help: "Travel-state mutations by operation",
		}, []string{"op"}),
	}
}

func (m *Metrics) userRegistered() {
	if m == nil {
		return
	}
	m.UsersRegistered.Inc()
}

func (m *Metrics) loginFailed() {
	if m == nil {
		return
	}
	m.LoginFailures.Inc()
}

func (m *Metrics) travelUpdated(op string) {
	if m == nil {
		return
	}
	m.TravelUpdates.WithLabelValues(op).Inc()
}
