package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for the request counters.
const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeError    = "error"
	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
)

// Metrics holds the server's Prometheus collectors. Each server owns its
// registry so tests get isolated metrics instead of process-global state.
type Metrics struct {
	registry *prometheus.Registry
	pushes   *prometheus.CounterVec
	fetches  *prometheus.CounterVec
	logins   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		pushes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "budgetbox_pushes_total",
			Help: "Budget push attempts by outcome.",
		}, []string{"outcome"}),
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "budgetbox_fetches_total",
			Help: "Budget fetch requests by outcome.",
		}, []string{"outcome"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "budgetbox_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
