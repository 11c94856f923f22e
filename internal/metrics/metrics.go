package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/serroba/shortlinks/internal/shortener"
)

// ResultLabel is the label carrying the outcome of an operation.
const ResultLabel = "result"

const (
	resultCreated = "created"
	resultReused  = "reused"
)

// Metrics contains the Prometheus collectors for link operations.
// It implements shortener.Recorder.
type Metrics struct {
	Links      *prometheus.CounterVec
	Redirects  *prometheus.CounterVec
	Collisions prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Links: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shortlinks_links_total",
			Help: "Shorten requests by result (created or reused)",
		}, []string{ResultLabel}),
		Redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shortlinks_redirects_total",
			Help: "Redirect lookups by result",
		}, []string{ResultLabel}),
		Collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shortlinks_code_collisions_total",
			Help: "Generated codes rejected because they were already taken",
		}),
	}

	for _, c := range []prometheus.Collector{m.Links, m.Redirects, m.Collisions} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) ObserveShorten(created bool) {
	result := resultReused
	if created {
		result = resultCreated
	}

	m.Links.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveCollision() {
	m.Collisions.Inc()
}

func (m *Metrics) ObserveResolve(outcome string) {
	m.Redirects.WithLabelValues(outcome).Inc()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var _ shortener.Recorder = (*Metrics)(nil)
