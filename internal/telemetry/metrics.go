// Package telemetry exposes Prometheus metrics for connection resolution
// and verification.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gerritconn"

// Resolution outcomes.
const (
	ResolutionCached  = "cached"
	ResolutionCreated = "created"
	ResolutionMissing = "missing"
	ResolutionInvalid = "invalid"
)

// Verification outcomes.
const (
	VerificationOK      = "ok"
	VerificationMissing = "missing"
	VerificationFailed  = "failed"
)

// Metrics holds the connection collectors. A nil *Metrics records nothing.
type Metrics struct {
	resolutions   *prometheus.CounterVec
	verifications *prometheus.CounterVec
	connected     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Client resolutions by outcome.",
		}, []string{"outcome"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Interactive credential verifications by outcome.",
		}, []string{"outcome"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 when a Gerrit client is cached, 0 otherwise.",
		}),
	}

	for _, c := range []prometheus.Collector{m.resolutions, m.verifications, m.connected} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ObserveResolution counts one resolution.
func (m *Metrics) ObserveResolution(outcome string) {
	if m == nil {
		return
	}

	m.resolutions.WithLabelValues(outcome).Inc()
}

// ObserveVerification counts one verification.
func (m *Metrics) ObserveVerification(outcome string) {
	if m == nil {
		return
	}

	m.verifications.WithLabelValues(outcome).Inc()
}

// SetConnected mirrors the connectivity flag.
func (m *Metrics) SetConnected(connected bool) {
	if m == nil {
		return
	}

	if connected {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
