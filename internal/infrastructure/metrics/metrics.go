package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vietqr"

type Metrics struct {
	issued   *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// New registers the issuance counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		issued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payloads_issued_total",
			Help:      "Payloads produced, by point of initiation.",
		}, []string{"mode"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issue_failures_total",
			Help:      "Issue requests that did not produce a payload, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.issued, m.failures)
	return m
}

func (m *Metrics) PayloadIssued(mode string) {
	m.issued.WithLabelValues(mode).Inc()
}

func (m *Metrics) IssueFailed(reason string) {
	m.failures.WithLabelValues(reason).Inc()
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
