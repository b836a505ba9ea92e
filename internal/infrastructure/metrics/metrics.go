package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds the service's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry           *prometheus.Registry
	transitions        *prometheus.CounterVec
	collectionSize     *prometheus.GaugeVec
	subscriptionErrors *prometheus.CounterVec
	reconciled         *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lostfound",
			Name:      "transitions_total",
			Help:      "Lifecycle operations by action and result.",
		}, []string{"action", "result"}),
		collectionSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "lostfound",
			Name:      "collection_records",
			Help:      "Records in the latest snapshot of each collection.",
		}, []string{"collection"}),
		subscriptionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lostfound",
			Name:      "subscription_errors_total",
			Help:      "Snapshot listener failures per collection.",
		}, []string{"collection"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lostfound",
			Name:      "reconciled_records_total",
			Help:      "Duplicate records removed by reconciliation.",
		}, []string{"collection"}),
	}

	reg.MustRegister(m.transitions, m.collectionSize, m.subscriptionErrors, m.reconciled)
	return m
}

func (m *Metrics) ObserveTransition(action string, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.transitions.WithLabelValues(action, result).Inc()
}

func (m *Metrics) SetCollectionSize(collection string, n int) {
	if m == nil {
		return
	}
	m.collectionSize.WithLabelValues(collection).Set(float64(n))
}

func (m *Metrics) IncSubscriptionError(collection string) {
	if m == nil {
		return
	}
	m.subscriptionErrors.WithLabelValues(collection).Inc()
}

func (m *Metrics) IncReconciled(collection string) {
	if m == nil {
		return
	}
	m.reconciled.WithLabelValues(collection).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
