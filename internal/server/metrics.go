package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type serverMetrics struct {
	registry    *prometheus.Registry
	submissions *prometheus.CounterVec
	deletions   *prometheus.CounterVec
	broadcasts  *prometheus.CounterVec
	sessions    prometheus.Gauge
	dropped     prometheus.Counter
}

func newServerMetrics() *serverMetrics {
	m := &serverMetrics{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scores",
			Name:      "submissions_total",
			Help:      "Score submissions by outcome.",
		}, []string{"result"}),
		deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scores",
			Name:      "deletions_total",
			Help:      "Score deletions by outcome.",
		}, []string{"result"}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scores",
			Name:      "broadcasts_total",
			Help:      "Events pushed to dashboard sessions.",
		}, []string{"event"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scores",
			Name:      "dashboard_sessions",
			Help:      "Connected dashboard sessions.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scores",
			Name:      "dashboard_sessions_dropped_total",
			Help:      "Dashboard sessions dropped because their queue was full.",
		}),
	}
	m.registry.MustRegister(m.submissions, m.deletions, m.broadcasts, m.sessions, m.dropped)
	return m
}

func (m *serverMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *serverMetrics) submission(result string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
}

func (m *serverMetrics) deletion(result string) {
	if m == nil {
		return
	}
	m.deletions.WithLabelValues(result).Inc()
}

func (m *serverMetrics) broadcast(event string) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(event).Inc()
}

func (m *serverMetrics) setSessions(count int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(count))
}

func (m *serverMetrics) dropSessions(count int) {
	if m == nil {
		return
	}
	m.dropped.Add(float64(count))
}
