package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agenthands/clustercheck/internal/core"
)

type sessionMetrics struct {
	decisionsTotal *prometheus.CounterVec
	rejectedTotal  *prometheus.CounterVec
	proposalsTotal *prometheus.CounterVec
	splitsTotal    prometheus.Counter
	potency        prometheus.Gauge
	clusters       prometheus.Gauge
	unresolved     prometheus.Gauge
}

func newSessionMetrics(reg prometheus.Registerer) *sessionMetrics {
	m := &sessionMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clustercheck_decisions_total",
				Help: "Number of applied reviewer decisions by kind.",
			},
			[]string{"kind"},
		),
		rejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clustercheck_decisions_rejected_total",
				Help: "Number of reviewer decisions rejected, by reason.",
			},
			[]string{"reason"},
		),
		proposalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clustercheck_proposals_total",
				Help: "Number of proposals served by mode.",
			},
			[]string{"mode"},
		),
		splitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "clustercheck_splits_total",
				Help: "Number of clusters split after a failed self-check.",
			},
		),
		potency: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "clustercheck_potency",
				Help: "Open candidate relations left in the session.",
			},
		),
		clusters: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "clustercheck_clusters",
				Help: "Live cluster ids tracked by the session.",
			},
		),
		unresolved: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "clustercheck_unresolved_clusters",
				Help: "Cluster ids that still have open candidates.",
			},
		),
	}
	reg.MustRegister(
		m.decisionsTotal,
		m.rejectedTotal,
		m.proposalsTotal,
		m.splitsTotal,
		m.potency,
		m.clusters,
		m.unresolved,
	)
	return m
}

func (m *sessionMetrics) observe(st core.Status) {
	m.potency.Set(float64(st.Potency))
	m.clusters.Set(float64(st.Clusters))
	m.unresolved.Set(float64(st.Unresolved))
}
