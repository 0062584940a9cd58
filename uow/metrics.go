package uow

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts unit of work activity. Register the collectors with
// prometheus.MustRegister(m.Collectors()...).
type Metrics struct {
	Commits  *prometheus.CounterVec
	Commands *prometheus.CounterVec
	Ops      *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docdelta",
			Subsystem: "uow",
			Name:      "commits",
		}, []string{"result"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docdelta",
			Subsystem: "uow",
			Name:      "commands",
		}, []string{"collection", "kind"}),
		Ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docdelta",
			Subsystem: "uow",
			Name:      "patch_ops",
		}, []string{"collection"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docdelta",
			Subsystem: "uow",
			Name:      "commit_seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
	}
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Commits, m.Commands, m.Ops, m.Duration}
}
