package docplan

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomePlanned       = "planned"
	outcomeUnsatisfiable = "unsatisfiable"
	outcomeError         = "error"
)

type plannerMetrics struct {
	requests       *prometheus.CounterVec
	evaluated      prometheus.Counter
	shortCircuits  prometheus.Counter
	duration       prometheus.Histogram
	catalogChanges *prometheus.CounterVec
}

// newPlannerMetrics registers on reg; a nil reg leaves the collectors
// unregistered. Catalogs sharing a Registerer share the collectors.
func newPlannerMetrics(reg prometheus.Registerer) *plannerMetrics {
	m := &plannerMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: DefaultMetricsName,
			Name:      "plan_requests_total",
			Help:      "Planning requests by outcome.",
		}, []string{"outcome"}),
		evaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: DefaultMetricsName,
			Name:      "plans_evaluated_total",
			Help:      "Index plans evaluated across all requests.",
		}),
		shortCircuits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: DefaultMetricsName,
			Name:      "plan_short_circuits_total",
			Help:      "Requests that stopped at the first optimal plan.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: DefaultMetricsName,
			Name:      "plan_duration_seconds",
			Help:      "Time spent planning, including the catalog snapshot.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		catalogChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: DefaultMetricsName,
			Name:      "catalog_changes_total",
			Help:      "Index definitions created or dropped.",
		}, []string{"op"}),
	}
	m.requests = register(reg, m.requests)
	m.evaluated = register(reg, m.evaluated)
	m.shortCircuits = register(reg, m.shortCircuits)
	m.duration = register(reg, m.duration)
	m.catalogChanges = register(reg, m.catalogChanges)
	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		if existing, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if prev, ok := existing.ExistingCollector.(T); ok {
				return prev
			}
		}
		// Same behavior as MustRegister for anything else.
		panic(err)
	}
	return c
}
