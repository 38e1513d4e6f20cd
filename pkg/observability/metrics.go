package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/trialset/pkg/domain"
)

// Metrics holds the Prometheus collectors fed by planner hooks.
type Metrics struct {
	PlansGenerated  *prometheus.CounterVec
	PlanItems       *prometheus.HistogramVec
	PlanDuration    *prometheus.HistogramVec
	FieldRejections *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them with reg.
// Passing a *prometheus.Registry also makes Handler serve exactly that registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PlansGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trialset_plans_generated_total",
				Help: "Total number of plans generated, by experiment and outcome",
			},
			[]string{"experiment", "status"},
		),
		PlanItems: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trialset_plan_items",
				Help:    "Number of items in generated plans",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"experiment"},
		),
		PlanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trialset_plan_duration_seconds",
				Help:    "Time spent evaluating sequence expressions",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"experiment"},
		),
		FieldRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trialset_field_rejections_total",
				Help: "Total number of form inputs rejected by validators",
			},
			[]string{"group", "field"},
		),
		gatherer: prometheus.DefaultGatherer,
	}
	reg.MustRegister(m.PlansGenerated, m.PlanItems, m.PlanDuration, m.FieldRejections)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Hooks returns planner hooks that record into m.
func (m *Metrics) Hooks() domain.PlanHooks {
	return domain.PlanHooks{
		OnPlanDone: func(_ context.Context, e *domain.PlanEvent) {
			if e.Err != nil {
				m.PlansGenerated.WithLabelValues(e.Experiment, "error").Inc()
				return
			}
			m.PlansGenerated.WithLabelValues(e.Experiment, "ok").Inc()
			m.PlanItems.WithLabelValues(e.Experiment).Observe(float64(e.Items))
			m.PlanDuration.WithLabelValues(e.Experiment).Observe(e.Duration.Seconds())
		},
		OnFieldRejected: func(_ context.Context, e *domain.FieldEvent) {
			m.FieldRejections.WithLabelValues(e.Group, e.Field).Inc()
		},
	}
}

// Handler serves the registry the metrics were registered with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
