package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of an editor host.
type Metrics struct {
	registry *prometheus.Registry

	events     *prometheus.CounterVec
	issues     *prometheus.GaugeVec
	validation *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardflow_editor_events_total",
				Help: "Total number of editor hints emitted, by type",
			},
			[]string{"flow", "type"},
		),
		issues: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cardflow_flow_issues",
				Help: "Issues reported by the last validation of a flow, by kind",
			},
			[]string{"flow", "kind"},
		),
		validation: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cardflow_validation_duration_seconds",
				Help:    "Duration of whole-flow validation runs",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"flow"},
		),
	}
	m.registry.MustRegister(m.events, m.issues, m.validation)
	return m
}

// Registry exposes the registry, e.g. for tests or extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collected metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks counts every editor hint.
func (m *Metrics) Hooks() domain.EditorHooks {
	return domain.EditorHooks{
		OnMarkChanged: func(_ context.Context, e *domain.ChangeEvent) {
			m.events.WithLabelValues(e.FlowID, string(e.Type)).Inc()
		},
		OnLoadNode: func(_ context.Context, e *domain.LoadNodeEvent) {
			m.events.WithLabelValues(e.FlowID, string(e.Type)).Inc()
		},
	}
}

var issueKinds = []domain.IssueKind{
	domain.IssueMissingReference,
	domain.IssueSelfReference,
	domain.IssueDanglingReference,
	domain.IssueEmptyField,
	domain.IssueInvalidField,
	domain.IssueUnsupportedType,
	domain.IssueMalformedDefinition,
}

// ObserveValidation runs collect, timing it and recording the issue counts.
func (m *Metrics) ObserveValidation(flowID string, collect func() []domain.Issue) []domain.Issue {
	start := time.Now()
	issues := collect()
	m.validation.WithLabelValues(flowID).Observe(time.Since(start).Seconds())

	for _, kind := range issueKinds {
		m.issues.WithLabelValues(flowID, string(kind)).Set(float64(domain.CountKind(issues, kind)))
	}
	return issues
}

// Forget drops the series of a deleted flow.
func (m *Metrics) Forget(flowID string) {
	m.issues.DeletePartialMatch(prometheus.Labels{"flow": flowID})
	m.events.DeletePartialMatch(prometheus.Labels{"flow": flowID})
	m.validation.DeletePartialMatch(prometheus.Labels{"flow": flowID})
}
