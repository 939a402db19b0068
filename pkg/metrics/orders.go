package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records counters for order mutations and cache upkeep.
type OrderMetrics struct {
	transitions       *prometheus.CounterVec
	rejections        *prometheus.CounterVec
	invalidationFails prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_unit_transitions_total",
		Help: "Applied unit status transitions by target status.",
	}, []string{"to_status"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_mutation_rejections_total",
		Help: "Rejected order mutations by error code.",
	}, []string{"code"})
	invalidationFails := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_cache_invalidation_failures_total",
		Help: "Cache invalidation attempts that failed after a committed mutation.",
	})
	reg.MustRegister(transitions, rejections, invalidationFails)
	return &OrderMetrics{
		transitions:       transitions,
		rejections:        rejections,
		invalidationFails: invalidationFails,
	}
}

// IncTransition counts an applied transition into the given status.
func (m *OrderMetrics) IncTransition(toStatus string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(toStatus)).Inc()
}

// IncRejection counts a rejected mutation by error code.
func (m *OrderMetrics) IncRejection(code string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncInvalidationFailure counts a swallowed cache invalidation error.
func (m *OrderMetrics) IncInvalidationFailure() {
	if m == nil || m.invalidationFails == nil {
		return
	}
	m.invalidationFails.Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
