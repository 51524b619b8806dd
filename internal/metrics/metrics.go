// Package metrics holds the Prometheus instruments for reply handling.
// A nil *Metrics is valid and records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the engine's counters.
type Metrics struct {
	Replies           *prometheus.CounterVec
	MemoriesAppended  *prometheus.CounterVec
	RetrievalFailures prometheus.Counter
	AppendFailures    prometheus.Counter
	Retrieved         prometheus.Histogram
}

// New creates the instruments and registers them with reg when non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agent_chat",
			Name:      "replies_total",
			Help:      "Replies composed, by intent.",
		}, []string{"intent"}),
		MemoriesAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agent_chat",
			Name:      "memories_appended_total",
			Help:      "Memory entries appended, by role.",
		}, []string{"role"}),
		RetrievalFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agent_chat",
			Name:      "retrieval_failures_total",
			Help:      "Store reads that failed during retrieval.",
		}),
		AppendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agent_chat",
			Name:      "append_failures_total",
			Help:      "Store appends that failed.",
		}),
		Retrieved: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agent_chat",
			Name:      "retrieved_memories",
			Help:      "Memories above the relevance floor per reply.",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Replies, m.MemoriesAppended, m.RetrievalFailures, m.AppendFailures, m.Retrieved)
	}
	return m
}

func (m *Metrics) Reply(intent string, trusted int) {
	if m == nil {
		return
	}
	m.Replies.WithLabelValues(intent).Inc()
	m.Retrieved.Observe(float64(trusted))
}

func (m *Metrics) Appended(role string) {
	if m == nil {
		return
	}
	m.MemoriesAppended.WithLabelValues(role).Inc()
}

func (m *Metrics) RetrievalFailed() {
	if m == nil {
		return
	}
	m.RetrievalFailures.Inc()
}

func (m *Metrics) AppendFailed() {
	if m == nil {
		return
	}
	m.AppendFailures.Inc()
}
