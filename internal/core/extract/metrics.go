package extract

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts extraction activity. A nil *Metrics records nothing.
type Metrics struct {
	attempts    prometheus.Counter
	retries     prometheus.Counter
	streamOpens prometheus.Counter
	bytes       prometheus.Counter
	entities    *prometheus.CounterVec
}

// NewMetrics creates the extraction metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sercha",
			Subsystem: "extract",
			Name:      "fetch_attempts_total",
			Help:      "Outbound fetch attempts, including retries.",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sercha",
			Subsystem: "extract",
			Name:      "fetch_retries_total",
			Help:      "Fetch attempts scheduled after a transient failure.",
		}),
		streamOpens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sercha",
			Subsystem: "extract",
			Name:      "stream_opens_total",
			Help:      "Binary stream open attempts.",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sercha",
			Subsystem: "extract",
			Name:      "relayed_bytes_total",
			Help:      "Bytes relayed from file streams.",
		}),
		entities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sercha",
			Subsystem: "extract",
			Name:      "entities_total",
			Help:      "Entities emitted, by source and kind.",
		}, []string{"source", "kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.attempts, m.retries, m.streamOpens, m.bytes, m.entities)
	}
	return m
}

func (m *Metrics) attempt() {
	if m != nil {
		m.attempts.Inc()
	}
}

func (m *Metrics) retry() {
	if m != nil {
		m.retries.Inc()
	}
}

func (m *Metrics) streamOpen() {
	if m != nil {
		m.streamOpens.Inc()
	}
}

func (m *Metrics) relayed(n int) {
	if m != nil {
		m.bytes.Add(float64(n))
	}
}

func (m *Metrics) entity(source, kind string) {
	if m != nil {
		m.entities.WithLabelValues(source, kind).Inc()
	}
}
