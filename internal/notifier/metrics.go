package notifier

import "github.com/prometheus/client_golang/prometheus"

// Delivery results.
const (
	ResultSent    = "sent"
	ResultDropped = "dropped"
	ResultRetried = "retried"
)

// Metrics counts processed events.
type Metrics struct {
	events *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "decentmed",
			Subsystem: "notifier",
			Name:      "events_total",
			Help:      "Processed events by routing key and result.",
		}, []string{"routing_key", "result"}),
	}
	reg.MustRegister(m.events)
	return m
}

func (m *Metrics) observe(routingKey, result string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(routingKey, result).Inc()
}
