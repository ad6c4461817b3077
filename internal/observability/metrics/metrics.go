package metrics

import "github.com/prometheus/client_golang/prometheus"

// ResponderMetrics exposes counters/histograms for the reply pipeline.
type ResponderMetrics struct {
	eventsTotal       *prometheus.CounterVec
	repliesTotal      *prometheus.CounterVec
	resolveLatency    *prometheus.HistogramVec
	generativeLatency *prometheus.HistogramVec
	dispatchTotal     *prometheus.CounterVec
	relayTotal        *prometheus.CounterVec
}

func NewResponderMetrics(reg prometheus.Registerer) *ResponderMetrics {
	m := &ResponderMetrics{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hijama",
			Subsystem: "responder",
			Name:      "events_total",
			Help:      "Inbound webhook events by admission outcome",
		}, []string{"outcome"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hijama",
			Subsystem: "responder",
			Name:      "replies_total",
			Help:      "Resolved replies by resolution source",
		}, []string{"source"}),
		resolveLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hijama",
			Subsystem: "responder",
			Name:      "resolve_seconds",
			Help:      "Time spent resolving a reply",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		generativeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hijama",
			Subsystem: "responder",
			Name:      "generative_seconds",
			Help:      "Latency of generative fallback calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"status"}),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hijama",
			Subsystem: "responder",
			Name:      "dispatch_total",
			Help:      "Outbound reply sends",
		}, []string{"platform", "status"}),
		relayTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hijama",
			Subsystem: "responder",
			Name:      "relay_total",
			Help:      "Contact notification deliveries per channel",
		}, []string{"channel", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.eventsTotal, m.repliesTotal, m.resolveLatency, m.generativeLatency, m.dispatchTotal, m.relayTotal)
	return m
}

func (m *ResponderMetrics) ObserveEvent(outcome string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(outcome).Inc()
}

func (m *ResponderMetrics) ObserveReply(source string, seconds float64) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(source).Inc()
	m.resolveLatency.WithLabelValues(source).Observe(seconds)
}

func (m *ResponderMetrics) ObserveGenerative(status string, seconds float64) {
	if m == nil {
		return
	}
	m.generativeLatency.WithLabelValues(status).Observe(seconds)
}

func (m *ResponderMetrics) ObserveDispatch(platform string, err error) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(platform, statusLabel(err)).Inc()
}

func (m *ResponderMetrics) ObserveRelay(channel string, err error) {
	if m == nil {
		return
	}
	m.relayTotal.WithLabelValues(channel, statusLabel(err)).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
