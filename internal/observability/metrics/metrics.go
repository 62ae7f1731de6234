package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking funnel.
type BookingMetrics struct {
	stepTransitions   *prometheus.CounterVec
	bookingsConfirmed *prometheus.CounterVec
	webhookTotal      *prometheus.CounterVec
	webhookLatency    prometheus.Histogram
	geoLookups        *prometheus.CounterVec
	chatSessions      *prometheus.GaugeVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		stepTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kims",
			Subsystem: "booking",
			Name:      "step_transitions_total",
			Help:      "Wizard stage transitions by outcome",
		}, []string{"stage", "result"}),
		bookingsConfirmed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kims",
			Subsystem: "booking",
			Name:      "bookings_confirmed_total",
			Help:      "Confirmed bookings by channel",
		}, []string{"channel"}),
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kims",
			Subsystem: "notify",
			Name:      "webhook_deliveries_total",
			Help:      "Booking webhook deliveries by status",
		}, []string{"status"}),
		webhookLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kims",
			Subsystem: "notify",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of booking webhook POSTs",
			Buckets:   prometheus.DefBuckets,
		}),
		geoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kims",
			Subsystem: "geo",
			Name:      "lookups_total",
			Help:      "Geolocation and distance lookups by source and result",
		}, []string{"source", "result"}),
		chatSessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "kims",
			Subsystem: "chat",
			Name:      "active_sessions",
			Help:      "Open chat sessions by transport",
		}, []string{"transport"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.stepTransitions, m.bookingsConfirmed, m.webhookTotal, m.webhookLatency, m.geoLookups, m.chatSessions)
	return m
}

func (m *BookingMetrics) ObserveTransition(stage, result string) {
	if m == nil {
		return
	}
	m.stepTransitions.WithLabelValues(stage, result).Inc()
}

func (m *BookingMetrics) ObserveConfirmed(channel string) {
	if m == nil {
		return
	}
	m.bookingsConfirmed.WithLabelValues(channel).Inc()
}

func (m *BookingMetrics) ObserveWebhook(status string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookTotal.WithLabelValues(status).Inc()
	if seconds >= 0 {
		m.webhookLatency.Observe(seconds)
	}
}

func (m *BookingMetrics) ObserveGeoLookup(source string, ok bool) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "ok"
	}
	m.geoLookups.WithLabelValues(source, result).Inc()
}

// ChatSessionOpened and ChatSessionClosed track live chat connections.
func (m *BookingMetrics) ChatSessionOpened(transport string) {
	if m == nil {
		return
	}
	m.chatSessions.WithLabelValues(transport).Inc()
}

func (m *BookingMetrics) ChatSessionClosed(transport string) {
	if m == nil {
		return
	}
	m.chatSessions.WithLabelValues(transport).Dec()
}
