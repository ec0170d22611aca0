package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClinicMetrics exposes counters/histograms for chat turns and the booking ledger.
type ClinicMetrics struct {
	turnsTotal         *prometheus.CounterVec
	intentsTotal       *prometheus.CounterVec
	llmAttemptsTotal   *prometheus.CounterVec
	turnDuration       prometheus.Histogram
	bookingsTotal      *prometheus.CounterVec
	cancellationsTotal *prometheus.CounterVec
}

func NewClinicMetrics(reg prometheus.Registerer) *ClinicMetrics {
	m := &ClinicMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Chat turns handled, by dialog state before the turn and response action",
		}, []string{"state", "action"}),
		intentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "conversation",
			Name:      "intents_total",
			Help:      "Chat turns by the intent rule that handled them",
		}, []string{"intent"}),
		llmAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "conversation",
			Name:      "llm_attempts_total",
			Help:      "Fallback language model attempts by outcome",
		}, []string{"outcome"}),
		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "conversation",
			Name:      "turn_duration_seconds",
			Help:      "Latency of a chat turn including collaborator calls",
			Buckets:   prometheus.DefBuckets,
		}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Name:      "bookings_total",
			Help:      "Booking attempts by result",
		}, []string{"result"}),
		cancellationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Name:      "booking_cancellations_total",
			Help:      "Cancellation attempts by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.intentsTotal, m.llmAttemptsTotal, m.turnDuration, m.bookingsTotal, m.cancellationsTotal)
	return m
}

func (m *ClinicMetrics) ObserveTurn(state, action string, d time.Duration) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(state, action).Inc()
	m.turnDuration.Observe(d.Seconds())
}

func (m *ClinicMetrics) ObserveIntent(intent string) {
	if m == nil {
		return
	}
	m.intentsTotal.WithLabelValues(intent).Inc()
}

func (m *ClinicMetrics) ObserveLLMAttempt(outcome string) {
	if m == nil {
		return
	}
	m.llmAttemptsTotal.WithLabelValues(outcome).Inc()
}

func (m *ClinicMetrics) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(result).Inc()
}

func (m *ClinicMetrics) ObserveCancellation(result string) {
	if m == nil {
		return
	}
	m.cancellationsTotal.WithLabelValues(result).Inc()
}
