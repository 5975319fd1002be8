package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulerMetrics exposes counters/histograms for booking flows and the
// booking store behind them.
type SchedulerMetrics struct {
	bookingTotal  *prometheus.CounterVec
	deleteTotal   *prometheus.CounterVec
	storeTotal    *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
}

func NewSchedulerMetrics(reg prometheus.Registerer) *SchedulerMetrics {
	m := &SchedulerMetrics{
		bookingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthtick",
			Subsystem: "scheduling",
			Name:      "booking_attempts_total",
			Help:      "Booking attempts by call type and outcome",
		}, []string{"call_type", "outcome"}),
		deleteTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthtick",
			Subsystem: "scheduling",
			Name:      "booking_deletes_total",
			Help:      "Booking deletions by outcome",
		}, []string{"outcome"}),
		storeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthtick",
			Subsystem: "store",
			Name:      "requests_total",
			Help:      "Booking store calls by operation and status",
		}, []string{"operation", "status"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "healthtick",
			Subsystem: "store",
			Name:      "request_duration_seconds",
			Help:      "Latency of booking store calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingTotal, m.deleteTotal, m.storeTotal, m.storeDuration)
	return m
}

func (m *SchedulerMetrics) ObserveBooking(callType, outcome string) {
	if m == nil {
		return
	}
	if callType == "" {
		callType = "unset"
	}
	m.bookingTotal.WithLabelValues(callType, outcome).Inc()
}

func (m *SchedulerMetrics) ObserveDelete(outcome string) {
	if m == nil {
		return
	}
	m.deleteTotal.WithLabelValues(outcome).Inc()
}

func (m *SchedulerMetrics) ObserveStoreCall(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.storeTotal.WithLabelValues(operation, status).Inc()
	m.storeDuration.WithLabelValues(operation).Observe(seconds)
}
