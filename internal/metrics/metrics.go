package metrics

import "github.com/prometheus/client_golang/prometheus"

// CalendarMetrics — счётчики и гистограммы движков доступности и записи.
type CalendarMetrics struct {
	reservationsTotal    *prometheus.CounterVec
	claimConflictsTotal  prometheus.Counter
	availabilityDates    *prometheus.CounterVec
	availabilityDuration prometheus.Histogram
}

func NewCalendarMetrics(reg prometheus.Registerer) *CalendarMetrics {
	m := &CalendarMetrics{
		reservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "calendar",
			Name:      "reservations_total",
			Help:      "Reservation operations by kind and outcome",
		}, []string{"op", "outcome"}),
		claimConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "calendar",
			Name:      "claim_conflicts_total",
			Help:      "Slot claims lost to a concurrent request",
		}),
		availabilityDates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "calendar",
			Name:      "availability_dates_total",
			Help:      "Dates evaluated by the availability engine by reason",
		}, []string{"reason"}),
		availabilityDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "calendar",
			Name:      "availability_duration_seconds",
			Help:      "Latency of availability computation",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reservationsTotal, m.claimConflictsTotal, m.availabilityDates, m.availabilityDuration)
	return m
}

// ObserveReservation: op из create/update/cancel, outcome равен ok или коду ошибки.
func (m *CalendarMetrics) ObserveReservation(op, outcome string) {
	if m == nil {
		return
	}
	m.reservationsTotal.WithLabelValues(op, outcome).Inc()
}

func (m *CalendarMetrics) ObserveClaimConflict() {
	if m == nil {
		return
	}
	m.claimConflictsTotal.Inc()
}

// ObserveAvailabilityDate: reason пустой для рассчитанных дат.
func (m *CalendarMetrics) ObserveAvailabilityDate(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "computed"
	}
	m.availabilityDates.WithLabelValues(reason).Inc()
}

func (m *CalendarMetrics) ObserveAvailabilityLatency(seconds float64) {
	if m == nil {
		return
	}
	m.availabilityDuration.Observe(seconds)
}
