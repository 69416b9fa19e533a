package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCalendarMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCalendarMetrics(reg)

	m.ObserveReservation("create", "ok")
	m.ObserveReservation("create", "ok")
	m.ObserveReservation("create", "SLOT_UNAVAILABLE")
	m.ObserveClaimConflict()
	m.ObserveAvailabilityDate("")
	m.ObserveAvailabilityDate("weekend")
	m.ObserveAvailabilityLatency(0.01)

	if got := testutil.ToFloat64(m.reservationsTotal.WithLabelValues("create", "ok")); got != 2 {
		t.Fatalf("expected 2 successful creates, got %v", got)
	}
	if got := testutil.ToFloat64(m.claimConflictsTotal); got != 1 {
		t.Fatalf("expected 1 conflict, got %v", got)
	}
	if got := testutil.ToFloat64(m.availabilityDates.WithLabelValues("computed")); got != 1 {
		t.Fatalf("expected computed reason label, got %v", got)
	}
	if n := testutil.CollectAndCount(m.availabilityDuration); n != 1 {
		t.Fatalf("expected histogram to be collected, got %d", n)
	}
}

func TestCalendarMetricsNilSafe(t *testing.T) {
	var m *CalendarMetrics
	m.ObserveReservation("create", "ok")
	m.ObserveClaimConflict()
	m.ObserveAvailabilityDate("holiday")
	m.ObserveAvailabilityLatency(0.1)
}
