package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketbooking_bookings_confirmed_total",
		Help: "Total number of successfully confirmed bookings",
	})

	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketbooking_bookings_cancelled_total",
		Help: "Total number of cancelled bookings",
	})

	// Rejections split by cause so exhaustion is distinguishable from
	// duplicate attempts on dashboards.
	BookingConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketbooking_booking_conflicts_total",
		Help: "Total number of booking attempts rejected with a conflict",
	}, []string{"reason"})
)
