package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "officebook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "officebook",
			Name:      "bookings_created_total",
			Help:      "Bookings placed on hold, by creation strategy.",
		},
		[]string{"strategy"},
	)

	bookingsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "officebook",
			Name:      "bookings_confirmed_total",
			Help:      "Bookings confirmed by an approved payment.",
		},
	)

	bookingRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "officebook",
			Name:      "booking_rejections_total",
			Help:      "Booking attempts rejected, by reason.",
		},
		[]string{"reason"},
	)

	paymentEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "officebook",
			Name:      "payment_events_total",
			Help:      "Payment webhook events processed, by status.",
		},
		[]string{"status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			bookingsCreated,
			bookingsConfirmed,
			bookingRejections,
			paymentEvents,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBookingCreated counts a successfully held booking per strategy.
func IncBookingCreated(strategy string) {
	bookingsCreated.WithLabelValues(strategy).Inc()
}

// IncBookingConfirmed counts a booking moved to scheduled.
func IncBookingConfirmed() {
	bookingsConfirmed.Inc()
}

// IncBookingRejected counts a rejected booking attempt by reason.
func IncBookingRejected(reason string) {
	bookingRejections.WithLabelValues(reason).Inc()
}

// IncPaymentEvent counts a processed payment event by status.
func IncPaymentEvent(status string) {
	paymentEvents.WithLabelValues(status).Inc()
}
