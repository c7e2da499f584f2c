package metrics

import "github.com/prometheus/client_golang/prometheus"

// AppointmentMetrics exposes counters for the appointment lifecycle.
type AppointmentMetrics struct {
	bookedTotal      *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
}

func NewAppointmentMetrics(reg prometheus.Registerer) *AppointmentMetrics {
	m := &AppointmentMetrics{
		bookedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "thrivewell",
			Subsystem: "appointments",
			Name:      "booked_total",
			Help:      "Total appointments booked",
		}, []string{"type"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "thrivewell",
			Subsystem: "appointments",
			Name:      "status_transitions_total",
			Help:      "Total appointment status transitions",
		}, []string{"to_status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookedTotal, m.transitionsTotal)
	return m
}

func (m *AppointmentMetrics) ObserveBooked(apptType string) {
	if m == nil {
		return
	}
	m.bookedTotal.WithLabelValues(apptType).Inc()
}

func (m *AppointmentMetrics) ObserveTransition(toStatus string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(toStatus).Inc()
}

// HTTPMetrics tracks request counts and latency per route.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "thrivewell",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "thrivewell",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP request handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

func (m *HTTPMetrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(seconds)
}
