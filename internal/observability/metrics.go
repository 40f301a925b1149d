package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queueflow_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queueflow_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	HTTPInflight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "queueflow_http_inflight_requests",
			Help: "HTTP requests currently being served",
		},
	)

	TicketsIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queueflow_tickets_issued_total",
			Help: "Tickets issued by branch kind",
		},
		[]string{"kind"},
	)

	TicketTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queueflow_ticket_transitions_total",
			Help: "Ticket status transitions",
		},
		[]string{"kind", "from", "to"},
	)

	TicketWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queueflow_ticket_wait_seconds",
			Help:    "Time a ticket waited before being called",
			Buckets: []float64{30, 60, 120, 300, 600, 900, 1800, 3600, 7200},
		},
		[]string{"kind"},
	)

	TicketConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queueflow_ticket_conflicts_total",
			Help: "Optimistic concurrency conflicts on ticket writes, by outcome",
		},
		[]string{"outcome"},
	)

	SSEClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "queueflow_sse_clients",
			Help: "Open display-board event streams",
		},
	)
)

func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func RecordTicketIssued(kind string) {
	TicketsIssuedTotal.WithLabelValues(kind).Inc()
}

func RecordTicketTransition(kind, from, to string) {
	TicketTransitionsTotal.WithLabelValues(kind, from, to).Inc()
}

func RecordTicketWait(kind string, waitMs int64) {
	TicketWaitSeconds.WithLabelValues(kind).Observe(float64(waitMs) / 1000)
}

// RecordTicketConflict notes a lost optimistic race; outcome is "retried" or "exhausted".
func RecordTicketConflict(outcome string) {
	TicketConflictsTotal.WithLabelValues(outcome).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
