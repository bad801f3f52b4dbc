// Package metrics holds the Prometheus registry for the service: HTTP request
// metrics recorded by Middleware plus counters for the marketplace flows.
package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ticketbari"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	CheckoutSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "sessions_total",
			Help:      "Checkout sessions requested from the payment provider.",
		},
		[]string{"result"}, // "created" | "failed"
	)

	Reconciliations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "reconciliations_total",
			Help:      "Payment reconciliations by outcome.",
		},
		[]string{"outcome"}, // recorded, existing, unpaid, error, booking_mismatch
	)

	AdvertiseRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tickets",
		Name:      "advertise_rejections_total",
		Help:      "Advertise requests refused because the cap was reached.",
	})

	FraudCascades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "users",
			Name:      "fraud_cascades_total",
			Help:      "Vendors marked as fraud, by cascade result.",
		},
		[]string{"result"}, // "complete" | "incomplete" | "rolled_back"
	)
)

var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	Registry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		CheckoutSessions,
		Reconciliations,
		AdvertiseRejections,
		FraudCascades,
	)
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records duration, count and in-flight requests.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		RequestInFlight.Inc()
		defer RequestInFlight.Dec()

		rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rr, r)

		path := RoutePath(r.URL.Path)
		status := strconv.Itoa(rr.status)
		RequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		RequestTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

var (
	objectIDSegment = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	sessionSegment  = regexp.MustCompile(`^cs_[A-Za-z0-9_]+$`)
)

// RoutePath replaces document and session ids in a path with placeholders to
// keep label cardinality bounded.
func RoutePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		switch {
		case objectIDSegment.MatchString(s):
			segments[i] = ":id"
		case sessionSegment.MatchString(s):
			segments[i] = ":sessionId"
		}
	}
	return strings.Join(segments, "/")
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
