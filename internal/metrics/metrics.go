package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the service's collectors; /metrics serves only these.
	Registry = prometheus.NewRegistry()

	applications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "club",
			Name:      "applications_total",
			Help:      "Application attempts by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	cancellations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "club",
			Name:      "cancellations_total",
			Help:      "Successful cancellations by kind and acting role.",
		},
		[]string{"kind", "actor"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "club",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	Registry.MustRegister(applications, cancellations, httpRequests)
}

func RecordApplication(kind, outcome string) {
	applications.WithLabelValues(kind, outcome).Inc()
}

func RecordCancellation(kind, actor string) {
	cancellations.WithLabelValues(kind, actor).Inc()
}

// RecordHTTPRequest uses the route template, not the raw path, to keep
// label cardinality bounded.
func RecordHTTPRequest(method, route string, status int) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
