package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AuthOps counts auth operations by outcome; the controller increments it on
// every terminal response.
var AuthOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tokenus",
	Subsystem: "auth",
	Name:      "operations_total",
	Help:      "Auth operations by name and outcome.",
}, []string{"op", "outcome"})

// HTTPRequests tracks request durations per route and status class, observed
// by the request-logging middleware.
var HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "tokenus",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request durations.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "path", "status"})

func MetricsHandler() http.Handler { return promhttp.Handler() }
