package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "transparent", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "transparent", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "transparent", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "transparent", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	QueryOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "transparent", Name: "query_outcomes_total", Help: "Pricing query outcomes."},
		[]string{"kind", "outcome"}, // outcome: fulfilled|unfulfilled|error
	)
	ListingsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "transparent", Name: "listings_dropped_total", Help: "Listings skipped during projection."},
		[]string{"reason"},
	)
	SnapshotWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "transparent", Name: "snapshot_writes_total", Help: "Snapshot/miss persistence attempts."},
		[]string{"table", "result"}, // result: ok|error
	)
)

// Serve starts a standalone metrics listener on addr; an empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency,
		QueryOutcomes, ListingsDropped, SnapshotWrites)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveOutcome(kind, outcome string) { // outcome: fulfilled|unfulfilled|error
	QueryOutcomes.WithLabelValues(kind, outcome).Inc()
}

func ObserveListingDropped(reason string) {
	ListingsDropped.WithLabelValues(reason).Inc()
}

func ObserveWrite(table string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	SnapshotWrites.WithLabelValues(table, result).Inc()
}

func LabelErr(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}
