// Package metrics provides the centralized Prometheus registry reference for
// the best-sellers proxy. Metrics are defined in the package that owns them
// (server, nytimes, cache) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the proxy.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Inbound Request Metrics (internal/server):
//   - nyt_http_requests_total{method, route, status} (Counter): Inbound requests by route and status
//
// Upstream Metrics (pkg/nytimes):
//   - nyt_upstream_requests_total{status} (Counter): Upstream requests by HTTP status
//     ("transport_error" when no response was received)
//   - nyt_upstream_request_duration_seconds (Histogram): Upstream request duration
//   - nyt_upstream_errors_total{class} (Counter): Upstream errors by class
//     (client, upstream, timeout, ambiguous)
//
// Cache Metrics (pkg/cache):
//   - nyt_cache_hits_total (Counter): Response cache hits
//   - nyt_cache_misses_total (Counter): Response cache misses
//   - nyt_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   rate(nyt_cache_hits_total[5m]) /
//   (rate(nyt_cache_hits_total[5m]) + rate(nyt_cache_misses_total[5m]))
//
//   # Upstream Error Rate by Class
//   rate(nyt_upstream_errors_total[5m])
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(nyt_upstream_request_duration_seconds_bucket[5m]))
