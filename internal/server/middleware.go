package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/nytproxy/bestsellers-proxy/internal/auth"
)

var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nyt_http_requests_total",
	Help: "Total inbound requests by method, route and status",
}, []string{"method", "route", "status"})

// requestLogger logs one line per request and feeds the inbound request
// counter.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// requireAuth aborts with 403 when the authenticator denies the request.
// 403 rather than 401: the response carries no WWW-Authenticate challenge.
func requireAuth(authn auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authn.Authenticate(c.Request) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"detail": "Authentication credentials were not provided.",
			})
			return
		}
		c.Next()
	}
}
