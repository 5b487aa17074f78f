// Package server wires the proxy's inbound HTTP surface: routing, the auth
// gate, request logging, and the best-sellers handler.
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/nytproxy/bestsellers-proxy/internal/auth"
)

// BestSellersPath is the inbound best-sellers endpoint path.
const BestSellersPath = "/api/v1/best-sellers"

// NewRouter builds the gin engine. The health and metrics endpoints sit
// outside the auth gate; the API group sits behind it.
func NewRouter(h *Handler, authn auth.Authenticator, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"detail": fmt.Sprintf("Method %q not allowed.", c.Request.Method),
		})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	})

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1", requireAuth(authn))
	api.GET("/best-sellers", h.getBestSellers)

	return r
}
