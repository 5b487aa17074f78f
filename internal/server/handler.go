package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nytproxy/bestsellers-proxy/pkg/booksfilter"
	"github.com/nytproxy/bestsellers-proxy/pkg/cache"
	"github.com/nytproxy/bestsellers-proxy/pkg/nytimes"
)

const jsonContentType = "application/json; charset=utf-8"

// Caller-facing failure bodies. Internal detail (upstream status codes,
// errors) is logged, never exposed.
const (
	detailInternalError  = "Failed to retrieve data from source API."
	detailBadGateway     = "Source API error."
	detailGatewayTimeout = "Request timed out while retrieving data from source API."
)

// BestSellersFetcher is the upstream gateway the handler calls on cache miss.
type BestSellersFetcher interface {
	GetBestSellers(ctx context.Context, criteria booksfilter.Criteria) (*nytimes.BestSellersPage, error)
}

// ResponseCache is the get-or-compute store for successful responses.
type ResponseCache interface {
	Get(ctx context.Context, key cache.Key) (*cache.Entry, error)
	Set(ctx context.Context, key cache.Key, entry *cache.Entry) error
}

// Handler serves the best-sellers endpoint.
type Handler struct {
	books  BestSellersFetcher
	cache  ResponseCache
	logger zerolog.Logger
}

// NewHandler creates a new handler.
func NewHandler(books BestSellersFetcher, responseCache ResponseCache, logger zerolog.Logger) *Handler {
	return &Handler{
		books:  books,
		cache:  responseCache,
		logger: logger,
	}
}

// getBestSellers is the whole request path: validate, check the cache, call
// upstream on a miss, shape the response, store it. A cache race means at
// worst a duplicate upstream call, so no locking around the check-then-store.
func (h *Handler) getBestSellers(c *gin.Context) {
	ctx := c.Request.Context()

	criteria, verrs := booksfilter.Parse(c.Request.URL.Query())
	if verrs != nil {
		c.JSON(http.StatusBadRequest, verrs)
		return
	}

	// Keyed by the normalized identity, so unrecognized inbound
	// parameters never fragment the cache.
	key := cache.Key{Path: BestSellersPath, Params: criteria.QueryValues()}

	entry, err := h.cache.Get(ctx, key)
	switch {
	case err == nil:
		h.logger.Debug().
			Str("key", key.String()).
			Bool("cache_hit", true).
			Dur("age", entry.Age()).
			Msg("Serving cached best sellers")
		c.Data(http.StatusOK, jsonContentType, entry.Payload)
		return
	case !errors.Is(err, cache.ErrCacheMiss):
		// Cache failure must not fail the request.
		h.logger.Warn().Err(err).Msg("Cache get failed, proceeding without cache")
	}

	page, err := h.books.GetBestSellers(ctx, criteria)
	if err != nil {
		h.renderUpstreamFailure(c, err)
		return
	}

	payload, err := json.Marshal(page)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode best sellers payload")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": detailInternalError})
		return
	}

	if err := h.cache.Set(ctx, key, &cache.Entry{
		Payload:    payload,
		StatusCode: http.StatusOK,
		CachedAt:   time.Now().UTC(),
	}); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to cache best sellers response")
	}

	c.Data(http.StatusOK, jsonContentType, payload)
}

// renderUpstreamFailure maps a classified upstream error to the caller-facing
// status and body.
func (h *Handler) renderUpstreamFailure(c *gin.Context, err error) {
	var ue *nytimes.UpstreamError
	if !errors.As(err, &ue) {
		h.logger.Error().Err(err).Msg("Failed to retrieve best sellers")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": detailInternalError})
		return
	}

	switch ue.Class {
	case nytimes.ErrorClassUpstream:
		h.logger.Warn().
			Int("status", ue.StatusCode).
			Msg("Encountered source API error while retrieving best sellers")
		c.JSON(http.StatusBadGateway, gin.H{"detail": detailBadGateway})

	case nytimes.ErrorClassTimeout:
		h.logger.Warn().Msg("Request timed out while retrieving best sellers")
		c.JSON(http.StatusGatewayTimeout, gin.H{"detail": detailGatewayTimeout})

	case nytimes.ErrorClassClient, nytimes.ErrorClassAmbiguous:
		// The caller cannot act on these; from their side it is our
		// failure.
		h.logger.Error().
			Int("status", ue.StatusCode).
			Str("error_class", string(ue.Class)).
			Err(ue.Err).
			Msg("Failed to retrieve best sellers")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": detailInternalError})

	default:
		h.logger.Error().Err(ue).Msg("Unhandled upstream error class")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": detailInternalError})
	}
}
