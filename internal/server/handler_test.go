package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nytproxy/bestsellers-proxy/internal/auth"
	"github.com/nytproxy/bestsellers-proxy/internal/server"
	"github.com/nytproxy/bestsellers-proxy/internal/testutil"
	"github.com/nytproxy/bestsellers-proxy/pkg/cache"
	"github.com/nytproxy/bestsellers-proxy/pkg/nytimes"
)

const testToken = "test-token"

// fakeCache is an in-memory ResponseCache.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*cache.Entry
	getErr  error
	setErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*cache.Entry)}
}

func (f *fakeCache) Get(_ context.Context, key cache.Key) (*cache.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	entry, ok := f.entries[key.String()]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return entry, nil
}

func (f *fakeCache) Set(_ context.Context, key cache.Key, entry *cache.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key.String()] = entry
	return nil
}

func (f *fakeCache) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type proxyFixture struct {
	router *gin.Engine
	mock   *testutil.MockNYT
	cache  *fakeCache
}

func newFixture(t *testing.T, opts ...func(*nytimes.Config)) *proxyFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mock := testutil.NewMockNYT()
	t.Cleanup(mock.Close)

	cfg := nytimes.Config{
		EndpointURL: mock.URL(),
		APIKey:      "test-api-key",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := nytimes.New(cfg)
	require.NoError(t, err)

	fc := newFakeCache()
	h := server.NewHandler(client, fc, zerolog.Nop())
	router := server.NewRouter(h, auth.NewTokenAuthenticator([]string{testToken}), zerolog.Nop())

	return &proxyFixture{router: router, mock: mock, cache: fc}
}

func (f *proxyFixture) do(method, target string, authenticated bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestBestSellers_Unauthenticated(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, server.BestSellersPath, false)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"detail": "Authentication credentials were not provided."}`, w.Body.String())
	assert.Zero(t, f.mock.RequestCount(), "unauthenticated requests must not reach upstream")
}

func TestBestSellers_DisallowedVerbs(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		method string
		detail string
	}{
		{http.MethodPost, `Method "POST" not allowed.`},
		{http.MethodPatch, `Method "PATCH" not allowed.`},
		{http.MethodPut, `Method "PUT" not allowed.`},
		{http.MethodDelete, `Method "DELETE" not allowed.`},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := f.do(tt.method, server.BestSellersPath, true)

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			expected, err := json.Marshal(gin.H{"detail": tt.detail})
			require.NoError(t, err)
			assert.JSONEq(t, string(expected), w.Body.String())
		})
	}
}

func TestBestSellers_ValidationFailures(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantBody string
	}{
		{
			name:     "author too long",
			query:    "?author=THIS_STRING_IS_33_CHARACTERS_BBBB",
			wantBody: `{"author": ["Ensure this field has no more than 32 characters."]}`,
		},
		{
			name:     "too many isbns",
			query:    "?isbn[]=1328791823&isbn[]=9781328791825&isbn[]=1328613046",
			wantBody: `{"isbn": ["Ensure up to 2 ISBNs are provided."]}`,
		},
		{
			name:     "isbn wrong length",
			query:    "?isbn[]=123",
			wantBody: `{"isbn": ["Ensure each ISBN is either 10 or 13 characters long."]}`,
		},
		{
			name:     "isbn with letters",
			query:    "?isbn[]=132879182X",
			wantBody: `{"isbn": ["Ensure each ISBN only contains digits."]}`,
		},
		{
			name:  "negative offset reports both messages in order",
			query: "?offset=-1",
			wantBody: `{"offset": [
				"Ensure this value is a multiple of 20.",
				"Ensure this value is greater than or equal to 0."
			]}`,
		},
		{
			name:     "offset not a multiple of 20",
			query:    "?offset=25",
			wantBody: `{"offset": ["Ensure this value is a multiple of 20."]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			w := f.do(http.MethodGet, server.BestSellersPath+tt.query, true)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			assert.Zero(t, f.mock.RequestCount(), "invalid requests must not reach upstream")
		})
	}
}

func TestBestSellers_Success(t *testing.T) {
	f := newFixture(t)
	f.mock.SetResponse(testutil.NewBestSellersResponse(testutil.BerenAndLuthienBody))

	w := f.do(http.MethodGet, server.BestSellersPath+"?author=JRR+Tolkien", true)

	assert.Equal(t, http.StatusOK, w.Code)
	// Key selection only: upstream extras like "publisher" are dropped.
	assert.JSONEq(t, `{
		"num_results": 1,
		"results": [
			{
				"author": "JRR Tolkien",
				"title": "BEREN AND LÚTHIEN",
				"isbns": [{"isbn10": "1328791823", "isbn13": "9781328791825"}]
			}
		]
	}`, w.Body.String())

	query := f.mock.LastQuery()
	assert.Equal(t, "JRR Tolkien", query.Get("author"))
	assert.Equal(t, "test-api-key", query.Get("api-key"))
}

func TestBestSellers_EmptyUpstreamBody(t *testing.T) {
	f := newFixture(t)
	f.mock.SetResponse(testutil.NewBestSellersResponse(`{"status": "OK"}`))

	w := f.do(http.MethodGet, server.BestSellersPath, true)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"num_results": 0, "results": []}`, w.Body.String())
}

func TestBestSellers_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name       string
		upstream   testutil.MockResponse
		wantStatus int
		wantBody   string
	}{
		{
			name:       "upstream 500 becomes 502",
			upstream:   testutil.NewServerErrorResponse(),
			wantStatus: http.StatusBadGateway,
			wantBody:   `{"detail": "Source API error."}`,
		},
		{
			name:       "upstream 204 becomes 500",
			upstream:   testutil.MockResponse{StatusCode: http.StatusNoContent},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"detail": "Failed to retrieve data from source API."}`,
		},
		{
			name:       "upstream 301 becomes 500",
			upstream:   testutil.MockResponse{StatusCode: http.StatusMovedPermanently},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"detail": "Failed to retrieve data from source API."}`,
		},
		{
			name:       "upstream 400 becomes 500",
			upstream:   testutil.MockResponse{StatusCode: http.StatusBadRequest},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"detail": "Failed to retrieve data from source API."}`,
		},
		{
			name:       "malformed upstream body becomes 500",
			upstream:   testutil.NewBestSellersResponse(`{"num_results":`),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"detail": "Failed to retrieve data from source API."}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.mock.SetResponse(tt.upstream)

			w := f.do(http.MethodGet, server.BestSellersPath, true)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			assert.Zero(t, f.cache.len(), "failures must not be cached")
		})
	}
}

func TestBestSellers_UpstreamTimeout(t *testing.T) {
	f := newFixture(t, func(cfg *nytimes.Config) {
		cfg.Timeout = 20 * time.Millisecond
	})
	f.mock.SetResponse(testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"num_results": 0, "results": []}`,
		Delay:      200 * time.Millisecond,
	})

	w := f.do(http.MethodGet, server.BestSellersPath, true)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.JSONEq(t, `{"detail": "Request timed out while retrieving data from source API."}`, w.Body.String())
}

func TestBestSellers_CacheIdempotence(t *testing.T) {
	f := newFixture(t)
	f.mock.SetResponse(testutil.NewBestSellersResponse(testutil.BerenAndLuthienBody))

	first := f.do(http.MethodGet, server.BestSellersPath+"?author=JRR+Tolkien", true)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, 1, f.mock.RequestCount())

	second := f.do(http.MethodGet, server.BestSellersPath+"?author=JRR+Tolkien", true)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, f.mock.RequestCount(), "identical request within TTL must be served from cache")
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestBestSellers_UnrecognizedParamSharesCacheKey(t *testing.T) {
	f := newFixture(t)
	f.mock.SetResponse(testutil.NewBestSellersResponse(testutil.BerenAndLuthienBody))

	first := f.do(http.MethodGet, server.BestSellersPath+"?author=JRR+Tolkien", true)
	require.Equal(t, http.StatusOK, first.Code)

	second := f.do(http.MethodGet, server.BestSellersPath+"?author=JRR+Tolkien&utm_source=newsletter", true)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, f.mock.RequestCount(), "unrecognized parameters must not change the cache key")
}

func TestBestSellers_ErrorsNotCached(t *testing.T) {
	f := newFixture(t)
	f.mock.QueueResponses(
		testutil.MockResponse{StatusCode: http.StatusNoContent},
		testutil.NewBestSellersResponse(testutil.BerenAndLuthienBody),
	)

	first := f.do(http.MethodGet, server.BestSellersPath, true)
	require.Equal(t, http.StatusInternalServerError, first.Code)

	second := f.do(http.MethodGet, server.BestSellersPath, true)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 2, f.mock.RequestCount(), "a failure must not shadow later attempts")
}

func TestBestSellers_CacheFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.mock.SetResponse(testutil.NewBestSellersResponse(testutil.BerenAndLuthienBody))
	f.cache.getErr = errors.New("redis: connection refused")
	f.cache.setErr = errors.New("redis: connection refused")

	w := f.do(http.MethodGet, server.BestSellersPath, true)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.mock.RequestCount())
}

func TestRouter_Health(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/health", false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	f := newFixture(t)

	// Prime the inbound request counter before scraping.
	f.do(http.MethodGet, "/health", false)

	w := f.do(http.MethodGet, "/metrics", false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nyt_http_requests_total")
}

func TestRouter_NotFound(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/nope", true)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail": "Not found."}`, w.Body.String())
}
