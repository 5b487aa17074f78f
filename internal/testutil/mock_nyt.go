// Package testutil provides testing utilities for the best-sellers proxy.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// MockResponse defines the behavior of the mock upstream endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockNYT is a configurable mock of the NYT best-sellers endpoint. It records
// every request so tests can assert on call counts and forwarded parameters.
type MockNYT struct {
	server *httptest.Server

	mu        sync.RWMutex
	response  *MockResponse
	responses []MockResponse

	requestCount int
	lastQuery    url.Values
	lastHeader   http.Header
}

// NewMockNYT creates a new mock upstream server.
func NewMockNYT() *MockNYT {
	mock := &MockNYT{}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.lastQuery = r.URL.Query()
		mock.lastHeader = r.Header.Clone()

		resp := mock.response
		if len(mock.responses) > 0 {
			next := mock.responses[0]
			mock.responses = mock.responses[1:]
			resp = &next
		}
		mock.mu.Unlock()

		if resp == nil {
			mock.defaultHandler(w)
			return
		}

		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockNYT) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockNYT) Close() {
	m.server.Close()
}

// Reset clears the configured responses and tracking state.
func (m *MockNYT) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = nil
	m.responses = nil
	m.requestCount = 0
	m.lastQuery = nil
	m.lastHeader = nil
}

// SetResponse configures the response returned for every request.
func (m *MockNYT) SetResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = &resp
}

// QueueResponses configures a sequence of responses consumed one per request.
// Once drained, the fixed response (or the default) applies again.
func (m *MockNYT) QueueResponses(resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resps...)
}

// RequestCount returns the number of requests made to the server.
func (m *MockNYT) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// LastQuery returns the query parameters of the most recent request.
func (m *MockNYT) LastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery
}

// LastHeader returns the headers of the most recent request.
func (m *MockNYT) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

// defaultHandler answers with an empty best-sellers page.
func (m *MockNYT) defaultHandler(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"num_results": 0, "results": []}`))
}

// NewBestSellersResponse creates a standard 200 OK response with the given body.
func NewBestSellersResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"fault": {"faultstring": "Internal error"}}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// BerenAndLuthienBody is a one-book best-sellers page.
// Data provided by The New York Times.
const BerenAndLuthienBody = `{
	"status": "OK",
	"num_results": 1,
	"results": [
		{
			"author": "JRR Tolkien",
			"title": "BEREN AND LÚTHIEN",
			"publisher": "Houghton Mifflin Harcourt",
			"isbns": [{"isbn10": "1328791823", "isbn13": "9781328791825"}]
		}
	]
}`
