package cache

import (
	"net/url"
	"strings"
)

// Key identifies a cached response. It is built from the normalized request
// identity, so parameters the validator did not accept never reach the key.
type Key struct {
	// Path is the inbound endpoint path (e.g. "/api/v1/best-sellers").
	Path string

	// Params are the normalized query parameters forwarded upstream.
	Params url.Values
}

// String generates a deterministic cache key string.
// Format: nytproxy:path:<url-encoded params>
//
// Params are rendered with url.Values.Encode, which sorts keys and escapes
// values, so a value containing ":" or "=" cannot collide with a different
// parameter combination.
//
// Example:
//
//	nytproxy:api/v1/best-sellers:author=JRR+Tolkien&offset=20
func (k Key) String() string {
	parts := []string{"nytproxy"}

	path := strings.Trim(k.Path, "/")
	if path != "" {
		parts = append(parts, path)
	}

	if len(k.Params) > 0 {
		parts = append(parts, k.Params.Encode())
	}

	return strings.Join(parts, ":")
}
