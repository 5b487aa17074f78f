package cache

import (
	"encoding/json"
	"time"
)

// Entry is a cached success response. Expiry is enforced by the Redis TTL set
// on write; CachedAt is retained for observability.
type Entry struct {
	// Payload is the caller-facing response body.
	Payload json.RawMessage `json:"payload"`

	// StatusCode is the HTTP status code of the cached response.
	StatusCode int `json:"status_code"`

	// CachedAt is when the response was stored.
	CachedAt time.Time `json:"cached_at"`
}

// Age returns how long ago the entry was stored.
func (e *Entry) Age() time.Duration {
	return time.Since(e.CachedAt)
}
