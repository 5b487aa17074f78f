// Package auth is the authentication gate evaluated before the proxy core
// runs. The core only depends on the allow/deny answer.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Authenticator decides whether a request is allowed to reach the proxy core.
type Authenticator interface {
	Authenticate(r *http.Request) bool
}

// TokenAuthenticator allows requests carrying one of the configured bearer
// tokens. With no tokens configured it denies everything (fail closed).
type TokenAuthenticator struct {
	tokens [][]byte
}

// NewTokenAuthenticator creates an authenticator for the given tokens. Empty
// strings are dropped.
func NewTokenAuthenticator(tokens []string) *TokenAuthenticator {
	a := &TokenAuthenticator{}
	for _, token := range tokens {
		if token != "" {
			a.tokens = append(a.tokens, []byte(token))
		}
	}
	return a
}

// Authenticate checks the Authorization header for a configured bearer token.
// Token comparison is constant-time.
func (a *TokenAuthenticator) Authenticate(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return false
	}

	for _, want := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(token), want) == 1 {
			return true
		}
	}
	return false
}

// AllowAll authenticates every request (for testing).
type AllowAll struct{}

// Authenticate implements Authenticator.
func (AllowAll) Authenticate(*http.Request) bool { return true }
