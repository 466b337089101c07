package middleware

import (
	"crypto/hmac"
	"net/http"
)

// APIKeyHeader carries the static shared secret callers must present.
const APIKeyHeader = "X-API-Key"

// SharedSecret rejects requests whose key header does not match the
// configured secret. Comparison is constant-time.
func SharedSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(APIKeyHeader)
			if provided == "" {
				http.Error(w, "missing api key", http.StatusUnauthorized)
				return
			}
			if !hmac.Equal([]byte(secret), []byte(provided)) {
				http.Error(w, "invalid api key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
