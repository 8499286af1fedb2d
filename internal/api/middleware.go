/**
 * @description
 * This file contains custom middleware for the HTTP router. The service sits
 * behind the office gateway, so authentication is a shared internal API key
 * rather than per-user credentials.
 *
 * @dependencies
 * - crypto/subtle, net/http, strings: Standard Go libraries.
 */

package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// InternalKeyMiddleware creates a middleware that validates the X-Internal-API-Key
// header against the configured key. An empty configured key rejects everything;
// the service must not run open when the key is missing from the environment.
func InternalKeyMiddleware(key string) func(http.Handler) http.Handler {
	expected := strings.TrimSpace(key)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected == "" {
				http.Error(w, "Service is not configured for internal access", http.StatusServiceUnavailable)
				return
			}

			got := strings.TrimSpace(r.Header.Get("X-Internal-API-Key"))
			if got == "" {
				http.Error(w, "X-Internal-API-Key header required", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
