package middleware

import (
	"fmt"
	"net/http"
	"time"
)

// CacheControl marks successful-path GET responses as publicly cacheable for
// maxAge. Responses to authenticated callers are marked private so shared
// caches never store per-user data.
func CacheControl(maxAge time.Duration) func(http.Handler) http.Handler {
	secs := int(maxAge / time.Second)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				if ClaimsFromContext(r.Context()) != nil {
					w.Header().Set("Cache-Control", "private, no-store")
				} else {
					w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", secs))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NoStore disables caching for routes serving per-session state.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
