package facade

import (
	"crypto/subtle"
	"net/http"
)

// requireSharedSecret rejects any request whose X-API-Key header doesn't
// match secret in constant time, before the route's handler ever runs. An
// empty secret disables auth entirely — used only in local development.
func requireSharedSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-API-Key")
			if len(got) != len(secret) || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				writeError(w, http.StatusUnauthorized, "missing or invalid X-API-Key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
