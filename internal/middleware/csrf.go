package middleware

import (
	"net/http"
	"strings"
)

const csrfHeader = "X-CSRF-Token"

// EnforceCSRF compares the request header against the token stored on the
// session. Runs after RequireAuth, so a missing actor is a server-side
// ordering bug surfacing as 401.
func EnforceCSRF(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				return
			}
			token := strings.TrimSpace(r.Header.Get(csrfHeader))
			if token == "" || token != actor.CSRFToken {
				writeError(w, r, http.StatusForbidden, "csrf_invalid", "Invalid CSRF token", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
