package middleware

import "net/http"

// RequireRole gates a route on the actor's role. Roles are a closed set so
// there is no lookup, just a comparison against the session principal.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				return
			}
			if actor.Role != role {
				writeError(w, r, http.StatusForbidden, "forbidden", "Admin access required", map[string]string{"role": role})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole("admin")(next)
}
