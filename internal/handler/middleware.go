package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/dhobighat/dhobighat/internal/domain/auth"
)

// actorKey is the context key under which the resolved actor is stored.
type actorKey struct{}

// actorFrom extracts the authenticated actor from the request context.
func actorFrom(ctx context.Context) (auth.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(auth.Actor)
	return a, ok
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// RequireAuth resolves the session token and stores the actor in the
// request context. Requests without a valid session get 401.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := h.sessions.Resolve(r.Context(), bearerToken(r))
		if err != nil {
			// Bad credentials map to 401; a session-store failure is a
			// server fault and classifies as 500.
			h.writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), actorKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects non-administrator actors with 403. Must run after
// RequireAuth.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r.Context())
		if !ok || !actor.IsAdmin() {
			h.writeError(w, r, auth.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
