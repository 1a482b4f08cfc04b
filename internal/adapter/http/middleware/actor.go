package middleware

import (
	"net/http"

	"github.com/iho/budgetledger/internal/domain"
)

// ActorHeader carries the caller identity. The gateway in front of the
// service is trusted to have authenticated it.
const ActorHeader = "X-Actor-ID"

// ActorRoleHeader optionally carries the caller role.
const ActorRoleHeader = "X-Actor-Role"

// Actor injects the caller identity into the request context. Requests
// without the header fall back to the system actor downstream.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actorID := r.Header.Get(ActorHeader); actorID != "" {
			actor := domain.Actor{
				ID:   actorID,
				Role: r.Header.Get(ActorRoleHeader),
			}
			r = r.WithContext(domain.ContextWithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}
