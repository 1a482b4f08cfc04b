package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/budgetledger/internal/domain"
)

func TestActorMiddleware_AttachesActor(t *testing.T) {
	var gotID, gotRole string

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := domain.ActorFromContext(r.Context())
		if !ok {
			t.Fatalf("expected actor in context")
		}
		gotID, gotRole = actor.ID, actor.Role
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", nil)
	req.Header.Set(ActorHeader, "alice")
	req.Header.Set(ActorRoleHeader, "controleur")
	rr := httptest.NewRecorder()

	Actor(next).ServeHTTP(rr, req)

	if gotID != "alice" || gotRole != "controleur" {
		t.Fatalf("unexpected actor: id=%s role=%s", gotID, gotRole)
	}
}

func TestActorMiddleware_DefaultsToSystem(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := domain.ActorID(r.Context()); got != "system" {
			t.Fatalf("expected system actor, got %s", got)
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/budget-lines", nil)
	rr := httptest.NewRecorder()

	Actor(next).ServeHTTP(rr, req)
}
