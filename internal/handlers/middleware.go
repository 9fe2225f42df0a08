package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/arefin-anik/docmarket/internal/assignment"
	"github.com/arefin-anik/docmarket/internal/model"
	"github.com/arefin-anik/docmarket/libs/auth"
)

type actorKey struct{}

// ActorFrom returns the authenticated actor attached by RequireAuth.
func ActorFrom(ctx context.Context) (model.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(model.Actor)
	return a, ok
}

// Auth verifies bearer tokens and attaches a model.Actor to the request
// context. Assistants get their doctor scope resolved per request so a
// reassignment takes effect immediately, not at next login.
type Auth struct {
	Secret   string
	Resolver *assignment.Resolver
	Logger   *slog.Logger
}

func (a *Auth) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing bearer token"})
			return
		}
		claims, err := auth.ParseAndVerifyHS256(strings.TrimSpace(token), a.Secret)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token"})
			return
		}

		actor := model.Actor{
			UserID:   claims.Sub,
			Role:     claims.Role,
			DoctorID: claims.DoctorID,
		}
		if actor.Role == model.RoleAssistant && a.Resolver != nil {
			doctorID, found, err := a.Resolver.ResolveAssignedDoctor(r.Context(), actor.UserID)
			if err != nil {
				writeDomainError(r.Context(), w, a.Logger, err)
				return
			}
			if found {
				actor.DoctorID = doctorID
			}
		}

		ctx := context.WithValue(r.Context(), actorKey{}, actor)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole wraps RequireAuth and additionally restricts to the given
// roles.
func (a *Auth) RequireRole(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return a.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFrom(r.Context())
		for _, role := range roles {
			if actor.Role == role {
				next(w, r)
				return
			}
		}
		writeJSON(w, http.StatusForbidden, errorBody{Error: "not authorized"})
	})
}
