package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

// WithActor stores the authenticated operator id on ctx.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// ActorFromContext returns the operator set by RequireAdmin, or "" if none.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(contextKey{}).(string)
	return actor
}

// RequireAdmin rejects requests without a valid "Authorization: Bearer <jwt>" header.
func RequireAdmin(service Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respond(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
				return
			}
			actor, err := service.ParseToken(token)
			if err != nil {
				respond(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}
