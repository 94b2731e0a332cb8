package middleware

import (
	"context"
	"net/http"

	"github.com/parley-labs/parley/internal/api"
	"github.com/parley-labs/parley/internal/domain"
)

type contextKey string

const IdentityKey contextKey = "identity"

// Identity resolves the caller from the trusted identity headers set by the
// authenticating reverse proxy. Requests without X-User-ID are rejected;
// everything past this middleware carries a non-empty identity.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			api.Error(w, http.StatusUnauthorized, "missing identity header")
			return
		}

		ident := domain.Identity{
			UserID:  userID,
			IsAdmin: r.Header.Get("X-User-Admin") == "true",
		}

		ctx := context.WithValue(r.Context(), IdentityKey, ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity returns the caller identity from context.
func GetIdentity(ctx context.Context) domain.Identity {
	ident, _ := ctx.Value(IdentityKey).(domain.Identity)
	return ident
}
