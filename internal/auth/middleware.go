package auth

import (
	"net/http"

	"github.com/thrivewell/wellness-platform/internal/http/envelope"
	"github.com/thrivewell/wellness-platform/internal/tenancy"
)

// RequireAuth verifies the bearer token and live session, injects the org and
// user into the request context, and optionally restricts to the given roles.
func RequireAuth(issuer *TokenIssuer, sessions SessionStore, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				envelope.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			claims, err := issuer.Parse(token)
			if err != nil {
				envelope.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}
			live, err := sessions.Valid(r.Context(), claims.ID)
			if err != nil {
				envelope.Error(w, http.StatusInternalServerError, "session check failed")
				return
			}
			if !live {
				envelope.Error(w, http.StatusUnauthorized, "session expired")
				return
			}
			if len(allowed) > 0 && !allowed[claims.Role] {
				envelope.Error(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			ctx := tenancy.WithOrgID(r.Context(), claims.OrgID)
			ctx = tenancy.WithUser(ctx, claims.UserID, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
