package middleware

import (
	"net/http"
	"strings"

	"github.com/shelfwise/shelfwise/pkg/auth"
	"github.com/shelfwise/shelfwise/pkg/catalog"
	"github.com/shelfwise/shelfwise/pkg/contextkeys"
	"github.com/shelfwise/shelfwise/pkg/httputil"
)

// AuthMiddleware authenticates requests via JWT bearer tokens
type AuthMiddleware struct {
	issuer   *auth.TokenIssuer
	optional bool // If true, allow requests without a token
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(issuer *auth.TokenIssuer, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		issuer:   issuer,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with authentication.
// Expects an Authorization header of the form "Bearer <token>".
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return
		}

		identity, err := m.issuer.Decode(parts[1])
		if err != nil {
			httputil.WriteUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := contextkeys.WithIdentity(r.Context(), identity)
		ctx = contextkeys.WithUserID(ctx, identity.UserID.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity extracts the authenticated identity from the request.
// The second return value is false for unauthenticated requests.
func GetIdentity(r *http.Request) (auth.Identity, bool) {
	v := r.Context().Value(contextkeys.IdentityKey)
	if v == nil {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}

// RequireRole creates middleware that rejects callers whose role does not
// cover the given role. Must run after AuthMiddleware.
func RequireRole(role catalog.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := GetIdentity(r)
			if !ok {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			if !identity.Role.Covers(role) {
				httputil.WriteForbidden(w, "insufficient role")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
