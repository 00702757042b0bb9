package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/molecula-pos/molecula-pos/internal/platform/httpx"
	"github.com/molecula-pos/molecula-pos/internal/shared"
)

// Middleware wires token verification and role checks for HTTP handlers.
type Middleware struct {
	Tokens *TokenManager
	Logger *slog.Logger
}

// RequireAuth verifies the bearer token and stores the identity in context.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "token required")
			return
		}
		identity, err := m.Tokens.Verify(token)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.ErrTokenInvalid.Error())
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole ensures the authenticated user holds the exact role.
func (m Middleware) RequireRole(role shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			if identity == nil || identity.Role != string(role) {
				if m.Logger != nil && identity != nil {
					m.Logger.Warn("role check failed",
						slog.String("path", r.URL.Path),
						slog.String("role", identity.Role))
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden", shared.ErrForbidden.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
