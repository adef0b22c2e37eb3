package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"medilink/pkg/platform/httputil"
	"medilink/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	UserID string
	Role   string
	// Expired distinguishes an expired token (401 with a re-login hint)
	// from a malformed/forged one (403).
	Expired bool
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated user in the request context. An expired token gets 401 so
// the client re-authenticates; any other invalid token gets 403, matching
// the portal API contract.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteJSON(w, http.StatusUnauthorized,
					map[string]string{"message": "Accès refusé: aucun jeton fourni"})
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				if claims != nil && claims.Expired {
					httputil.WriteJSON(w, http.StatusUnauthorized,
						map[string]string{"message": "Jeton expiré, veuillez vous reconnecter"})
					return
				}
				httputil.WriteJSON(w, http.StatusForbidden,
					map[string]string{"message": "Jeton invalide"})
				return
			}

			ctx = requestcontext.WithUserID(ctx, claims.UserID)
			ctx = requestcontext.WithUserRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles allows only the listed roles past. Must run after RequireAuth.
func RequireRoles(logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := requestcontext.UserRole(ctx)
			if role == "" {
				httputil.WriteJSON(w, http.StatusUnauthorized,
					map[string]string{"message": "Authentification requise"})
				return
			}
			if !allowed[role] {
				logger.WarnContext(ctx, "forbidden - role not allowed",
					"role", role,
					"path", r.URL.Path,
				)
				httputil.WriteJSON(w, http.StatusForbidden,
					map[string]string{"message": "Accès refusé: le rôle " + role + " n'est pas autorisé"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
