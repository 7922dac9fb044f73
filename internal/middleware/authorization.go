package middleware

import (
	"net/http"
	"slices"

	"go.uber.org/zap"
)

// Roles recognised by the catalog API. Inventory clerks may move stock but
// not edit the catalog.
const (
	RoleAdmin     = "admin"
	RoleInventory = "inventory"
)

func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, RoleAdmin)
}

// RequireRole admits callers whose role is one of roles. It must sit
// behind AuthMiddleware; a request without a principal gets 401.
func RequireRole(logger *zap.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				logger.Warn("Role check without an authenticated principal", zap.String("path", r.URL.Path))
				RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !slices.Contains(roles, principal.Role) {
				logger.Warn("User role not authorized",
					zap.String("user_id", principal.UserID),
					zap.String("role", principal.Role),
					zap.Strings("allowed_roles", roles),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
