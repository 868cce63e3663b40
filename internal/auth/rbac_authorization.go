package auth

import (
	"log/slog"
	"net/http"

	"github.com/BollineniRohith123/nibog-platform/internal/transport"
)

// PermissionMiddleware gates a route group on a single permission. It runs
// after AuthMiddleware, which put the user in the request context.
type PermissionMiddleware struct {
	*transport.BaseHandler
	logger *slog.Logger
}

func NewPermissionMiddleware(baseHandler *transport.BaseHandler, logger *slog.Logger) *PermissionMiddleware {
	return &PermissionMiddleware{
		BaseHandler: baseHandler,
		logger:      logger,
	}
}

func (m *PermissionMiddleware) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				m.logger.Error("permission check without authenticated user", "permission", permission)
				m.WriteError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !user.HasPermission(permission) && !user.IsAdmin() {
				m.logger.Warn("permission denied",
					"user_id", user.ID,
					"permission", permission)
				m.WriteError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (m *PermissionMiddleware) RequireManageCatalog(next http.Handler) http.Handler {
	return m.Require(PermissionManageCatalog)(next)
}

func (m *PermissionMiddleware) RequireRefundPayments(next http.Handler) http.Handler {
	return m.Require(PermissionRefundPayments)(next)
}

func (m *PermissionMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.Require(PermissionAdmin)(next)
}
