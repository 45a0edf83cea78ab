package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/traderelay/traderelay/internal/http/response"
	"github.com/traderelay/traderelay/internal/models"
)

// RequireAdmin пропускает только пользователей, чья роль даёт доступ
// к админ-консоли. Единая точка проверки вместо дублирования сравнения
// ролей в каждом обработчике.
func RequireAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return requireRole(log, models.CanManageUsers)
}

// RequireSuperadmin пропускает только суперадминистраторов.
func RequireSuperadmin(log *slog.Logger) func(http.Handler) http.Handler {
	return requireRole(log, models.CanAssignRoles)
}

func requireRole(log *slog.Logger, allowed func(role string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value(Role).(string)
			if !ok || !allowed(role) {
				log.Error("insufficient role", slog.String("role", role))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
