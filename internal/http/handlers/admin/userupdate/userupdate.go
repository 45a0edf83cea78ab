// Package userupdate реализует HTTP-обработчик изменения пользователя
// администратором: роль, назначенный тариф, ключ API и IP сервера.
//
// Смена роли доступна только суперадминистратору. Назначение тарифа
// администратором переводит статус подписки в admin_assigned: дальнейшие
// события платёжного провайдера перезапишут его обычным порядком.
package userupdate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/traderelay/traderelay/internal/http/middlewarectx"
	"github.com/traderelay/traderelay/internal/http/response"
	"github.com/traderelay/traderelay/internal/lib/sl"
	"github.com/traderelay/traderelay/internal/models"
	"github.com/traderelay/traderelay/internal/storage/repository"
)

// Service описывает интерфейс административного изменения пользователя.
type Service interface {
	AdminUpdateUser(ctx context.Context, userUID string, role, planName, status, apiKey, serverIP *string) error
}

// Handler управляет HTTP-запросами на изменение пользователя.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Request изменяемые администратором поля. Пустые поля не изменяются.
type Request struct {
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=user admin superadmin"`
	PlanName *string `json:"plan_name,omitempty" validate:"omitempty,oneof=trial pro premium"`
	APIKey   *string `json:"api_key,omitempty"`
	ServerIP *string `json:"server_ip,omitempty" validate:"omitempty,ip"`
}

// ServeHTTP godoc
// @Summary Изменить пользователя
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param uid path string true "UID пользователя"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /admin/users/{uid} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userupdate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "uid")

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	callerRole, _ := r.Context().Value(middlewarectx.Role).(string)
	if req.Role != nil && !models.CanAssignRoles(callerRole) {
		log.Error("role change requires superadmin", slog.String("caller_role", callerRole))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("insufficient permissions"))
		return
	}

	var status *string
	if req.PlanName != nil {
		assigned := models.StatusAdminAssigned
		status = &assigned
	}

	err := h.service.AdminUpdateUser(r.Context(), uid, req.Role, req.PlanName, status, req.APIKey, req.ServerIP)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Error("user not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to update user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update user"))
		return
	}

	log.Info("user updated by admin", slog.String("uid", uid))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"updated_uid": uid,
	}))
}
