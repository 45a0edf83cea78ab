// Package create реализует HTTP-обработчик подключения торгового счёта.
//
// Запрос доступен только пользователям с подходящим тарифом и активным
// статусом подписки: иначе возвращается 403 и счёт не создаётся.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/traderelay/traderelay/internal/http/middlewarectx"
	"github.com/traderelay/traderelay/internal/http/response"
	"github.com/traderelay/traderelay/internal/lib/sl"
	"github.com/traderelay/traderelay/internal/models"
	accountservice "github.com/traderelay/traderelay/internal/services/account"
	"github.com/traderelay/traderelay/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики торговых счетов.
type Service interface {
	Create(ctx context.Context, userUID string, req models.DummyTradingAccount) (int, error)
}

// Handler управляет HTTP-запросами на создание торговых счетов.
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

// ServeHTTP godoc
// @Summary Подключить торговый счёт
// @Tags Accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.DummyTradingAccount true "Данные торгового счёта"
// @Success 200 {object} map[string]any "ID созданного счёта"
// @Failure 403 {object} response.ErrorResponse "Тариф не даёт доступа"
// @Failure 409 {object} response.ErrorResponse "Счёт уже подключён"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /accounts [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyTradingAccount
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

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id, err := h.service.Create(r.Context(), userUID, req)
	if err != nil {
		switch {
		case errors.Is(err, accountservice.ErrPlanRequired):
			log.Error("trading access denied", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("subscription plan does not allow trading accounts"))
		case errors.Is(err, repository.ErrDuplicateAccount):
			log.Error("duplicate trading account", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("trading account already exists"))
		default:
			log.Error("failed to create trading account", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create trading account"))
		}
		return
	}

	log.Info("trading account created", slog.Int("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id": id,
	}))
}
