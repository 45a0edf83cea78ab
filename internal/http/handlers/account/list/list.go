// Package list реализует HTTP-обработчик списка торговых счетов пользователя.
package list

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/traderelay/traderelay/internal/http/middlewarectx"
	"github.com/traderelay/traderelay/internal/http/response"
	"github.com/traderelay/traderelay/internal/lib/sl"
	"github.com/traderelay/traderelay/internal/models"
	accountservice "github.com/traderelay/traderelay/internal/services/account"
)

// Service описывает интерфейс бизнес-логики торговых счетов.
type Service interface {
	List(ctx context.Context, userUID string) ([]*models.TradingAccount, error)
}

// Handler управляет HTTP-запросами на чтение списка счетов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить торговые счета пользователя
// @Tags Accounts
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]any "Список счетов"
// @Failure 403 {object} response.ErrorResponse "Тариф не даёт доступа"
// @Router /accounts [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	accounts, err := h.service.List(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, accountservice.ErrPlanRequired) {
			log.Error("trading access denied", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("subscription plan does not allow trading accounts"))
			return
		}
		log.Error("failed to list trading accounts", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list trading accounts"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"accounts": accounts,
	}))
}
