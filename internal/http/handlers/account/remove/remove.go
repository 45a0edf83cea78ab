// Package remove реализует HTTP-обработчик отключения торгового счёта.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/traderelay/traderelay/internal/http/middlewarectx"
	"github.com/traderelay/traderelay/internal/http/response"
	"github.com/traderelay/traderelay/internal/lib/sl"
	accountservice "github.com/traderelay/traderelay/internal/services/account"
	"github.com/traderelay/traderelay/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики торговых счетов.
type Service interface {
	Remove(ctx context.Context, userUID string, id int) error
}

// Handler управляет HTTP-запросами на отключение счёта.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отключить торговый счёт
// @Tags Accounts
// @Security BearerAuth
// @Produce json
// @Param id path int true "ID счёта"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Тариф не даёт доступа"
// @Failure 404 {object} response.ErrorResponse "Счёт не найден"
// @Router /accounts/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	if err := h.service.Remove(r.Context(), userUID, id); err != nil {
		switch {
		case errors.Is(err, accountservice.ErrPlanRequired):
			log.Error("trading access denied", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("subscription plan does not allow trading accounts"))
		case errors.Is(err, repository.ErrAccountNotFound):
			log.Error("trading account not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("trading account not found"))
		default:
			log.Error("failed to remove trading account", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not remove trading account"))
		}
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"removed_id": id,
	}))
}
