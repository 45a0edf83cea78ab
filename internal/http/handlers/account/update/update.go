// Package update реализует HTTP-обработчик изменения параметров копирования счёта.
package update

import (
	"context"
	"encoding/json"
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
	"github.com/traderelay/traderelay/internal/models"
	accountservice "github.com/traderelay/traderelay/internal/services/account"
)

// Service описывает интерфейс бизнес-логики торговых счетов.
type Service interface {
	Update(ctx context.Context, userUID string, id int, upd models.DummyTradingAccountUpdate) (int64, error)
}

// Handler управляет HTTP-запросами на изменение счёта.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Изменить параметры копирования торгового счёта
// @Tags Accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "ID счёта"
// @Param request body models.DummyTradingAccountUpdate true "Изменяемые параметры"
// @Success 200 {object} map[string]any "Число обновлённых записей"
// @Failure 403 {object} response.ErrorResponse "Тариф не даёт доступа"
// @Router /accounts/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.update"
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

	var req models.DummyTradingAccountUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	affected, err := h.service.Update(r.Context(), userUID, id, req)
	if err != nil {
		if errors.Is(err, accountservice.ErrPlanRequired) {
			log.Error("trading access denied", sl.Err(err))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("subscription plan does not allow trading accounts"))
			return
		}
		log.Error("failed to update trading account", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update trading account"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"updated_count": affected,
	}))
}
