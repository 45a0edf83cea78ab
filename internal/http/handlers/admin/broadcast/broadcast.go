// Package broadcast реализует HTTP-обработчик массовой рассылки писем
// администратором. Рассылка выполняется синхронно пачками, в ответе
// возвращается итог: сколько писем ушло, сколько упало и на каких адресах.
package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/traderelay/traderelay/internal/http/response"
	"github.com/traderelay/traderelay/internal/lib/sl"
	"github.com/traderelay/traderelay/internal/models"
)

// Service описывает интерфейс массовой рассылки.
type Service interface {
	Broadcast(ctx context.Context, subject, body string) (*models.BroadcastResult, error)
}

// Handler управляет HTTP-запросами на массовую рассылку.
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

// Request тема и текст рассылаемого письма.
type Request struct {
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

// ServeHTTP godoc
// @Summary Разослать письмо всем активным пользователям
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body Request true "Тема и текст письма"
// @Success 200 {object} map[string]any "Итог рассылки"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Router /admin/broadcast [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.broadcast"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	result, err := h.service.Broadcast(r.Context(), req.Subject, req.Body)
	if err != nil {
		log.Error("broadcast failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not send broadcast"))
		return
	}

	log.Info("broadcast finished",
		slog.Int("total", result.Total),
		slog.Int("success", result.Success),
		slog.Int("failed", result.Failed),
	)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"result": result,
	}))
}
