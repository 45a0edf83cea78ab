// Package testemail реализует HTTP-обработчик отправки тестовых писем
// на адрес администратора для проверки шаблонов и SMTP-настроек.
package testemail

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

// Service описывает интерфейс отправки тестовых писем.
type Service interface {
	SendTestEmails(ctx context.Context, to string, kinds []string) (*models.BroadcastResult, error)
	TestEmailKinds() []string
}

// Handler управляет HTTP-запросами на отправку тестовых писем.
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

// Request адрес получателя и виды тестовых писем. Если kinds пуст,
// отправляются все известные виды.
type Request struct {
	To    string   `json:"to" validate:"required,email"`
	Kinds []string `json:"kinds,omitempty"`
}

// ServeHTTP godoc
// @Summary Отправить тестовые письма
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body Request true "Получатель и виды писем"
// @Success 200 {object} map[string]any "Итог отправки"
// @Failure 400 {object} response.ErrorResponse "Неизвестный вид письма"
// @Router /admin/test-email [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.testemail"
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

	kinds := req.Kinds
	if len(kinds) == 0 {
		kinds = h.service.TestEmailKinds()
	}

	result, err := h.service.SendTestEmails(r.Context(), req.To, kinds)
	if err != nil {
		log.Error("failed to send test emails", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"result": result,
	}))
}
