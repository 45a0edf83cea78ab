// Package message реализует HTTP-обработчик чата поддержки. Сообщение
// пользователя передаётся ассистенту, ответ возвращается синхронно.
package message

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/traderelay/traderelay/internal/http/middlewarectx"
	"github.com/traderelay/traderelay/internal/http/response"
	"github.com/traderelay/traderelay/internal/lib/sl"
)

// Service описывает интерфейс чата поддержки.
type Service interface {
	SendMessage(ctx context.Context, userUID, text string) (string, error)
	Reset(ctx context.Context, userUID string) error
}

// Handler управляет HTTP-запросами чата поддержки.
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

// Request сообщение пользователя ассистенту.
type Request struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// ServeHTTP godoc
// @Summary Отправить сообщение в чат поддержки
// @Tags Chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body Request true "Сообщение пользователя"
// @Success 200 {object} map[string]any "Ответ ассистента"
// @Failure 502 {object} response.ErrorResponse "Ассистент недоступен"
// @Router /chat [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.message"
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

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	reply, err := h.service.SendMessage(r.Context(), userUID, req.Message)
	if err != nil {
		log.Error("assistant request failed", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("assistant is unavailable, try again later"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"reply": reply,
	}))
}

// ResetHandler сбрасывает диалог пользователя с ассистентом.
type ResetHandler struct {
	log     *slog.Logger
	service Service
}

// NewReset создает новый ResetHandler.
func NewReset(log *slog.Logger, service Service) *ResetHandler {
	return &ResetHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Начать диалог с ассистентом заново
// @Tags Chat
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /chat/reset [post]
func (h *ResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.reset"
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

	if err := h.service.Reset(r.Context(), userUID); err != nil {
		log.Error("failed to reset chat thread", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not reset chat"))
		return
	}

	render.JSON(w, r, response.OK())
}
