// Package webhook реализует приём событий платёжного провайдера.
//
// Обработчик проверяет HMAC-подпись сырого тела запроса, разбирает конверт
// события и передаёт распознанные события подписок синхронизатору.
// Нераспознанные типы подтверждаются и игнорируются: провайдер не должен
// доставлять их повторно.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/traderelay/traderelay/internal/billing"
	"github.com/traderelay/traderelay/internal/http/response"
	"github.com/traderelay/traderelay/internal/lib/sl"
	"github.com/traderelay/traderelay/internal/metrics"
)

// Service описывает интерфейс синхронизатора состояния подписки.
type Service interface {
	ProcessEvent(ctx context.Context, eventType string, eventAt time.Time, sub *billing.Subscription) error
	LinkCheckoutSession(ctx context.Context, session *billing.CheckoutSession) error
}

// Handler принимает webhook-события платёжного провайдера.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string // Секрет для проверки подписи
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// Проверка подписи webhook (X-Billing-Signature): HMAC-SHA256 сырого тела,
// закодированный в base64. Сравнение через hmac.Equal.
func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

// ServeHTTP godoc
// @Summary Принять событие платёжного провайдера
// @Tags Billing
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool "Событие принято"
// @Failure 400 {object} response.ErrorResponse "Неверная подпись или тело запроса"
// @Failure 500 {object} response.ErrorResponse "Ошибка обработки события"
// @Router /billing/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read body"))
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Billing-Signature")
	if signature == "" || !h.verifySignature(body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var event billing.Event
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid payload"))
		return
	}

	log = log.With(slog.String("event_id", event.ID), slog.String("event_type", event.Type))
	eventAt := time.Unix(event.Created, 0).UTC()

	switch event.Type {
	case billing.EventSubscriptionCreated,
		billing.EventSubscriptionUpdated,
		billing.EventSubscriptionDeleted,
		billing.EventSubscriptionTrialWillEnd,
		billing.EventSubscriptionPaused,
		billing.EventSubscriptionResumed:
		var sub billing.Subscription
		if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
			log.Error("failed to unmarshal subscription object", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid payload"))
			return
		}
		if err := h.service.ProcessEvent(r.Context(), event.Type, eventAt, &sub); err != nil {
			log.Error("failed to process webhook event", sl.Err(err))
			metrics.WebhookEvents.WithLabelValues(event.Type, "failed").Inc()
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to process event"))
			return
		}
		metrics.WebhookEvents.WithLabelValues(event.Type, "processed").Inc()

	case billing.EventCheckoutCompleted:
		var session billing.CheckoutSession
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			log.Error("failed to unmarshal checkout session", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid payload"))
			return
		}
		// Интересны только подписочные сессии: разовые платежи игнорируются.
		if session.Mode != "subscription" {
			log.Info("ignored checkout session", slog.String("mode", session.Mode))
			metrics.WebhookEvents.WithLabelValues(event.Type, "ignored").Inc()
			break
		}
		if err := h.service.LinkCheckoutSession(r.Context(), &session); err != nil {
			log.Error("failed to link checkout session", sl.Err(err))
			metrics.WebhookEvents.WithLabelValues(event.Type, "failed").Inc()
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to process event"))
			return
		}
		metrics.WebhookEvents.WithLabelValues(event.Type, "processed").Inc()

	default:
		log.Info("ignored webhook event")
		metrics.WebhookEvents.WithLabelValues(event.Type, "ignored").Inc()
	}

	log.Info("webhook processed successfully")
	render.JSON(w, r, map[string]bool{"received": true})
}
