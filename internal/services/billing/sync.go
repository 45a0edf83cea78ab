// Package billing содержит синхронизатор состояния подписки:
// проекцию событий платёжного провайдера на запись пользователя.
package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/traderelay/traderelay/internal/billing"
	"github.com/traderelay/traderelay/internal/lib/sl"
	"github.com/traderelay/traderelay/internal/models"
	"github.com/traderelay/traderelay/internal/rabbitmq"
)

// UserRepository описывает контракт хранилища для синхронизатора.
type UserRepository interface {
	GetUserByBillingCustomerID(ctx context.Context, customerID string) (*models.User, error)
	ApplySubscriptionState(ctx context.Context, customerID, planName, status, subscriptionID string, eventAt time.Time) (bool, error)
	SetBillingCustomerID(ctx context.Context, userUID, customerID string) error
}

// Publisher публикует сообщения в очередь уведомлений.
type Publisher interface {
	Publish(exchange, routingKey string, message any) error
}

// SyncService проецирует объект подписки провайдера на поля
// plan_name/subscription_status владеющего пользователя.
type SyncService struct {
	repo       UserRepository
	publisher  Publisher
	planPrices map[string]string // price ID -> имя тарифа
	log        *slog.Logger
}

// NewSyncService создает новый экземпляр SyncService.
func NewSyncService(repo UserRepository, publisher Publisher, planPrices map[string]string, log *slog.Logger) *SyncService {
	return &SyncService{
		repo:       repo,
		publisher:  publisher,
		planPrices: planPrices,
		log:        log,
	}
}

// ProcessEvent применяет событие подписки: ровно один UPDATE по владеющему
// пользователю. Отсутствие пользователя для покупателя — ошибка, провайдер
// доставит событие повторно. События старше последнего применённого
// игнорируются: повторная доставка безопасна, устаревшая не откатывает
// состояние назад.
func (s *SyncService) ProcessEvent(ctx context.Context, eventType string, eventAt time.Time, sub *billing.Subscription) error {
	const op = "services.billing.ProcessEvent"
	log := s.log.With(slog.String("op", op), slog.String("event_type", eventType))

	user, err := s.repo.GetUserByBillingCustomerID(ctx, sub.Customer)
	if err != nil {
		return fmt.Errorf("%s: resolve user for customer %s: %w", op, sub.Customer, err)
	}

	planName, err := s.planForSubscription(user, eventType, sub)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	status := sub.Status
	if eventType == billing.EventSubscriptionDeleted {
		status = models.StatusCanceled
	}

	applied, err := s.repo.ApplySubscriptionState(ctx, sub.Customer, planName, status, sub.ID, eventAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !applied {
		log.Info("stale event ignored",
			slog.String("customer", sub.Customer),
			slog.Time("event_at", eventAt))
		return nil
	}

	log.Info("subscription state applied",
		slog.String("user_uid", user.UID),
		slog.String("plan", planName),
		slog.String("status", status))

	// Уведомление best-effort: ошибка публикации не влияет на результат синхронизации.
	change := models.StateChange{
		Email:      user.Email,
		Username:   user.Username,
		PlanName:   planName,
		Status:     status,
		EventType:  eventType,
		OccurredAt: eventAt,
	}
	if err := s.publisher.Publish(rabbitmq.NotificationsExchange, rabbitmq.StateChangeRoutingKey, change); err != nil {
		log.Error("failed to publish state change notification", sl.Err(err))
	}
	return nil
}

// LinkCheckoutSession связывает покупателя провайдера с локальным
// пользователем по client_reference_id завершённой checkout-сессии.
// Тариф не записывается: его принесёт событие создания подписки.
func (s *SyncService) LinkCheckoutSession(ctx context.Context, session *billing.CheckoutSession) error {
	const op = "services.billing.LinkCheckoutSession"
	if session.ClientReferenceID == "" {
		return fmt.Errorf("%s: checkout session %s has no client reference", op, session.ID)
	}
	if err := s.repo.SetBillingCustomerID(ctx, session.ClientReferenceID, session.Customer); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("billing customer linked",
		slog.String("op", op),
		slog.String("user_uid", session.ClientReferenceID),
		slog.String("customer", session.Customer))
	return nil
}

func (s *SyncService) planForSubscription(user *models.User, eventType string, sub *billing.Subscription) (string, error) {
	priceID := sub.PriceID()
	if priceID == "" {
		// Событие удаления может приходить без позиций, тариф остаётся прежним.
		if eventType == billing.EventSubscriptionDeleted {
			return user.PlanName, nil
		}
		return "", fmt.Errorf("subscription %s has no price", sub.ID)
	}
	planName, ok := s.planPrices[priceID]
	if !ok {
		return "", fmt.Errorf("unknown price id %q", priceID)
	}
	return planName, nil
}
