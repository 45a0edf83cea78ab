package billing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/traderelay/traderelay/internal/billing"
	"github.com/traderelay/traderelay/internal/config"
	"github.com/traderelay/traderelay/internal/models"
)

// ProviderClient описывает контракт клиента платёжного провайдера.
type ProviderClient interface {
	CreateCheckoutSession(reqParams billing.CreateCheckoutSessionRequest) (*billing.CreateCheckoutSessionResponse, error)
}

// UserGetter возвращает пользователя по UID.
type UserGetter interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// CheckoutService создаёт checkout-сессии для оплаты тарифа.
type CheckoutService struct {
	client ProviderClient
	users  UserGetter
	cfg    config.Billing
	log    *slog.Logger
}

// NewCheckoutService создает новый экземпляр CheckoutService.
func NewCheckoutService(client ProviderClient, users UserGetter, cfg config.Billing, log *slog.Logger) *CheckoutService {
	return &CheckoutService{
		client: client,
		users:  users,
		cfg:    cfg,
		log:    log,
	}
}

// CreateCheckout создаёт checkout-сессию для пользователя и выбранного тарифа,
// возвращает URL страницы оплаты.
func (s *CheckoutService) CreateCheckout(ctx context.Context, userUID, planName string) (string, error) {
	const op = "services.billing.CreateCheckout"

	priceID, err := s.priceForPlan(planName)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	resp, err := s.client.CreateCheckoutSession(billing.CreateCheckoutSessionRequest{
		CustomerEmail:     user.Email,
		ClientReferenceID: user.UID,
		PriceID:           priceID,
		Mode:              "subscription",
		SuccessURL:        s.cfg.CheckoutSuccessURL,
		CancelURL:         s.cfg.CheckoutCancelURL,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("checkout session created",
		slog.String("op", op),
		slog.String("user_uid", userUID),
		slog.String("session_id", resp.ID))
	return resp.URL, nil
}

func (s *CheckoutService) priceForPlan(planName string) (string, error) {
	for priceID, plan := range s.cfg.PlanPrices {
		if plan == planName {
			return priceID, nil
		}
	}
	return "", fmt.Errorf("unknown plan %q", planName)
}
