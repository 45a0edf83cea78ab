// Package account содержит бизнес-логику торговых счетов:
// доступ по тарифу и статусу подписки, создание, изменение параметров
// копирования и мягкое удаление.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/traderelay/traderelay/internal/models"
)

// ErrPlanRequired возвращается, когда тариф или статус подписки
// не дают доступа к API торговых счетов.
var ErrPlanRequired = errors.New("active qualifying subscription required")

// Repository описывает контракт хранилища для сервиса торговых счетов.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	CreateTradingAccount(ctx context.Context, a models.TradingAccount) (int, error)
	ListTradingAccounts(ctx context.Context, userUID string) ([]*models.TradingAccount, error)
	UpdateTradingAccountParams(ctx context.Context, userUID string, id int, upd models.DummyTradingAccountUpdate) (int64, error)
	SoftDeleteTradingAccount(ctx context.Context, userUID string, id int) error
}

// AccountService управляет торговыми счетами пользователя.
type AccountService struct {
	repo Repository
	log  *slog.Logger
}

// NewAccountService создает новый экземпляр AccountService.
func NewAccountService(repo Repository, log *slog.Logger) *AccountService {
	return &AccountService{
		repo: repo,
		log:  log,
	}
}

// checkAccess сверяет тариф и статус подписки пользователя с требованиями
// API торговых счетов. Проверка выполняется на каждый запрос и не кэшируется.
func (s *AccountService) checkAccess(ctx context.Context, userUID string) error {
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return err
	}
	if !models.HasTradingAccess(user.PlanName, user.SubscriptionStatus) {
		return fmt.Errorf("%w: plan %q, status %q", ErrPlanRequired, user.PlanName, user.SubscriptionStatus)
	}
	return nil
}

// Create создаёт торговый счёт. Без подходящей подписки запись не создаётся.
func (s *AccountService) Create(ctx context.Context, userUID string, req models.DummyTradingAccount) (int, error) {
	const op = "services.account.Create"
	if err := s.checkAccess(ctx, userUID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	acc := models.TradingAccount{
		UserUID:           userUID,
		AccountNumber:     req.AccountNumber,
		Platform:          req.Platform,
		Server:            req.Server,
		Password:          req.Password,
		AccountType:       req.AccountType,
		Status:            "pending",
		LotCoefficient:    req.LotCoefficient,
		ForceLot:          req.ForceLot,
		ReverseTrade:      req.ReverseTrade,
		ConnectedToMaster: req.ConnectedToMaster,
	}
	if acc.LotCoefficient == 0 {
		acc.LotCoefficient = 1
	}

	id, err := s.repo.CreateTradingAccount(ctx, acc)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("trading account created",
		slog.String("op", op),
		slog.String("user_uid", userUID),
		slog.Int("id", id))
	return id, nil
}

// List возвращает торговые счета пользователя.
func (s *AccountService) List(ctx context.Context, userUID string) ([]*models.TradingAccount, error) {
	const op = "services.account.List"
	if err := s.checkAccess(ctx, userUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	accounts, err := s.repo.ListTradingAccounts(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return accounts, nil
}

// Update изменяет параметры копирования счёта, возвращает число обновлённых строк.
func (s *AccountService) Update(ctx context.Context, userUID string, id int, upd models.DummyTradingAccountUpdate) (int64, error) {
	const op = "services.account.Update"
	if err := s.checkAccess(ctx, userUID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := s.repo.UpdateTradingAccountParams(ctx, userUID, id, upd)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return affected, nil
}

// Remove помечает счёт удалённым.
func (s *AccountService) Remove(ctx context.Context, userUID string, id int) error {
	const op = "services.account.Remove"
	if err := s.checkAccess(ctx, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.SoftDeleteTradingAccount(ctx, userUID, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
