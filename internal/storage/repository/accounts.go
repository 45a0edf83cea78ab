package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/traderelay/traderelay/internal/models"
)

const accountColumns = `id, user_uid, account_number, platform, server, password,
			      account_type, status, lot_coefficient, force_lot, reverse_trade,
			      connected_to_master, created_at`

func scanAccount(row interface{ Scan(...any) error }) (*models.TradingAccount, error) {
	a := &models.TradingAccount{}
	if err := row.Scan(&a.ID, &a.UserUID, &a.AccountNumber, &a.Platform, &a.Server,
		&a.Password, &a.AccountType, &a.Status, &a.LotCoefficient, &a.ForceLot,
		&a.ReverseTrade, &a.ConnectedToMaster, &a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateTradingAccount сохраняет новый торговый счёт и возвращает его ID.
// Повторный номер счёта среди живых записей пользователя даёт ErrDuplicateAccount.
func (s *Storage) CreateTradingAccount(ctx context.Context, a models.TradingAccount) (int, error) {
	const op = "storage.CreateTradingAccount"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO trading_accounts (user_uid, account_number, platform, server,
			      password, account_type, status, lot_coefficient, force_lot,
			      reverse_trade, connected_to_master)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  RETURNING id;`
	err := s.DB.QueryRowContext(ctx, query,
		a.UserUID, a.AccountNumber, a.Platform, a.Server, a.Password, a.AccountType,
		a.Status, a.LotCoefficient, a.ForceLot, a.ReverseTrade, a.ConnectedToMaster).Scan(&newID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%s: %w", op, ErrDuplicateAccount)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListTradingAccounts возвращает живые торговые счета пользователя.
func (s *Storage) ListTradingAccounts(ctx context.Context, userUID string) ([]*models.TradingAccount, error) {
	const op = "storage.ListTradingAccounts"
	query := `SELECT ` + accountColumns + `
			  FROM trading_accounts
			  WHERE user_uid = $1 AND deleted_at IS NULL
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.TradingAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetTradingAccount возвращает живой торговый счёт по ID в рамках пользователя.
func (s *Storage) GetTradingAccount(ctx context.Context, userUID string, id int) (*models.TradingAccount, error) {
	const op = "storage.GetTradingAccount"
	query := `SELECT ` + accountColumns + `
			  FROM trading_accounts
			  WHERE id = $1 AND user_uid = $2 AND deleted_at IS NULL`
	a, err := scanAccount(s.DB.QueryRowContext(ctx, query, id, userUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// UpdateTradingAccountParams изменяет параметры копирования счёта.
// Передача nil оставляет поле без изменений.
func (s *Storage) UpdateTradingAccountParams(ctx context.Context, userUID string, id int, upd models.DummyTradingAccountUpdate) (int64, error) {
	const op = "storage.UpdateTradingAccountParams"
	query := `UPDATE trading_accounts
			  SET lot_coefficient = COALESCE($1, lot_coefficient),
			      force_lot = COALESCE($2, force_lot),
			      reverse_trade = COALESCE($3, reverse_trade),
			      connected_to_master = COALESCE($4, connected_to_master)
			  WHERE id = $5 AND user_uid = $6 AND deleted_at IS NULL`
	res, err := s.DB.ExecContext(ctx, query,
		upd.LotCoefficient, upd.ForceLot, upd.ReverseTrade, upd.ConnectedToMaster, id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return affected, nil
}

// SoftDeleteTradingAccount помечает счёт удалённым.
func (s *Storage) SoftDeleteTradingAccount(ctx context.Context, userUID string, id int) error {
	const op = "storage.SoftDeleteTradingAccount"
	query := `UPDATE trading_accounts
			  SET deleted_at = NOW()
			  WHERE id = $1 AND user_uid = $2 AND deleted_at IS NULL`
	res, err := s.DB.ExecContext(ctx, query, id, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrAccountNotFound)
	}
	return nil
}
