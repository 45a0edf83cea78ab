package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/traderelay/traderelay/internal/models"
)

const userColumns = `uid, email, username, password_hash, role, plan_name,
			      subscription_status, billing_customer_id, billing_subscription_id,
			      last_event_at, trial_end_date, api_key, server_ip, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var billingCustomerID, billingSubscriptionID, apiKey, serverIP sql.NullString
	var lastEventAt, trialEndDate sql.NullTime
	if err := row.Scan(&u.UID, &u.Email, &u.Username, &u.PasswordHash, &u.Role,
		&u.PlanName, &u.SubscriptionStatus, &billingCustomerID, &billingSubscriptionID,
		&lastEventAt, &trialEndDate, &apiKey, &serverIP, &u.CreatedAt); err != nil {
		return nil, err
	}
	if billingCustomerID.Valid {
		u.BillingCustomerID = &billingCustomerID.String
	}
	if billingSubscriptionID.Valid {
		u.BillingSubscriptionID = &billingSubscriptionID.String
	}
	if lastEventAt.Valid {
		u.LastEventAt = &lastEventAt.Time
	}
	if trialEndDate.Valid {
		u.TrialEndDate = &trialEndDate.Time
	}
	if apiKey.Valid {
		u.APIKey = &apiKey.String
	}
	if serverIP.Valid {
		u.ServerIP = &serverIP.String
	}
	return u, nil
}

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO users (email, username, password_hash, role, plan_name,
			      subscription_status, trial_end_date, api_key)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role, user.PlanName,
		user.SubscriptionStatus, user.TrialEndDate, user.APIKey).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE username = $1 AND deleted_at IS NULL`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE uid = $1 AND deleted_at IS NULL`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByBillingCustomerID возвращает пользователя по ID покупателя
// у платёжного провайдера. Отсутствие такого пользователя — ошибка:
// провайдер доставил событие для неизвестного покупателя.
func (s *Storage) GetUserByBillingCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	const op = "storage.GetUserByBillingCustomerID"
	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE billing_customer_id = $1 AND deleted_at IS NULL`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, customerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SetBillingCustomerID связывает пользователя с покупателем платёжного провайдера.
func (s *Storage) SetBillingCustomerID(ctx context.Context, userUID, customerID string) error {
	const op = "storage.SetBillingCustomerID"
	query := `UPDATE users
			  SET billing_customer_id = $1
			  WHERE uid = $2 AND deleted_at IS NULL`
	res, err := s.DB.ExecContext(ctx, query, customerID, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// ApplySubscriptionState перезаписывает тариф и статус подписки пользователя
// одним UPDATE. Обновление применяется только если событие не старше последнего
// применённого (last_event_at): устаревшая доставка даёт 0 затронутых строк,
// что возвращается вызывающему как applied = false.
func (s *Storage) ApplySubscriptionState(ctx context.Context, customerID, planName, status, subscriptionID string, eventAt time.Time) (bool, error) {
	const op = "storage.ApplySubscriptionState"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET plan_name = $1,
			      subscription_status = $2,
			      billing_subscription_id = $3,
			      last_event_at = $4
			  WHERE billing_customer_id = $5
			    AND deleted_at IS NULL
			    AND (last_event_at IS NULL OR last_event_at <= $4)`
	res, err := s.DB.ExecContext(ctx, query, planName, status, subscriptionID, eventAt, customerID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected > 0, nil
}

// ListActiveEmails возвращает адреса всех не удалённых пользователей
// для массовой рассылки.
func (s *Storage) ListActiveEmails(ctx context.Context) ([]string, error) {
	const op = "storage.ListActiveEmails"
	rows, err := s.DB.QueryContext(ctx, `SELECT email FROM users WHERE deleted_at IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []string
	for rows.Next() {
		var email string
		if err = rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, email)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListUsers возвращает страницу пользователей для админ-консоли.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE deleted_at IS NULL
			  ORDER BY created_at
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AdminUpdateUser изменяет административные поля пользователя.
// Передача nil оставляет поле без изменений.
func (s *Storage) AdminUpdateUser(ctx context.Context, userUID string, role, planName, status, apiKey, serverIP *string) error {
	const op = "storage.AdminUpdateUser"
	query := `UPDATE users
			  SET role = COALESCE($1, role),
			      plan_name = COALESCE($2, plan_name),
			      subscription_status = COALESCE($3, subscription_status),
			      api_key = COALESCE($4, api_key),
			      server_ip = COALESCE($5, server_ip)
			  WHERE uid = $6 AND deleted_at IS NULL`
	res, err := s.DB.ExecContext(ctx, query, role, planName, status, apiKey, serverIP, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// SoftDeleteUser помечает пользователя удалённым. Строка не удаляется.
func (s *Storage) SoftDeleteUser(ctx context.Context, userUID string) error {
	const op = "storage.SoftDeleteUser"
	query := `UPDATE users
			  SET deleted_at = NOW()
			  WHERE uid = $1 AND deleted_at IS NULL`
	res, err := s.DB.ExecContext(ctx, query, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}
