// Package models содержит доменные модели: пользователи, торговые счета
// и вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Роли пользователей системы.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// Статусы подписки пользователя. Статусы платёжного провайдера
// записываются как есть, перечислены только используемые в логике доступа.
const (
	StatusActive        = "active"
	StatusTrialing      = "trialing"
	StatusAdminAssigned = "admin_assigned"
	StatusPaused        = "paused"
	StatusCanceled      = "canceled"
)

// Тарифные планы. Доступ к торговым счетам открывают PlanPro и PlanPremium.
const (
	PlanTrial   = "trial"
	PlanPro     = "pro"
	PlanPremium = "premium"
)

// User представляет зарегистрированного пользователя системы.
// PlanName и SubscriptionStatus перезаписываются синхронизатором при каждом
// обработанном событии провайдера; LastEventAt хранит время последнего
// применённого события и защищает от применения устаревших доставок.
type User struct {
	UID                  string     // Уникальный идентификатор пользователя
	Email                string     // Электронная почта
	Username             string     // Имя пользователя (уникальное)
	PasswordHash         string     // Хэш пароля пользователя
	Role                 string     // Роль: user, admin или superadmin
	PlanName             string     // Текущий тариф
	SubscriptionStatus   string     // Текущий статус подписки
	BillingCustomerID    *string    // ID покупателя у платёжного провайдера
	BillingSubscriptionID *string   // ID подписки у платёжного провайдера
	LastEventAt          *time.Time // Время последнего применённого события провайдера
	TrialEndDate         *time.Time // Дата истечения пробного периода
	APIKey               *string    // Ключ доступа к копировщику (опционально)
	ServerIP             *string    // IP выделенного сервера (опционально)
	CreatedAt            time.Time
	DeletedAt            *time.Time // Мягкое удаление
}

// CanManageUsers сообщает, достаточно ли роли для доступа к админ-консоли.
func CanManageUsers(role string) bool {
	return role == RoleAdmin || role == RoleSuperadmin
}

// CanAssignRoles сообщает, достаточно ли роли для смены ролей других пользователей.
func CanAssignRoles(role string) bool {
	return role == RoleSuperadmin
}

// HasTradingAccess проверяет, открывает ли пара тариф/статус доступ
// к API торговых счетов.
func HasTradingAccess(planName, status string) bool {
	if planName != PlanPro && planName != PlanPremium {
		return false
	}
	switch status {
	case StatusActive, StatusTrialing, StatusAdminAssigned:
		return true
	}
	return false
}
