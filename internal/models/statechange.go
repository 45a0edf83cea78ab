package models

import "time"

// StateChange описывает применённое изменение подписки пользователя.
// Публикуется синхронизатором в очередь уведомлений и потребляется
// сервисом отправки писем. Доставка best-effort: ошибка публикации
// не влияет на результат обработки webhook.
type StateChange struct {
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	PlanName  string    `json:"plan_name"`
	Status    string    `json:"status"`
	EventType string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BroadcastResult агрегирует результат массовой рассылки:
// сколько писем отправлено, сколько не удалось и кому именно.
type BroadcastResult struct {
	Total        int      `json:"total"`
	Success      int      `json:"success"`
	Failed       int      `json:"failed"`
	FailedEmails []string `json:"failed_emails,omitempty"`
}
