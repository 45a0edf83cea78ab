// Package metrics регистрирует счётчики Prometheus для ключевых операций.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookEvents считает входящие события платёжного провайдера
	// по типу события и результату обработки (processed, ignored, failed).
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traderelay_webhook_events_total",
		Help: "Billing webhook events by type and outcome.",
	}, []string{"event_type", "outcome"})

	// BroadcastEmails считает письма массовой рассылки по результату (success, failed).
	BroadcastEmails = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traderelay_broadcast_emails_total",
		Help: "Broadcast emails by outcome.",
	}, []string{"outcome"})
)
