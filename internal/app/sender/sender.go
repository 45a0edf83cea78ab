// Package sender собирает воркер отправки писем: он потребляет события
// изменения состояния подписки из очереди и шлёт пользователям уведомления.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/traderelay/traderelay/internal/config"
	"github.com/traderelay/traderelay/internal/lib/smtp"
	"github.com/traderelay/traderelay/internal/rabbitmq"
	senderservice "github.com/traderelay/traderelay/internal/services/sender"
)

// App воркер отправки почтовых уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New создает воркер и подключает его к брокеру.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	newTransport := smtp.NewTransport(cfg, logger)
	senderService := senderservice.NewSenderService(newTransport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребление очереди до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.StateChangeQueue, a.senderService.HandleStateChange)
	if err != nil {
		a.logger.Error("failed to start state change consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
