// Package traderelay собирает основной HTTP-сервис: хранилище, кэш,
// брокер уведомлений, внешние клиенты и маршруты.
package traderelay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/traderelay/traderelay/internal/assistant"
	"github.com/traderelay/traderelay/internal/billing"
	"github.com/traderelay/traderelay/internal/cache"
	"github.com/traderelay/traderelay/internal/config"
	"github.com/traderelay/traderelay/internal/lib/jwt"
	"github.com/traderelay/traderelay/internal/lib/smtp"
	"github.com/traderelay/traderelay/internal/lib/sl"
	"github.com/traderelay/traderelay/internal/migrations"
	"github.com/traderelay/traderelay/internal/rabbitmq"
	accountservice "github.com/traderelay/traderelay/internal/services/account"
	authservice "github.com/traderelay/traderelay/internal/services/auth"
	billingservice "github.com/traderelay/traderelay/internal/services/billing"
	broadcastservice "github.com/traderelay/traderelay/internal/services/broadcast"
	chatservice "github.com/traderelay/traderelay/internal/services/chat"
	senderservice "github.com/traderelay/traderelay/internal/services/sender"
	"github.com/traderelay/traderelay/internal/storage/repository"
)

// App основной HTTP-сервис.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	amqp   *amqp.Connection
}

// New создает приложение: подключает зависимости, прогоняет миграции
// и регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	billingClient := billing.NewClient(cfg.BillingAPIURL, cfg.BillingAPIKey)
	assistantClient := assistant.NewClient(cfg.AssistantAPIURL, cfg.AssistantAPIKey, cfg.AssistantID)

	jwtMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewAuthService(db, jwtMaker)

	publisher := rabbitmq.NewChannelPublisher(ch)
	syncService := billingservice.NewSyncService(db, publisher, cfg.PlanPrices, logger)
	checkoutService := billingservice.NewCheckoutService(billingClient, db, cfg.Billing, logger)

	accountService := accountservice.NewAccountService(db, logger)
	chatService := chatservice.NewChatService(assistantClient, cacheRedis, cfg.Assistant, logger)

	senderService := senderservice.NewSenderService(smtp.NewTransport(cfg, logger), logger)
	broadcastService := broadcastservice.NewBroadcastService(db, senderService, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Storage:   db,
		Auth:      authService,
		Sync:      syncService,
		Checkout:  checkoutService,
		Accounts:  accountService,
		Chat:      chatService,
		Broadcast: broadcastService,
	}, cfg.BillingWebhookSecret)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		amqp:   conn,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.amqp.Close(); cerr != nil {
			a.logger.Error("failed to close amqp connection", sl.Err(cerr))
		}
		a.db.DB.Close()
		return err
	}
}
