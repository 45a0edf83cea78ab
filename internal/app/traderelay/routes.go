// Package traderelay предоставляет маршруты основного приложения.
package traderelay

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	accountcreate "github.com/traderelay/traderelay/internal/http/handlers/account/create"
	accountlist "github.com/traderelay/traderelay/internal/http/handlers/account/list"
	accountremove "github.com/traderelay/traderelay/internal/http/handlers/account/remove"
	accountupdate "github.com/traderelay/traderelay/internal/http/handlers/account/update"
	adminbroadcast "github.com/traderelay/traderelay/internal/http/handlers/admin/broadcast"
	admintestemail "github.com/traderelay/traderelay/internal/http/handlers/admin/testemail"
	adminuserremove "github.com/traderelay/traderelay/internal/http/handlers/admin/userremove"
	adminuserupdate "github.com/traderelay/traderelay/internal/http/handlers/admin/userupdate"
	adminusers "github.com/traderelay/traderelay/internal/http/handlers/admin/users"
	"github.com/traderelay/traderelay/internal/http/handlers/auth/login"
	"github.com/traderelay/traderelay/internal/http/handlers/auth/register"
	billingcheckout "github.com/traderelay/traderelay/internal/http/handlers/billing/checkout"
	billingwebhook "github.com/traderelay/traderelay/internal/http/handlers/billing/webhook"
	chatmessage "github.com/traderelay/traderelay/internal/http/handlers/chat/message"
	"github.com/traderelay/traderelay/internal/http/handlers/health"
	"github.com/traderelay/traderelay/internal/http/middlewarectx"
	accountservice "github.com/traderelay/traderelay/internal/services/account"
	authservice "github.com/traderelay/traderelay/internal/services/auth"
	billingservice "github.com/traderelay/traderelay/internal/services/billing"
	broadcastservice "github.com/traderelay/traderelay/internal/services/broadcast"
	chatservice "github.com/traderelay/traderelay/internal/services/chat"
	"github.com/traderelay/traderelay/internal/storage/repository"
)

// Services собирает сервисы, необходимые маршрутам приложения.
type Services struct {
	Storage   *repository.Storage
	Auth      *authservice.AuthService
	Sync      *billingservice.SyncService
	Checkout  *billingservice.CheckoutService
	Accounts  *accountservice.AccountService
	Chat      *chatservice.ChatService
	Broadcast *broadcastservice.BroadcastService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s *Services, webhookSecret string) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
		r.Get("/health", health.New(logger, s.Storage).ServeHTTP)

		// Webhook endpoint (без аутентификации, проверяется подпись)
		r.Post("/billing/webhook", billingwebhook.New(logger, s.Sync, webhookSecret).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/billing/checkout", billingcheckout.New(logger, s.Checkout).ServeHTTP)

			r.Post("/accounts", accountcreate.New(logger, s.Accounts).ServeHTTP)
			r.Get("/accounts", accountlist.New(logger, s.Accounts).ServeHTTP)
			r.Put("/accounts/{id}", accountupdate.New(logger, s.Accounts).ServeHTTP)
			r.Delete("/accounts/{id}", accountremove.New(logger, s.Accounts).ServeHTTP)

			r.Post("/chat", chatmessage.New(logger, s.Chat).ServeHTTP)
			r.Post("/chat/reset", chatmessage.NewReset(logger, s.Chat).ServeHTTP)

			// Админ-консоль
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireAdmin(logger))
				r.Get("/admin/users", adminusers.New(logger, s.Storage).ServeHTTP)
				r.Patch("/admin/users/{uid}", adminuserupdate.New(logger, s.Storage).ServeHTTP)
				r.Delete("/admin/users/{uid}", adminuserremove.New(logger, s.Storage).ServeHTTP)
				r.Post("/admin/broadcast", adminbroadcast.New(logger, s.Broadcast).ServeHTTP)
				r.Post("/admin/test-email", admintestemail.New(logger, s.Broadcast).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
