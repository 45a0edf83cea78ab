// Package broadcast реализует массовую рассылку писем администратора:
// пачки по 10 параллельных отправок, все отправки доводятся до конца,
// успехи и ошибки подсчитываются независимо.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/traderelay/traderelay/internal/lib/fanout"
	"github.com/traderelay/traderelay/internal/metrics"
	"github.com/traderelay/traderelay/internal/models"
)

// BatchSize число параллельных отправок в одной пачке.
const BatchSize = 10

// UserRepository возвращает адреса получателей рассылки.
type UserRepository interface {
	ListActiveEmails(ctx context.Context) ([]string, error)
}

// Mailer отправляет одно письмо.
type Mailer interface {
	SendEmail(to []string, subject, body string) error
}

// BroadcastService рассылает письма всем активным пользователям.
type BroadcastService struct {
	repo   UserRepository
	mailer Mailer
	log    *slog.Logger
}

// NewBroadcastService создает новый экземпляр BroadcastService.
func NewBroadcastService(repo UserRepository, mailer Mailer, log *slog.Logger) *BroadcastService {
	return &BroadcastService{
		repo:   repo,
		mailer: mailer,
		log:    log,
	}
}

// Broadcast отправляет письмо каждому активному пользователю.
// Ошибка отправки одному получателю не прерывает ни пачку, ни рассылку:
// результат содержит количество успехов, ошибок и список неудачных адресов.
func (s *BroadcastService) Broadcast(ctx context.Context, subject, body string) (*models.BroadcastResult, error) {
	const op = "services.broadcast.Broadcast"

	emails, err := s.repo.ListActiveEmails(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := fanout.Run(emails, BatchSize, func(email string) error {
		return s.mailer.SendEmail([]string{email}, subject, body)
	})

	metrics.BroadcastEmails.WithLabelValues("success").Add(float64(res.Success))
	metrics.BroadcastEmails.WithLabelValues("failed").Add(float64(res.Failed))

	s.log.Info("broadcast finished",
		slog.String("op", op),
		slog.Int("total", res.Total),
		slog.Int("success", res.Success),
		slog.Int("failed", res.Failed))

	return &models.BroadcastResult{
		Total:        res.Total,
		Success:      res.Success,
		Failed:       res.Failed,
		FailedEmails: res.FailedItems,
	}, nil
}

// Виды тестовых писем, отправляемых администратором самому себе.
var testEmailKinds = map[string]struct {
	subject string
	body    string
}{
	"welcome": {
		subject: "TradeRelay test: welcome email",
		body:    "This is a test of the welcome email template.",
	},
	"subscription": {
		subject: "TradeRelay test: subscription state email",
		body:    "This is a test of the subscription state change template.",
	},
	"broadcast": {
		subject: "TradeRelay test: broadcast email",
		body:    "This is a test of the broadcast template.",
	},
}

// TestEmailKinds возвращает известные виды тестовых писем.
func (s *BroadcastService) TestEmailKinds() []string {
	kinds := make([]string, 0, len(testEmailKinds))
	for kind := range testEmailKinds {
		kinds = append(kinds, kind)
	}
	return kinds
}

// SendTestEmails отправляет по одному письму каждого запрошенного вида
// на указанный адрес. Отправки независимы и выполняются параллельно.
func (s *BroadcastService) SendTestEmails(_ context.Context, to string, kinds []string) (*models.BroadcastResult, error) {
	const op = "services.broadcast.SendTestEmails"

	for _, kind := range kinds {
		if _, ok := testEmailKinds[kind]; !ok {
			return nil, fmt.Errorf("%s: unknown test email kind %q", op, kind)
		}
	}

	res := fanout.Run(kinds, len(kinds), func(kind string) error {
		tpl := testEmailKinds[kind]
		return s.mailer.SendEmail([]string{to}, tpl.subject, tpl.body)
	})

	return &models.BroadcastResult{
		Total:        res.Total,
		Success:      res.Success,
		Failed:       res.Failed,
		FailedEmails: res.FailedItems,
	}, nil
}
