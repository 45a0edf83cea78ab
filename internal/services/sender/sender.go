// Package sender реализует отправку писем: транзакционные уведомления
// об изменении состояния подписки из очереди и прямую отправку для рассылок.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/traderelay/traderelay/internal/billing"
	"github.com/traderelay/traderelay/internal/lib/sl"
	smtplib "github.com/traderelay/traderelay/internal/lib/smtp"
	"github.com/traderelay/traderelay/internal/models"
)

// Transport описывает контракт SMTP транспорта.
type Transport interface {
	Connect() (smtplib.Client, error)
	GetSMTPUser() string
}

// SenderService отправляет письма через SMTP транспорт.
type SenderService struct {
	transport Transport
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport Transport, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// HandleStateChange обрабатывает сообщение очереди об изменении состояния
// подписки и отправляет пользователю соответствующее письмо.
func (s *SenderService) HandleStateChange(body []byte) error {
	var change models.StateChange
	if err := json.Unmarshal(body, &change); err != nil {
		s.log.Error("failed to unmarshal state change", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject, bodyText := composeStateChangeEmail(change)
	return s.SendEmail([]string{change.Email}, subject, bodyText)
}

func composeStateChangeEmail(change models.StateChange) (subject, body string) {
	switch change.EventType {
	case billing.EventSubscriptionCreated, billing.EventSubscriptionResumed:
		subject = "Your TradeRelay subscription is active"
		body = fmt.Sprintf("Hello, %s!\n\nYour %s plan is now %s. Happy trading!",
			change.Username, change.PlanName, change.Status)
	case billing.EventSubscriptionTrialWillEnd:
		subject = "Your TradeRelay trial is ending soon"
		body = fmt.Sprintf("Hello, %s!\n\nYour trial of the %s plan ends in a few days. Add a payment method to keep copying trades.",
			change.Username, change.PlanName)
	case billing.EventSubscriptionPaused:
		subject = "Your TradeRelay subscription is paused"
		body = fmt.Sprintf("Hello, %s!\n\nYour %s plan has been paused. Trade copying is suspended until you resume it.",
			change.Username, change.PlanName)
	case billing.EventSubscriptionDeleted:
		subject = "Your TradeRelay subscription is canceled"
		body = fmt.Sprintf("Hello, %s!\n\nYour %s plan has been canceled. You can re-subscribe at any time from the dashboard.",
			change.Username, change.PlanName)
	default:
		subject = "Your TradeRelay subscription was updated"
		body = fmt.Sprintf("Hello, %s!\n\nYour subscription is now on the %s plan with status %s.",
			change.Username, change.PlanName, change.Status)
	}
	return subject, body
}

// SendEmail отправляет одно письмо указанным получателям.
func (s *SenderService) SendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	_, err = wc.Write([]byte(msg))
	if err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
