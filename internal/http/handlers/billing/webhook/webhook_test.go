package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/traderelay/traderelay/internal/billing"
)

const testSecret = "test-webhook-secret"

// MockService реализует интерфейс webhook.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) ProcessEvent(ctx context.Context, eventType string, eventAt time.Time, sub *billing.Subscription) error {
	args := m.Called(ctx, eventType, eventAt, sub)
	return args.Error(0)
}

func (m *MockService) LinkCheckoutSession(ctx context.Context, session *billing.CheckoutSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	subscriptionEvent := []byte(`{
		"id": "evt_1",
		"type": "customer.subscription.updated",
		"created": 1767000000,
		"data": {"object": {
			"id": "sub_1",
			"customer": "cus_1",
			"status": "active",
			"items": {"data": [{"price": {"id": "price_pro"}}]}
		}}
	}`)

	checkoutEvent := []byte(`{
		"id": "evt_2",
		"type": "checkout.session.completed",
		"created": 1767000000,
		"data": {"object": {
			"id": "cs_1",
			"customer": "cus_1",
			"mode": "subscription",
			"client_reference_id": "uid-1"
		}}
	}`)

	paymentModeCheckout := []byte(`{
		"id": "evt_3",
		"type": "checkout.session.completed",
		"created": 1767000000,
		"data": {"object": {
			"id": "cs_2",
			"customer": "cus_2",
			"mode": "payment",
			"client_reference_id": "uid-2"
		}}
	}`)

	unknownEvent := []byte(`{
		"id": "evt_4",
		"type": "invoice.paid",
		"created": 1767000000,
		"data": {"object": {}}
	}`)

	tests := []struct {
		name           string
		body           []byte
		signature      string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:      "событие подписки передано синхронизатору",
			body:      subscriptionEvent,
			signature: sign(subscriptionEvent, testSecret),
			setupMock: func(m *MockService) {
				m.On("ProcessEvent", mock.Anything, billing.EventSubscriptionUpdated,
					time.Unix(1767000000, 0).UTC(), mock.AnythingOfType("*billing.Subscription")).
					Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"received":true`,
		},
		{
			name:           "неверная подпись — 400 без изменений состояния",
			body:           subscriptionEvent,
			signature:      "bogus-signature",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"invalid signature"`,
		},
		{
			name:           "отсутствующая подпись — 400 без изменений состояния",
			body:           subscriptionEvent,
			signature:      "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"invalid signature"`,
		},
		{
			name:           "некорректный JSON с валидной подписью — 400",
			body:           []byte("not a json"),
			signature:      sign([]byte("not a json"), testSecret),
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"invalid payload"`,
		},
		{
			name:      "завершённая checkout-сессия связывает покупателя",
			body:      checkoutEvent,
			signature: sign(checkoutEvent, testSecret),
			setupMock: func(m *MockService) {
				m.On("LinkCheckoutSession", mock.Anything, mock.MatchedBy(func(s *billing.CheckoutSession) bool {
					return s.Customer == "cus_1" && s.ClientReferenceID == "uid-1"
				})).Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"received":true`,
		},
		{
			name:           "checkout-сессия с mode=payment игнорируется",
			body:           paymentModeCheckout,
			signature:      sign(paymentModeCheckout, testSecret),
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusOK,
			expectedBody:   `"received":true`,
		},
		{
			name:           "нераспознанный тип события подтверждается",
			body:           unknownEvent,
			signature:      sign(unknownEvent, testSecret),
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusOK,
			expectedBody:   `"received":true`,
		},
		{
			name:      "ошибка синхронизатора — 500, провайдер повторит доставку",
			body:      subscriptionEvent,
			signature: sign(subscriptionEvent, testSecret),
			setupMock: func(m *MockService) {
				m.On("ProcessEvent", mock.Anything, billing.EventSubscriptionUpdated,
					mock.Anything, mock.AnythingOfType("*billing.Subscription")).
					Return(errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"failed to process event"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService, testSecret)

			req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.signature != "" {
				req.Header.Set("X-Billing-Signature", tt.signature)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
