package create

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/traderelay/traderelay/internal/http/middlewarectx"
	"github.com/traderelay/traderelay/internal/models"
	accountservice "github.com/traderelay/traderelay/internal/services/account"
	"github.com/traderelay/traderelay/internal/storage/repository"
)

// MockService реализует интерфейс create.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, userUID string, req models.DummyTradingAccount) (int, error) {
	args := m.Called(ctx, userUID, req)
	return args.Int(0), args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	validRequest := models.DummyTradingAccount{
		AccountNumber: "1000001",
		Platform:      "mt5",
		Server:        "Broker-Demo",
		Password:      "secret",
		AccountType:   "slave",
	}

	tests := []struct {
		name           string
		requestBody    interface{}
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "успешное подключение счёта",
			requestBody: validRequest,
			userUID:     "uid-1",
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "uid-1", mock.AnythingOfType("models.DummyTradingAccount")).
					Return(7, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"id":7`,
		},
		{
			name: "неподдерживаемая платформа",
			requestBody: models.DummyTradingAccount{
				AccountNumber: "1000001",
				Platform:      "ctrader",
				Server:        "Broker-Demo",
				Password:      "secret",
				AccountType:   "slave",
			},
			userUID:        "uid-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field Platform must be one of: mt4 mt5",
		},
		{
			name:           "отсутствует авторизация",
			requestBody:    validRequest,
			userUID:        "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"unauthorized"`,
		},
		{
			name:        "тариф не даёт доступа",
			requestBody: validRequest,
			userUID:     "uid-1",
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "uid-1", mock.AnythingOfType("models.DummyTradingAccount")).
					Return(0, accountservice.ErrPlanRequired).Once()
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   "subscription plan does not allow",
		},
		{
			name:        "дубликат номера счёта",
			requestBody: validRequest,
			userUID:     "uid-1",
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "uid-1", mock.AnythingOfType("models.DummyTradingAccount")).
					Return(0, repository.ErrDuplicateAccount).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   "trading account already exists",
		},
		{
			name:        "ошибка сервиса",
			requestBody: validRequest,
			userUID:     "uid-1",
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "uid-1", mock.AnythingOfType("models.DummyTradingAccount")).
					Return(0, errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "could not create trading account",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				assert.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			if tt.userUID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID))
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
