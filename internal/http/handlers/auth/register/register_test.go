package register

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
)

// MockService реализует интерфейс register.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	args := m.Called(ctx, email, username, rawPassword)
	return args.String(0), args.Error(1)
}

func TestRegisterHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная регистрация",
			requestBody: Request{
				Email:    "trader@example.com",
				Username: "trader1",
				Password: "secret123",
			},
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, "trader@example.com", "trader1", "secret123").
					Return("uid-1", nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"uid":"uid-1"`,
		},
		{
			name:           "некорректный JSON",
			requestBody:    "not a json",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"invalid request body"`,
		},
		{
			name: "невалидный email",
			requestBody: Request{
				Email:    "not-an-email",
				Username: "trader1",
				Password: "secret123",
			},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field Email must be a valid email",
		},
		{
			name: "короткий пароль",
			requestBody: Request{
				Email:    "trader@example.com",
				Username: "trader1",
				Password: "short",
			},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field Password",
		},
		{
			name: "ошибка сервиса",
			requestBody: Request{
				Email:    "trader@example.com",
				Username: "trader1",
				Password: "secret123",
			},
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, "trader@example.com", "trader1", "secret123").
					Return("", errors.New("duplicate email")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"could not register user"`,
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

			req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
