package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/traderelay/traderelay/internal/lib/jwt"
	"github.com/traderelay/traderelay/internal/lib/password"
	"github.com/traderelay/traderelay/internal/models"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newTestMaker() jwt.Maker {
	return jwt.NewMaker("test_secret_key", 15*time.Minute)
}

func TestAuthService_Register(t *testing.T) {
	t.Run("new user gets trial plan and two week trial period", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			if u.Email != "trader@example.com" || u.Username != "trader" {
				return false
			}
			if u.Role != models.RoleUser || u.PlanName != models.PlanTrial || u.SubscriptionStatus != models.StatusTrialing {
				return false
			}
			if u.TrialEndDate == nil {
				return false
			}
			if u.APIKey == nil || *u.APIKey == "" {
				return false
			}
			wantEnd := time.Now().UTC().AddDate(0, 0, 14)
			return u.TrialEndDate.Sub(wantEnd).Abs() < time.Minute
		})).Return("uid-1", nil).Once()

		service := NewAuthService(repo, newTestMaker())
		uid, err := service.Register(context.Background(), "trader@example.com", "trader", "secret123")

		assert.NoError(t, err)
		assert.Equal(t, "uid-1", uid)
		repo.AssertExpectations(t)
	})

	t.Run("password is stored hashed", func(t *testing.T) {
		repo := new(MockUserRepository)
		var savedHash string
		repo.On("RegisterUser", mock.Anything, mock.AnythingOfType("models.User")).
			Run(func(args mock.Arguments) {
				savedHash = args.Get(1).(models.User).PasswordHash
			}).Return("uid-1", nil).Once()

		service := NewAuthService(repo, newTestMaker())
		_, err := service.Register(context.Background(), "trader@example.com", "trader", "secret123")
		require.NoError(t, err)

		assert.NotEqual(t, "secret123", savedHash)
		assert.NoError(t, password.CompareHash(savedHash, "secret123"))
	})

	t.Run("repository error is propagated", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("RegisterUser", mock.Anything, mock.AnythingOfType("models.User")).
			Return("", errors.New("duplicate email")).Once()

		service := NewAuthService(repo, newTestMaker())
		_, err := service.Register(context.Background(), "trader@example.com", "trader", "secret123")

		assert.Error(t, err)
	})
}

func TestAuthService_Login(t *testing.T) {
	hash, err := password.GetHash("secret123")
	require.NoError(t, err)

	user := &models.User{
		UID:          "uid-1",
		Username:     "trader",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}

	tests := []struct {
		name          string
		username      string
		rawPassword   string
		setupMocks    func(*MockUserRepository)
		expectedRole  string
		expectedError error
	}{
		{
			name:        "correct credentials return token and role",
			username:    "trader",
			rawPassword: "secret123",
			setupMocks: func(r *MockUserRepository) {
				r.On("GetUserByUsername", mock.Anything, "trader").Return(user, nil).Once()
			},
			expectedRole: models.RoleAdmin,
		},
		{
			name:        "wrong password",
			username:    "trader",
			rawPassword: "wrong",
			setupMocks: func(r *MockUserRepository) {
				r.On("GetUserByUsername", mock.Anything, "trader").Return(user, nil).Once()
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:        "unknown user maps to invalid credentials",
			username:    "nobody",
			rawPassword: "secret123",
			setupMocks: func(r *MockUserRepository) {
				r.On("GetUserByUsername", mock.Anything, "nobody").
					Return(nil, errors.New("user not found")).Once()
			},
			expectedError: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.setupMocks(repo)

			maker := newTestMaker()
			service := NewAuthService(repo, maker)
			token, role, err := service.Login(context.Background(), tt.username, tt.rawPassword)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedRole, role)

				claims, err := maker.ParseToken(token)
				require.NoError(t, err)
				assert.Equal(t, "trader", claims.Username)
				assert.Equal(t, models.RoleAdmin, claims.Role)
				assert.Equal(t, "uid-1", claims.UserUID)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	maker := newTestMaker()
	service := NewAuthService(new(MockUserRepository), maker)

	token, err := maker.GenerateToken("trader", "user", "uid-1")
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "trader", claims.Username)

	_, err = service.ValidateToken("broken.token")
	assert.Error(t, err)
}
