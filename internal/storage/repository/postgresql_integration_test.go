package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traderelay/traderelay/internal/models"
)

func TestStorage_RegisterAndGetUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	trialEnd := time.Now().UTC().AddDate(0, 0, 14)
	uid, err := storage.RegisterUser(context.Background(), models.User{
		Email:              "trader@example.com",
		Username:           "trader",
		PasswordHash:       "hashedpassword",
		Role:               models.RoleUser,
		PlanName:           models.PlanTrial,
		SubscriptionStatus: models.StatusTrialing,
		TrialEndDate:       &trialEnd,
	})
	require.NoError(t, err)
	require.NotEmpty(t, uid)

	byUID, err := storage.GetUser(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, "trader", byUID.Username)
	assert.Equal(t, models.PlanTrial, byUID.PlanName)
	assert.Equal(t, models.StatusTrialing, byUID.SubscriptionStatus)
	require.NotNil(t, byUID.TrialEndDate)

	byName, err := storage.GetUserByUsername(context.Background(), "trader")
	require.NoError(t, err)
	assert.Equal(t, uid, byName.UID)

	_, err = storage.GetUser(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStorage_ApplySubscriptionState(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	uid := factory.CreateSubscriber(t, "trader", "trader@example.com", "cus_1",
		models.PlanTrial, models.StatusTrialing, nil)

	t1 := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	t.Run("first event is applied", func(t *testing.T) {
		applied, err := storage.ApplySubscriptionState(ctx, "cus_1", models.PlanPro, models.StatusActive, "sub_1", t1)
		require.NoError(t, err)
		assert.True(t, applied)

		user, err := storage.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, models.PlanPro, user.PlanName)
		assert.Equal(t, models.StatusActive, user.SubscriptionStatus)
		require.NotNil(t, user.LastEventAt)
		assert.True(t, user.LastEventAt.Equal(t1))
	})

	t.Run("newer event overwrites state", func(t *testing.T) {
		applied, err := storage.ApplySubscriptionState(ctx, "cus_1", models.PlanPremium, models.StatusActive, "sub_1", t2)
		require.NoError(t, err)
		assert.True(t, applied)

		user, err := storage.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, models.PlanPremium, user.PlanName)
	})

	t.Run("stale event does not roll state back", func(t *testing.T) {
		applied, err := storage.ApplySubscriptionState(ctx, "cus_1", models.PlanPro, models.StatusCanceled, "sub_1", t1)
		require.NoError(t, err)
		assert.False(t, applied)

		user, err := storage.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, models.PlanPremium, user.PlanName)
		assert.Equal(t, models.StatusActive, user.SubscriptionStatus)
	})

	t.Run("replay of the applied event is a no-op", func(t *testing.T) {
		// Событие с тем же временем проходит условие, но состояние не меняется.
		applied, err := storage.ApplySubscriptionState(ctx, "cus_1", models.PlanPremium, models.StatusActive, "sub_1", t2)
		require.NoError(t, err)
		assert.True(t, applied)

		user, err := storage.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, models.PlanPremium, user.PlanName)
	})

	t.Run("unknown customer affects nothing", func(t *testing.T) {
		applied, err := storage.ApplySubscriptionState(ctx, "cus_unknown", models.PlanPro, models.StatusActive, "sub_2", t2)
		require.NoError(t, err)
		assert.False(t, applied)
	})
}

func TestStorage_SetBillingCustomerID(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	uid := factory.CreateUser(t, "trader", "trader@example.com", models.RoleUser)

	require.NoError(t, storage.SetBillingCustomerID(ctx, uid, "cus_42"))

	user, err := storage.GetUserByBillingCustomerID(ctx, "cus_42")
	require.NoError(t, err)
	assert.Equal(t, uid, user.UID)

	err = storage.SetBillingCustomerID(ctx, uuid.New().String(), "cus_43")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStorage_AdminUpdateAndSoftDelete(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	uid := factory.CreateUser(t, "trader", "trader@example.com", models.RoleUser)

	plan := models.PlanPro
	status := models.StatusAdminAssigned
	apiKey := "key-123"
	require.NoError(t, storage.AdminUpdateUser(ctx, uid, nil, &plan, &status, &apiKey, nil))

	user, err := storage.GetUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role) // nil оставляет поле без изменений
	assert.Equal(t, models.PlanPro, user.PlanName)
	assert.Equal(t, models.StatusAdminAssigned, user.SubscriptionStatus)
	require.NotNil(t, user.APIKey)
	assert.Equal(t, "key-123", *user.APIKey)

	require.NoError(t, storage.SoftDeleteUser(ctx, uid))

	_, err = storage.GetUser(ctx, uid)
	assert.ErrorIs(t, err, ErrUserNotFound)

	// Повторное удаление того же пользователя — ошибка "не найден".
	assert.ErrorIs(t, storage.SoftDeleteUser(ctx, uid), ErrUserNotFound)
}

func TestStorage_ListActiveEmails(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	factory.CreateUser(t, "user1", "user1@example.com", models.RoleUser)
	factory.CreateUser(t, "user2", "user2@example.com", models.RoleUser)
	deletedUID := factory.CreateUser(t, "user3", "user3@example.com", models.RoleUser)
	require.NoError(t, storage.SoftDeleteUser(ctx, deletedUID))

	emails, err := storage.ListActiveEmails(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user1@example.com", "user2@example.com"}, emails)
}

func TestStorage_ListUsers(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)

	for i := 0; i < 5; i++ {
		factory.CreateUser(t,
			"user"+string(rune('a'+i)),
			"user"+string(rune('a'+i))+"@example.com",
			models.RoleUser)
	}

	page, err := storage.ListUsers(context.Background(), 3, 0)
	require.NoError(t, err)
	assert.Len(t, page, 3)

	rest, err := storage.ListUsers(context.Background(), 3, 3)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestStorage_TradingAccounts(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	uid := factory.CreateUser(t, "trader", "trader@example.com", models.RoleUser)

	id, err := storage.CreateTradingAccount(ctx, models.TradingAccount{
		UserUID:        uid,
		AccountNumber:  "1000001",
		Platform:       "mt5",
		Server:         "Broker-Demo",
		Password:       "secret",
		AccountType:    models.AccountTypeSlave,
		Status:         "pending",
		LotCoefficient: 1,
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	t.Run("duplicate live account number is rejected", func(t *testing.T) {
		_, err := storage.CreateTradingAccount(ctx, models.TradingAccount{
			UserUID:        uid,
			AccountNumber:  "1000001",
			Platform:       "mt4",
			Server:         "Broker-Demo2",
			Password:       "secret",
			AccountType:    models.AccountTypeSlave,
			Status:         "pending",
			LotCoefficient: 1,
		})
		assert.ErrorIs(t, err, ErrDuplicateAccount)
	})

	t.Run("list returns only live accounts of the owner", func(t *testing.T) {
		otherUID := factory.CreateUser(t, "other", "other@example.com", models.RoleUser)
		factory.CreateTradingAccount(t, otherUID, "2000001")

		accounts, err := storage.ListTradingAccounts(ctx, uid)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "1000001", accounts[0].AccountNumber)
	})

	t.Run("update params touches only given fields", func(t *testing.T) {
		coeff := 2.5
		reverse := true
		affected, err := storage.UpdateTradingAccountParams(ctx, uid, id, models.DummyTradingAccountUpdate{
			LotCoefficient: &coeff,
			ReverseTrade:   &reverse,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		acc, err := storage.GetTradingAccount(ctx, uid, id)
		require.NoError(t, err)
		assert.Equal(t, 2.5, acc.LotCoefficient)
		assert.True(t, acc.ReverseTrade)
		assert.Equal(t, "mt5", acc.Platform)
	})

	t.Run("soft delete frees the account number", func(t *testing.T) {
		require.NoError(t, storage.SoftDeleteTradingAccount(ctx, uid, id))

		_, err := storage.GetTradingAccount(ctx, uid, id)
		assert.ErrorIs(t, err, ErrAccountNotFound)

		// Номер освободился: новый счёт с тем же номером создаётся.
		_, err = storage.CreateTradingAccount(ctx, models.TradingAccount{
			UserUID:        uid,
			AccountNumber:  "1000001",
			Platform:       "mt5",
			Server:         "Broker-Demo",
			Password:       "secret",
			AccountType:    models.AccountTypeSlave,
			Status:         "pending",
			LotCoefficient: 1,
		})
		assert.NoError(t, err)
	})
}
