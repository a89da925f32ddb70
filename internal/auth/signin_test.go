package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/carclub/internal/db"
	"github.com/ukydev/carclub/internal/models"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func demoUser(t *testing.T, svc *Service) *models.User {
	t.Helper()
	hash, err := svc.HashPassword(DemoPassword)
	require.NoError(t, err)
	u := testUser()
	u.PasswordHash = hash
	u.IsActive = true
	return u
}

func TestSignIn(t *testing.T) {
	svc := NewService("secret", time.Hour)
	user := demoUser(t, svc)

	t.Run("demo credentials", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("FindUserByEmail", mock.Anything, DemoEmail).Return(user, nil)
		store.On("UpdateLastLogin", mock.Anything, user.ID.Hex()).Return(nil)

		resp, err := NewAuthenticator(svc, store, 0).SignIn(context.Background(), models.LoginRequest{
			Email:    "  Test@Example.com ",
			Password: DemoPassword,
		})
		require.NoError(t, err)
		assert.Equal(t, user.Email, resp.User.Email)

		claims, err := svc.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID.Hex(), claims.UserID)
		store.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("FindUserByEmail", mock.Anything, DemoEmail).Return(user, nil)

		_, err := NewAuthenticator(svc, store, 0).SignIn(context.Background(), models.LoginRequest{
			Email:    DemoEmail,
			Password: "password124",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		store.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("FindUserByEmail", mock.Anything, "who@example.com").Return(nil, fmt.Errorf("user: %w", db.ErrNotFound))

		_, err := NewAuthenticator(svc, store, 0).SignIn(context.Background(), models.LoginRequest{
			Email:    "who@example.com",
			Password: DemoPassword,
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("store failure is passed through", func(t *testing.T) {
		boom := errors.New("connection reset")
		store := new(MockUserStore)
		store.On("FindUserByEmail", mock.Anything, DemoEmail).Return(nil, boom)

		_, err := NewAuthenticator(svc, store, 0).SignIn(context.Background(), models.LoginRequest{
			Email:    DemoEmail,
			Password: DemoPassword,
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("inactive user", func(t *testing.T) {
		inactive := *user
		inactive.IsActive = false
		store := new(MockUserStore)
		store.On("FindUserByEmail", mock.Anything, DemoEmail).Return(&inactive, nil)

		_, err := NewAuthenticator(svc, store, 0).SignIn(context.Background(), models.LoginRequest{
			Email:    DemoEmail,
			Password: DemoPassword,
		})
		assert.ErrorIs(t, err, ErrUserInactive)
	})

	t.Run("last login failure does not block sign-in", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("FindUserByEmail", mock.Anything, DemoEmail).Return(user, nil)
		store.On("UpdateLastLogin", mock.Anything, user.ID.Hex()).Return(errors.New("write failed"))

		resp, err := NewAuthenticator(svc, store, 0).SignIn(context.Background(), models.LoginRequest{
			Email:    DemoEmail,
			Password: DemoPassword,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("validation happens before lookup", func(t *testing.T) {
		store := new(MockUserStore)
		a := NewAuthenticator(svc, store, time.Hour)

		_, err := a.SignIn(context.Background(), models.LoginRequest{Email: "nope", Password: DemoPassword})
		assert.ErrorIs(t, err, ErrInvalidEmail)

		_, err = a.SignIn(context.Background(), models.LoginRequest{Email: DemoEmail, Password: "short"})
		assert.ErrorIs(t, err, ErrPasswordTooShort)

		store.AssertNotCalled(t, "FindUserByEmail", mock.Anything, mock.Anything)
	})
}

func TestSignInDelay(t *testing.T) {
	svc := NewService("secret", time.Hour)
	user := demoUser(t, svc)

	t.Run("waits before answering", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("FindUserByEmail", mock.Anything, DemoEmail).Return(user, nil)
		store.On("UpdateLastLogin", mock.Anything, mock.Anything).Return(nil)

		start := time.Now()
		_, err := NewAuthenticator(svc, store, 50*time.Millisecond).SignIn(context.Background(), models.LoginRequest{
			Email:    DemoEmail,
			Password: DemoPassword,
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		store := new(MockUserStore)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := NewAuthenticator(svc, store, time.Minute).SignIn(ctx, models.LoginRequest{
			Email:    DemoEmail,
			Password: DemoPassword,
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		store.AssertNotCalled(t, "FindUserByEmail", mock.Anything, mock.Anything)
	})
}

func TestSeedDemoUser(t *testing.T) {
	ctx := context.Background()
	svc := NewService("secret", time.Hour)
	users := db.NewMemoryUserCollection()

	seeded, err := SeedDemoUser(ctx, svc, users)
	require.NoError(t, err)
	assert.Equal(t, DemoEmail, seeded.Email)
	assert.True(t, svc.CheckPassword(DemoPassword, seeded.PasswordHash))

	again, err := SeedDemoUser(ctx, svc, users)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, again.ID)

	resp, err := NewAuthenticator(svc, users, 0).SignIn(ctx, models.LoginRequest{Email: DemoEmail, Password: DemoPassword})
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, resp.User.ID)
}
