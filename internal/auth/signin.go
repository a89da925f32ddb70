package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carclub/internal/db"
	"github.com/ukydev/carclub/internal/models"
)

// DefaultSignInDelay mimics a remote identity provider.
const DefaultSignInDelay = time.Second

// UserStore is the part of the user collection sign-in needs. Missing users
// are reported with db.ErrNotFound.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
}

// Authenticator runs the mock sign-in flow against a user store.
type Authenticator struct {
	tokens *Service
	users  UserStore
	delay  time.Duration
}

// NewAuthenticator wires the sign-in flow. A negative delay is treated as zero.
func NewAuthenticator(tokens *Service, users UserStore, delay time.Duration) *Authenticator {
	if delay < 0 {
		delay = 0
	}
	return &Authenticator{tokens: tokens, users: users, delay: delay}
}

// Tokens returns the token service used to sign sessions.
func (a *Authenticator) Tokens() *Service { return a.tokens }

// SignIn validates the request, waits the artificial delay and exchanges the
// credentials for a token. Unknown users and wrong passwords both yield
// ErrInvalidCredentials. A cancelled ctx aborts the wait.
func (a *Authenticator) SignIn(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	email := strings.TrimSpace(req.Email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	if err := wait(ctx, a.delay); err != nil {
		return nil, err
	}

	user, err := a.users.FindUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !a.tokens.CheckPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := a.tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	if err := a.users.UpdateLastLogin(ctx, user.ID.Hex()); err != nil {
		log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("Failed to update last login")
	}

	return &models.LoginResponse{Token: token, User: *user}, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
