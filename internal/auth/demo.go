package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/ukydev/carclub/internal/db"
	"github.com/ukydev/carclub/internal/models"
)

// Demo account accepted by the mock sign-in.
const (
	DemoEmail    = "test@example.com"
	DemoPassword = "password123"
)

// SeedDemoUser makes sure the demo account exists in users.
func SeedDemoUser(ctx context.Context, tokens *Service, users db.UserCollection) (*models.User, error) {
	existing, err := users.FindUserByEmail(ctx, DemoEmail)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("find demo user: %w", err)
	}

	hash, err := tokens.HashPassword(DemoPassword)
	if err != nil {
		return nil, err
	}
	user, err := users.InsertUser(ctx, models.User{
		Email:        DemoEmail,
		PasswordHash: hash,
		Role:         models.RoleMember,
		FirstName:    "Test",
		LastName:     "User",
	})
	if err != nil {
		return nil, fmt.Errorf("insert demo user: %w", err)
	}
	return user, nil
}
