package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ukydev/carclub/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrDuplicate is returned when inserting a key that already exists.
var ErrDuplicate = errors.New("duplicate key")

// MemoryUserCollection is the in-process UserCollection used when no
// database is configured.
type MemoryUserCollection struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryUserCollection() *MemoryUserCollection {
	return &MemoryUserCollection{users: make(map[primitive.ObjectID]models.User)}
}

func (c *MemoryUserCollection) InsertUser(_ context.Context, user models.User) (*models.User, error) {
	prepareUser(&user, time.Now())

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range c.users {
		if u.Email == user.Email {
			return nil, fmt.Errorf("email %s: %w", user.Email, ErrDuplicate)
		}
	}
	c.users[user.ID] = user
	return &user, nil
}

func (c *MemoryUserCollection) FindUserByID(_ context.Context, id string) (*models.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.users[objectID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return &u, nil
}

func (c *MemoryUserCollection) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(email)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, u := range c.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user: %w", ErrNotFound)
}

func (c *MemoryUserCollection) UpdateLastLogin(_ context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[objectID]
	if !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	now := time.Now()
	u.LastLogin = &now
	u.UpdatedAt = now
	c.users[objectID] = u
	return nil
}

// MemoryBookingCollection keeps bookings in process.
type MemoryBookingCollection struct {
	mu       sync.RWMutex
	bookings map[string]models.Booking
}

func NewMemoryBookingCollection() *MemoryBookingCollection {
	return &MemoryBookingCollection{bookings: make(map[string]models.Booking)}
}

func (c *MemoryBookingCollection) InsertBooking(_ context.Context, booking models.Booking) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.bookings[booking.Reference]; exists {
		return fmt.Errorf("booking %s: %w", booking.Reference, ErrDuplicate)
	}
	c.bookings[booking.Reference] = booking
	return nil
}

func (c *MemoryBookingCollection) FindBookingByReference(_ context.Context, reference string) (*models.Booking, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.bookings[reference]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", reference, ErrNotFound)
	}
	return &b, nil
}

func (c *MemoryBookingCollection) FindBookingsByUser(_ context.Context, userID string) ([]models.Booking, error) {
	c.mu.RLock()
	out := []models.Booking{}
	for _, b := range c.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Reference < out[j].Reference
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
