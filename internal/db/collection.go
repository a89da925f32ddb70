package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/ukydev/carclub/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned by lookups that match no document.
	ErrNotFound = errors.New("not found")
	// ErrNilCollection is returned when a Mongo wrapper has no collection.
	ErrNilCollection = errors.New("mongo collection is nil")
)

// FleetCollection stores exported fleet snapshots.
type FleetCollection interface {
	ReplaceFleet(ctx context.Context, vehicles []models.Vehicle) (int64, error)
	FindVehicles(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (VehicleCursor, error)
}

// VehicleCursor defines the interface for vehicle cursor operations.
type VehicleCursor interface {
	All(ctx context.Context, out interface{}) error
	Close(ctx context.Context) error
}

// LoadFleet reads the whole snapshot from c in id order.
func LoadFleet(ctx context.Context, c FleetCollection) ([]models.Vehicle, error) {
	cursor, err := c.FindVehicles(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find fleet: %w", err)
	}
	defer cursor.Close(ctx)

	vehicles := []models.Vehicle{}
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, fmt.Errorf("decode fleet: %w", err)
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	return vehicles, nil
}

// BookingCollection defines the interface for booking data operations.
type BookingCollection interface {
	InsertBooking(ctx context.Context, booking models.Booking) error
	FindBookingByReference(ctx context.Context, reference string) (*models.Booking, error)
	FindBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error)
}

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
}
