package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carclub/internal/db"
	"github.com/ukydev/carclub/internal/models"
)

// DefaultDelay mimics a remote reservation system.
const DefaultDelay = time.Second

// Vehicles resolves vehicle ids to records.
type Vehicles interface {
	ByID(id int) (models.Vehicle, bool)
}

// Publisher announces confirmed bookings.
type Publisher interface {
	PublishBooking(ctx context.Context, b models.Booking) error
}

// Service validates, stores and announces bookings.
type Service struct {
	vehicles  Vehicles
	store     db.BookingCollection
	publisher Publisher
	delay     time.Duration
	now       func() time.Time
}

// NewService wires a booking service. publisher may be nil.
func NewService(vehicles Vehicles, store db.BookingCollection, publisher Publisher, delay time.Duration) *Service {
	if delay < 0 {
		delay = 0
	}
	return &Service{
		vehicles:  vehicles,
		store:     store,
		publisher: publisher,
		delay:     delay,
		now:       time.Now,
	}
}

// Quote prices req against the current time.
func (s *Service) Quote(req models.BookingRequest) (models.Quote, error) {
	v, ok := s.vehicles.ByID(req.VehicleID)
	if !ok {
		return models.Quote{}, fmt.Errorf("vehicle %d: %w", req.VehicleID, ErrVehicleNotFound)
	}
	return Quote(v, req.Pickup, req.Return, s.now())
}

// Book confirms req for userID after the artificial delay. A failed publish
// is logged and does not undo the booking.
func (s *Service) Book(ctx context.Context, userID string, req models.BookingRequest) (*models.Booking, error) {
	quote, err := s.Quote(req)
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	booking := models.Booking{
		Reference: uuid.NewString(),
		UserID:    userID,
		Quote:     quote,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("store booking: %w", err)
	}

	logger := log.WithFields(log.Fields{
		"reference":  booking.Reference,
		"vehicle_id": quote.VehicleID,
		"days":       quote.Days,
		"total":      quote.Total,
	})
	if s.publisher != nil {
		if err := s.publisher.PublishBooking(ctx, booking); err != nil {
			logger.WithError(err).Warn("Failed to publish booking event")
		}
	}
	logger.Info("Booking confirmed")
	return &booking, nil
}

// ForUser lists the bookings made by userID.
func (s *Service) ForUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.store.FindBookingsByUser(ctx, userID)
}
