// Package booking prices rental windows and records mock bookings.
package booking

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ukydev/carclub/internal/models"
)

const (
	MinRental     = time.Hour
	MaxRentalDays = 30
)

var (
	ErrPickupInPast       = errors.New("pickup date cannot be in the past")
	ErrReturnBeforePickup = errors.New("return date must be after pickup date")
	ErrRentalTooShort     = fmt.Errorf("minimum rental duration is %d hour", int(MinRental.Hours()))
	ErrRentalTooLong      = fmt.Errorf("maximum rental duration is %d days", MaxRentalDays)
	ErrVehicleNotFound    = errors.New("vehicle not found")
)

// IsValidationError reports whether err is one of the rental window errors.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrPickupInPast) ||
		errors.Is(err, ErrReturnBeforePickup) ||
		errors.Is(err, ErrRentalTooShort) ||
		errors.Is(err, ErrRentalTooLong)
}

// Quote prices the window [pickup, ret) for v. Partial days are charged in
// full. now is the reference for the pickup check.
func Quote(v models.Vehicle, pickup, ret, now time.Time) (models.Quote, error) {
	if pickup.Before(now) {
		return models.Quote{}, ErrPickupInPast
	}
	if !ret.After(pickup) {
		return models.Quote{}, ErrReturnBeforePickup
	}
	span := ret.Sub(pickup)
	if span < MinRental {
		return models.Quote{}, ErrRentalTooShort
	}
	if span > MaxRentalDays*24*time.Hour {
		return models.Quote{}, ErrRentalTooLong
	}

	days := int(math.Ceil(span.Hours() / 24))
	return models.Quote{
		VehicleID:  v.ID,
		Pickup:     pickup,
		Return:     ret,
		Days:       days,
		DailyPrice: v.DailyPrice,
		Total:      days * v.DailyPrice,
	}, nil
}
