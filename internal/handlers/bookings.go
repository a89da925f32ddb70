package handlers

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carclub/internal/booking"
	"github.com/ukydev/carclub/internal/middleware"
	"github.com/ukydev/carclub/internal/models"
)

// BookingHandler prices and records mock bookings.
type BookingHandler struct {
	bookings *booking.Service
}

func NewBookingHandler(bookings *booking.Service) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// Quote prices a rental window without booking it.
func (h *BookingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	quote, err := h.bookings.Quote(req)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// Book confirms a booking for the signed-in user.
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}
	var req models.BookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := h.bookings.Book(r.Context(), claims.UserID, req)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// ListBookings returns the signed-in user's bookings.
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}
	bookings, err := h.bookings.ForUser(r.Context(), claims.UserID)
	if err != nil {
		log.WithError(err).Error("Failed to list bookings")
		http.Error(w, "Failed to list bookings", http.StatusInternalServerError)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

func writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrVehicleNotFound):
		http.Error(w, "Vehicle not found", http.StatusNotFound)
	case booking.IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "Booking cancelled", http.StatusRequestTimeout)
	default:
		log.WithError(err).Error("Booking failed")
		http.Error(w, "Failed to book vehicle", http.StatusInternalServerError)
	}
}
