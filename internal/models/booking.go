package models

import "time"

// BookingRequest represents a booking request for a vehicle
type BookingRequest struct {
	VehicleID int       `json:"vehicle_id"`
	Pickup    time.Time `json:"pickup"`
	Return    time.Time `json:"return"`
}

// Quote is the priced rental window for one vehicle.
type Quote struct {
	VehicleID  int       `json:"vehicle_id"`
	Pickup     time.Time `json:"pickup"`
	Return     time.Time `json:"return"`
	Days       int       `json:"days"`
	DailyPrice int       `json:"daily_price"`
	Total      int       `json:"total"`
}

// Booking is a confirmed mock booking.
type Booking struct {
	Reference string    `bson:"_id" json:"reference"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Quote     Quote     `bson:"quote" json:"quote"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
