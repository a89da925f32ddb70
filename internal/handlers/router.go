package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/ukydev/carclub/internal/auth"
	"github.com/ukydev/carclub/internal/booking"
	"github.com/ukydev/carclub/internal/cache"
	"github.com/ukydev/carclub/internal/db"
	"github.com/ukydev/carclub/internal/fleet"
	"github.com/ukydev/carclub/internal/middleware"
	"github.com/ukydev/carclub/internal/notice"
	"github.com/ukydev/carclub/internal/state"
)

// Deps are the services the HTTP surface is built from. Cache may be nil.
type Deps struct {
	Fleet         *fleet.Fleet
	Sessions      *state.Sessions
	Notices       *notice.Service
	Cache         cache.Provider
	CacheTTL      time.Duration
	Authenticator *auth.Authenticator
	Users         db.UserCollection
	Bookings      *booking.Service
	RateLimit     int
	RateWindow    time.Duration
	TrustProxy    bool
}

// NewRouter registers every route on a mux router.
func NewRouter(d Deps) *mux.Router {
	vehicles := NewVehicleHandler(d.Fleet, d.Notices, d.Cache, d.CacheTTL)
	sessions := NewSessionHandler(d.Fleet, d.Sessions, d.Notices)
	authHandler := NewAuthHandler(d.Authenticator, d.Users)
	bookings := NewBookingHandler(d.Bookings)
	authMiddleware := middleware.NewAuthMiddleware(d.Authenticator.Tokens())

	r := mux.NewRouter()
	r.Use(middleware.Logging)
	r.HandleFunc("/health", Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	if d.RateLimit > 0 && d.RateWindow > 0 {
		api.Use(middleware.NewRateLimitMiddleware(d.TrustProxy).RateLimit(d.RateLimit, d.RateWindow))
	}

	api.HandleFunc("/catalog", vehicles.GetCatalog).Methods(http.MethodGet)
	api.HandleFunc("/vehicles", vehicles.ListVehicles).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}", vehicles.GetVehicle).Methods(http.MethodGet)
	api.HandleFunc("/search", vehicles.Search).Methods(http.MethodGet)
	api.HandleFunc("/map", vehicles.GetMap).Methods(http.MethodGet)

	api.HandleFunc("/sessions", sessions.CreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", sessions.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", sessions.DeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/filters", sessions.UpdateFilters).Methods(http.MethodPatch)
	api.HandleFunc("/sessions/{id}/sort", sessions.SetSort).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{id}/location", sessions.SetLocation).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{id}/view", sessions.SetView).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{id}/clear", sessions.ClearFilters).Methods(http.MethodPost)

	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/bookings/quote", bookings.Quote).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware.Authenticate)
	protected.HandleFunc("/auth/profile", authHandler.GetProfile).Methods(http.MethodGet)
	protected.Handle("/bookings", authMiddleware.RequirePermission("view_bookings")(
		http.HandlerFunc(bookings.ListBookings))).Methods(http.MethodGet)
	protected.Handle("/bookings", authMiddleware.RequirePermission("book_vehicle")(
		http.HandlerFunc(bookings.Book))).Methods(http.MethodPost)

	return r
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
