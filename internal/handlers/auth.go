package handlers

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carclub/internal/auth"
	"github.com/ukydev/carclub/internal/db"
	"github.com/ukydev/carclub/internal/middleware"
	"github.com/ukydev/carclub/internal/models"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authenticator  *auth.Authenticator
	userCollection db.UserCollection
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authenticator *auth.Authenticator, userCollection db.UserCollection) *AuthHandler {
	return &AuthHandler{
		authenticator:  authenticator,
		userCollection: userCollection,
	}
}

// Login handles the mock sign-in
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if !decodeJSON(w, r, &loginReq) {
		return
	}

	if loginReq.Email == "" || loginReq.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	response, err := h.authenticator.SignIn(r.Context(), loginReq)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrPasswordTooShort):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, auth.ErrInvalidCredentials):
			http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		case errors.Is(err, auth.ErrUserInactive):
			http.Error(w, "Account is deactivated", http.StatusUnauthorized)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			http.Error(w, "Sign-in cancelled", http.StatusRequestTimeout)
		default:
			log.WithError(err).Error("Sign-in failed")
			http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		}
		return
	}

	log.WithField("user_id", response.User.ID.Hex()).Info("User signed in")
	writeJSON(w, http.StatusOK, response)
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		log.WithError(err).Error("Failed to load profile")
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
