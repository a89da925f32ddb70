package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ukydev/carclub/internal/fleet"
	"github.com/ukydev/carclub/internal/mapview"
	"github.com/ukydev/carclub/internal/models"
	"github.com/ukydev/carclub/internal/notice"
	"github.com/ukydev/carclub/internal/query"
	"github.com/ukydev/carclub/internal/state"
)

// SessionResponse is the state of one session and the view it derives.
// Map is set when the session is in map view.
type SessionResponse struct {
	ID    string            `json:"id"`
	State models.QueryState `json:"state"`
	query.View
	Map     *mapview.Map    `json:"map,omitempty"`
	Notices []notice.Notice `json:"notices,omitempty"`
}

// LocationRequest grants or denies the visitor's location.
type LocationRequest struct {
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
	Denied bool     `json:"denied"`
}

// SessionHandler manages per-visitor query state.
type SessionHandler struct {
	fleet    *fleet.Fleet
	sessions *state.Sessions
	notices  *notice.Service
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(f *fleet.Fleet, sessions *state.Sessions, notices *notice.Service) *SessionHandler {
	if notices == nil {
		notices = notice.NewService(nil)
	}
	return &SessionHandler{
		fleet:    f,
		sessions: sessions,
		notices:  notices,
	}
}

// CreateSession opens a session in the default state.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	store := h.sessions.Create()
	writeJSON(w, http.StatusCreated, h.render(store, nil))
}

// GetSession returns the current state and view.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	store, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.render(store, nil))
}

// UpdateFilters applies a partial filter update.
func (h *SessionHandler) UpdateFilters(w http.ResponseWriter, r *http.Request) {
	store, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var update state.FilterUpdate
	if !decodeJSON(w, r, &update) {
		return
	}
	store.UpdateFilters(update)
	writeJSON(w, http.StatusOK, h.render(store, nil))
}

// SetSort changes the ordering. Unknown keys select price-asc.
func (h *SessionHandler) SetSort(w http.ResponseWriter, r *http.Request) {
	store, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req struct {
		Sort string `json:"sort"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	store.SetSort(models.ParseSortKey(req.Sort))
	writeJSON(w, http.StatusOK, h.render(store, nil))
}

// SetLocation records the visitor's coordinate, or clears it when the
// visitor denied access.
func (h *SessionHandler) SetLocation(w http.ResponseWriter, r *http.Request) {
	store, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req LocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Denied {
		store.SetLocation(nil)
		n := h.notices.Handle(notice.Geolocation)
		writeJSON(w, http.StatusOK, h.render(store, []notice.Notice{n}))
		return
	}
	if req.Lat == nil || req.Lng == nil {
		http.Error(w, "lat and lng are required", http.StatusBadRequest)
		return
	}
	loc := models.Location{Lat: *req.Lat, Lng: *req.Lng}
	if !validLocation(loc) {
		http.Error(w, "Coordinate out of range", http.StatusBadRequest)
		return
	}
	store.SetLocation(&loc)
	writeJSON(w, http.StatusOK, h.render(store, nil))
}

// SetView switches between grid and map.
func (h *SessionHandler) SetView(w http.ResponseWriter, r *http.Request) {
	store, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req struct {
		View models.ViewMode `json:"view"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := store.SetView(req.View); err != nil {
		if errors.Is(err, state.ErrInvalidView) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to set view", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.render(store, nil))
}

// ClearFilters resets price, types and features.
func (h *SessionHandler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	store, ok := h.lookup(w, r)
	if !ok {
		return
	}
	store.ClearFilters()
	writeJSON(w, http.StatusOK, h.render(store, nil))
}

// DeleteSession drops a session.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(mux.Vars(r)["id"]) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*state.Store, bool) {
	store, ok := h.sessions.Get(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return store, true
}

// render runs the session state over the fleet. A distance sort that fell
// back to price is written back to the session.
func (h *SessionHandler) render(store *state.Store, notices []notice.Notice) SessionResponse {
	qs := store.Snapshot()
	view := query.Run(h.fleet.All(), qs)
	if view.Fallback {
		notices = append(notices, h.notices.Handle(notice.LocationRequired))
		qs = store.SetSort(view.Sort)
	}

	resp := SessionResponse{
		ID:      store.ID(),
		State:   qs,
		View:    view,
		Notices: notices,
	}
	if qs.View == models.ViewMap {
		m := mapview.Build(view.Vehicles, qs.UserLocation)
		resp.Map = &m
	}
	return resp
}
