package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carclub/internal/cache"
	"github.com/ukydev/carclub/internal/fleet"
	"github.com/ukydev/carclub/internal/mapview"
	"github.com/ukydev/carclub/internal/models"
	"github.com/ukydev/carclub/internal/notice"
	"github.com/ukydev/carclub/internal/query"
)

// QueryResponse is a filtered and sorted result set with the state that
// produced it.
type QueryResponse struct {
	Location string            `json:"location,omitempty"`
	State    models.QueryState `json:"state"`
	query.View
	Clubs   []query.Club    `json:"clubs,omitempty"`
	Notices []notice.Notice `json:"notices,omitempty"`
}

// SearchResponse is the result of a postcode search.
type SearchResponse struct {
	Query    string           `json:"query"`
	Location string           `json:"location"`
	IDs      []int            `json:"ids"`
	Count    int              `json:"count"`
	Vehicles []models.Vehicle `json:"vehicles"`
}

// VehicleHandler serves read-only fleet queries.
type VehicleHandler struct {
	fleet    *fleet.Fleet
	notices  *notice.Service
	cache    cache.Provider
	cacheTTL time.Duration
}

// NewVehicleHandler creates a vehicle handler. A nil cache disables
// search caching.
func NewVehicleHandler(f *fleet.Fleet, notices *notice.Service, c cache.Provider, ttl time.Duration) *VehicleHandler {
	if notices == nil {
		notices = notice.NewService(nil)
	}
	return &VehicleHandler{
		fleet:    f,
		notices:  notices,
		cache:    c,
		cacheTTL: ttl,
	}
}

// GetCatalog returns the filter and sort options.
func (h *VehicleHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.fleet.Catalog())
}

// ListVehicles runs a one-shot query built from URL parameters. The cars
// parameter narrows the fleet to a JSON id list; otherwise location narrows
// it by postcode.
func (h *VehicleHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vars := r.URL.Query()
	base, location := h.baseSet(vars.Get("cars"), vars.Get("location"))
	qs := stateFromQuery(vars, h.fleet.PriceBounds())

	resp := h.run(base, qs)
	resp.Location = location
	if vars.Get("group") == "club" {
		resp.Clubs = query.GroupByClub(resp.Vehicles)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetVehicle returns one vehicle by id.
func (h *VehicleHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid vehicle id", http.StatusBadRequest)
		return
	}
	v, ok := h.fleet.ByID(id)
	if !ok {
		http.Error(w, "Vehicle not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Search runs a postcode search. Results are cached per normalized query.
func (h *VehicleHandler) Search(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("postcode")
	normalized := query.NormalizePostcode(raw)

	search := func() (SearchResponse, error) {
		vehicles := query.PostcodeSearch(h.fleet.All(), raw)
		return SearchResponse{
			Query:    raw,
			Location: normalized,
			IDs:      query.IDs(vehicles),
			Count:    len(vehicles),
			Vehicles: vehicles,
		}, nil
	}

	var resp SearchResponse
	if h.cache != nil {
		resp, _ = cache.Remember(r.Context(), h.cache, "search:"+normalized, h.cacheTTL, search)
		resp.Query = raw
	} else {
		resp, _ = search()
	}

	log.WithFields(log.Fields{"postcode": normalized, "count": resp.Count}).Debug("Postcode search")
	writeJSON(w, http.StatusOK, resp)
}

// GetMap returns the map payload for the same parameters as ListVehicles.
func (h *VehicleHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	vars := r.URL.Query()
	base, _ := h.baseSet(vars.Get("cars"), vars.Get("location"))
	qs := stateFromQuery(vars, h.fleet.PriceBounds())

	view := query.Run(base, qs)
	writeJSON(w, http.StatusOK, mapview.Build(view.Vehicles, qs.UserLocation))
}

func (h *VehicleHandler) baseSet(cars, location string) ([]models.Vehicle, string) {
	all := h.fleet.All()
	if strings.TrimSpace(cars) != "" {
		selected, ok := query.Preselect(all, cars)
		if !ok {
			h.notices.Handle(notice.FilterFailed, notice.Hidden(),
				notice.WithMessage("ignoring malformed cars parameter"))
		}
		return selected, strings.TrimSpace(location)
	}
	if strings.TrimSpace(location) != "" {
		return query.PostcodeSearch(all, location), query.NormalizePostcode(location)
	}
	return all, ""
}

func (h *VehicleHandler) run(base []models.Vehicle, qs models.QueryState) QueryResponse {
	view := query.Run(base, qs)
	resp := QueryResponse{State: qs, View: view}
	if view.Fallback {
		resp.Notices = append(resp.Notices, h.notices.Handle(notice.LocationRequired))
	}
	return resp
}
