package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carclub/internal/models"
	"github.com/ukydev/carclub/internal/state"
)

// stateFromQuery builds a query state from URL parameters. Malformed numbers
// and unknown sort keys are ignored rather than rejected.
func stateFromQuery(vars url.Values, bounds models.PriceRange) models.QueryState {
	qs := state.Default(bounds)

	price := bounds
	minV, hasMin := intParam(vars, "min_price")
	if hasMin {
		price.Min = minV
	}
	maxV, hasMax := intParam(vars, "max_price")
	if hasMax {
		price.Max = maxV
	}
	if hasMin && hasMax {
		price = price.Ordered()
	}
	qs.PriceRange = price.Clamp(bounds)

	qs.Types = listParam(vars, "type")
	qs.Features = listParam(vars, "feature")
	qs.Sort = models.ParseSortKey(vars.Get("sort"))

	if loc, ok := locationParam(vars); ok {
		qs.UserLocation = &loc
	}
	return qs
}

func intParam(vars url.Values, name string) (int, bool) {
	raw := strings.TrimSpace(vars.Get(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.WithFields(log.Fields{"param": name, "value": raw}).Debug("Ignoring malformed number")
		return 0, false
	}
	return v, true
}

// listParam accepts both repeated and comma separated values.
func listParam(vars url.Values, name string) []string {
	out := []string{}
	for _, raw := range vars[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func locationParam(vars url.Values) (models.Location, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(vars.Get("lat")), 64)
	if err != nil {
		return models.Location{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(vars.Get("lng")), 64)
	if err != nil {
		return models.Location{}, false
	}
	loc := models.Location{Lat: lat, Lng: lng}
	return loc, validLocation(loc)
}

func validLocation(loc models.Location) bool {
	return loc.Lat >= -90 && loc.Lat <= 90 && loc.Lng >= -180 && loc.Lng <= 180
}

// decodeJSON reads the request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}
