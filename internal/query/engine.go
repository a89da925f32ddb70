// Package query filters, orders and searches a fleet. Every function is pure:
// inputs are never mutated and results are fresh slices.
package query

import (
	"errors"
	"sort"
	"strings"

	"github.com/ukydev/carclub/internal/geo"
	"github.com/ukydev/carclub/internal/models"
)

// ErrLocationRequired is returned when a distance sort is requested without a user location.
var ErrLocationRequired = errors.New("distance sort requires a user location")

// Filter keeps the vehicles that match the price range, drivetrain selection
// and every selected feature.
func Filter(vehicles []models.Vehicle, state models.QueryState) []models.Vehicle {
	out := make([]models.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if Matches(v, state) {
			out = append(out, v)
		}
	}
	return out
}

// Matches reports whether one vehicle passes the filters of state.
func Matches(v models.Vehicle, state models.QueryState) bool {
	if !state.PriceRange.Contains(v.DailyPrice) {
		return false
	}
	if len(state.Types) > 0 && !containsFold(state.Types, v.Drivetrain()) {
		return false
	}
	for _, want := range state.Features {
		if !hasFeatureLike(v, want) {
			return false
		}
	}
	return true
}

// hasFeatureLike is a case-insensitive substring match against any tag.
func hasFeatureLike(v models.Vehicle, want string) bool {
	want = strings.ToLower(want)
	for _, f := range v.Features {
		if strings.Contains(strings.ToLower(f), want) {
			return true
		}
	}
	return false
}

func containsFold(set []string, s string) bool {
	if s == "" {
		return false
	}
	for _, item := range set {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// Sort returns a stably ordered copy of vehicles. Distance ordering needs
// user; without it Sort returns ErrLocationRequired and no vehicles.
func Sort(vehicles []models.Vehicle, key models.SortKey, user *models.Location) ([]models.Vehicle, error) {
	out := append([]models.Vehicle(nil), vehicles...)

	var less func(a, b models.Vehicle) bool
	switch key {
	case models.SortPriceDesc:
		less = func(a, b models.Vehicle) bool { return a.DailyPrice > b.DailyPrice }
	case models.SortRating:
		less = func(a, b models.Vehicle) bool { return a.Rating > b.Rating }
	case models.SortReviews:
		less = func(a, b models.Vehicle) bool { return a.Reviews > b.Reviews }
	case models.SortDistance:
		if user == nil {
			return nil, ErrLocationRequired
		}
		dist := make(map[int]float64, len(out))
		for _, v := range out {
			dist[v.ID] = geo.DistanceKm(*user, v.Coordinates)
		}
		less = func(a, b models.Vehicle) bool { return dist[a.ID] < dist[b.ID] }
	default:
		less = func(a, b models.Vehicle) bool { return a.DailyPrice < b.DailyPrice }
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}

// NormalizePostcode strips all whitespace and upper-cases the result.
func NormalizePostcode(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// PostcodeSearch finds vehicles by postcode. An exact postcode match wins;
// otherwise any vehicle whose city has an area code starting with the query
// is returned. No match is an empty, non-nil result.
func PostcodeSearch(vehicles []models.Vehicle, postcode string) []models.Vehicle {
	q := NormalizePostcode(postcode)

	exact := make([]models.Vehicle, 0)
	for _, v := range vehicles {
		if NormalizePostcode(v.Postcode) == q {
			exact = append(exact, v)
		}
	}
	if len(exact) > 0 {
		return exact
	}

	prefix := make([]models.Vehicle, 0)
	for _, v := range vehicles {
		for _, area := range v.AreaCodes {
			if strings.HasPrefix(NormalizePostcode(area), q) {
				prefix = append(prefix, v)
				break
			}
		}
	}
	return prefix
}

// Summarize counts vehicles, distinct makes and distinct make+model pairs.
func Summarize(vehicles []models.Vehicle) models.Summary {
	makes := make(map[string]struct{})
	pairs := make(map[[2]string]struct{})
	for _, v := range vehicles {
		makes[v.Make] = struct{}{}
		pairs[[2]string{v.Make, v.Model}] = struct{}{}
	}
	return models.Summary{Count: len(vehicles), MakeCount: len(makes), ModelCount: len(pairs)}
}
