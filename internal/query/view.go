package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ukydev/carclub/internal/models"
)

// View is the derived result of running a query state over a fleet.
type View struct {
	Vehicles []models.Vehicle `json:"vehicles"`
	Summary  models.Summary   `json:"summary"`
	// Sort is the ordering actually applied; it differs from Requested when
	// a distance sort fell back to price.
	Sort      models.SortKey `json:"sort"`
	Requested models.SortKey `json:"requested_sort"`
	Fallback  bool           `json:"fallback"`
}

// Run filters and sorts vehicles for state. A distance sort without a user
// location is reported through Fallback and ordered by ascending price.
func Run(vehicles []models.Vehicle, state models.QueryState) View {
	filtered := Filter(vehicles, state)
	key := state.Sort
	if !models.IsValidSortKey(key) {
		key = models.SortPriceAsc
	}
	view := View{Sort: key, Requested: state.Sort}

	sorted, err := Sort(filtered, key, state.UserLocation)
	if errors.Is(err, ErrLocationRequired) {
		sorted, _ = Sort(filtered, models.SortPriceAsc, nil)
		view.Sort = models.SortPriceAsc
		view.Fallback = true
	}
	view.Vehicles = sorted
	view.Summary = Summarize(sorted)
	return view
}

// Preselect narrows vehicles to the ids encoded as a JSON array, such as the
// "cars" URL parameter. Blank or malformed input is treated as absent: the
// full list comes back and ok is false. Fleet order is kept.
func Preselect(vehicles []models.Vehicle, idsJSON string) (selected []models.Vehicle, ok bool) {
	all := append([]models.Vehicle(nil), vehicles...)
	if strings.TrimSpace(idsJSON) == "" {
		return all, false
	}
	var ids []int
	if err := json.Unmarshal([]byte(idsJSON), &ids); err != nil || ids == nil {
		return all, false
	}
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	selected = make([]models.Vehicle, 0, len(ids))
	for _, v := range vehicles {
		if _, hit := want[v.ID]; hit {
			selected = append(selected, v)
		}
	}
	return selected, true
}

// IDs returns the ids of vehicles in order.
func IDs(vehicles []models.Vehicle) []int {
	ids := make([]int, len(vehicles))
	for i, v := range vehicles {
		ids[i] = v.ID
	}
	return ids
}

// vehiclesPerClub groups consecutive ids into one car club.
const vehiclesPerClub = 5

// Club is a group of vehicles shown under one header in the grid.
type Club struct {
	ID       int              `json:"id"`
	Name     string           `json:"name"`
	Location string           `json:"location"`
	Rating   float64          `json:"rating"`
	Reviews  int              `json:"reviews"`
	Vehicles []models.Vehicle `json:"vehicles"`
}

// GroupByClub buckets vehicles by club id (id / 5). Clubs come out in
// ascending id order; vehicles keep their input order within a club. The
// club's location is that of its first vehicle.
func GroupByClub(vehicles []models.Vehicle) []Club {
	byID := make(map[int]*Club)
	var order []int
	for _, v := range vehicles {
		id := v.ID / vehiclesPerClub
		c, ok := byID[id]
		if !ok {
			c = &Club{
				ID:       id,
				Name:     fmt.Sprintf("Car Club %d", id),
				Location: v.Location,
				Rating:   math.Round((4+float64(id%10)/10)*10) / 10,
				Reviews:  10 + id%90,
			}
			byID[id] = c
			order = append(order, id)
		}
		c.Vehicles = append(c.Vehicles, v)
	}
	sort.Ints(order)

	clubs := make([]Club, 0, len(order))
	for _, id := range order {
		clubs = append(clubs, *byID[id])
	}
	return clubs
}
