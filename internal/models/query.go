package models

import (
	"slices"
	"strings"
)

// SortKey selects the ordering of a result view.
type SortKey string

const (
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortRating    SortKey = "rating"
	SortDistance  SortKey = "distance"
	SortReviews   SortKey = "reviews"
)

// SortOption pairs a sort key with its display label.
type SortOption struct {
	Value SortKey `json:"value"`
	Label string  `json:"label"`
}

// SortOptions lists the supported orderings in display order.
var SortOptions = []SortOption{
	{Value: SortPriceAsc, Label: "Price: Low to High"},
	{Value: SortPriceDesc, Label: "Price: High to Low"},
	{Value: SortRating, Label: "Highest Rated"},
	{Value: SortDistance, Label: "Nearest to You"},
	{Value: SortReviews, Label: "Most Reviewed"},
}

// IsValidSortKey checks if a sort key is supported
func IsValidSortKey(key SortKey) bool {
	switch key {
	case SortPriceAsc, SortPriceDesc, SortRating, SortDistance, SortReviews:
		return true
	default:
		return false
	}
}

// ParseSortKey maps user input onto a sort key. Unknown input yields price-asc.
func ParseSortKey(s string) SortKey {
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if IsValidSortKey(key) {
		return key
	}
	return SortPriceAsc
}

// PriceRange is an inclusive daily price bound.
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether price lies inside the range, bounds included.
func (r PriceRange) Contains(price int) bool {
	return price >= r.Min && price <= r.Max
}

// Ordered returns r with Min <= Max.
func (r PriceRange) Ordered() PriceRange {
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	return r
}

// Clamp limits each bound to outer on its own. A bound beyond the far side
// of outer is kept, so a range outside the fleet (or one with Min > Max)
// still selects nothing.
func (r PriceRange) Clamp(outer PriceRange) PriceRange {
	if r.Min < outer.Min {
		r.Min = outer.Min
	}
	if r.Max > outer.Max {
		r.Max = outer.Max
	}
	return r
}

// PriceBoundsOf returns the lowest and highest daily price of vehicles.
// An empty input yields the zero range.
func PriceBoundsOf(vehicles []Vehicle) PriceRange {
	var r PriceRange
	for i, v := range vehicles {
		if i == 0 || v.DailyPrice < r.Min {
			r.Min = v.DailyPrice
		}
		if i == 0 || v.DailyPrice > r.Max {
			r.Max = v.DailyPrice
		}
	}
	return r
}

// ViewMode is the presentation the visitor has selected.
type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewMap  ViewMode = "map"
)

// QueryState holds the filter, sort and location criteria of one visitor.
type QueryState struct {
	PriceRange   PriceRange `json:"price_range"`
	Types        []string   `json:"types"`
	Features     []string   `json:"features"`
	Sort         SortKey    `json:"sort"`
	UserLocation *Location  `json:"user_location,omitempty"`
	View         ViewMode   `json:"view"`
}

// Clone returns a deep copy so callers can't alias the slices of a stored state.
func (s QueryState) Clone() QueryState {
	out := s
	out.Types = slices.Clone(s.Types)
	out.Features = slices.Clone(s.Features)
	if s.UserLocation != nil {
		loc := *s.UserLocation
		out.UserLocation = &loc
	}
	return out
}

// Summary aggregates a result set.
type Summary struct {
	Count      int `json:"count"`
	MakeCount  int `json:"makeCount"`
	ModelCount int `json:"modelCount"`
}
