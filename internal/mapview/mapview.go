// Package mapview shapes query results into the payload a map widget renders.
package mapview

import (
	"fmt"
	"strconv"

	"github.com/ukydev/carclub/internal/geo"
	"github.com/ukydev/carclub/internal/models"
)

const (
	DefaultZoom = 6
	UserZoom    = 11
)

// DefaultCenter is roughly the middle of the UK.
var DefaultCenter = models.Location{Lat: 54.5, Lng: -2}

// Icon selects the marker glyph.
type Icon string

const (
	IconElectric Icon = "electric"
	IconHybrid   Icon = "hybrid"
	IconCar      Icon = "car"
)

// Glyph is the character drawn inside the marker.
func (i Icon) Glyph() string {
	switch i {
	case IconElectric:
		return "⚡"
	case IconHybrid:
		return "🔋"
	default:
		return "🚗"
	}
}

// Popup is the info window opened from a marker.
type Popup struct {
	Title         string  `json:"title"`
	Image         string  `json:"image"`
	FallbackImage string  `json:"fallbackImage"`
	PriceLabel    string  `json:"priceLabel"`
	Location      string  `json:"location"`
	Rating        float64 `json:"rating"`
	Reviews       int     `json:"reviews"`
	RatingLabel   string  `json:"ratingLabel"`
	DetailURL     string  `json:"detailUrl"`
}

type Marker struct {
	ID       int             `json:"id"`
	Position models.Location `json:"position"`
	Icon     Icon            `json:"icon"`
	Glyph    string          `json:"glyph"`
	Title    string          `json:"title"`
	Popup    Popup           `json:"popup"`
}

// Map is everything needed to draw one frame of the map view.
type Map struct {
	Center  models.Location  `json:"center"`
	Zoom    int              `json:"zoom"`
	Bounds  *geo.Bounds      `json:"bounds,omitempty"`
	User    *models.Location `json:"user,omitempty"`
	Markers []Marker         `json:"markers"`
}

// Build creates one marker per vehicle in input order. The map centres on
// user when known, otherwise on the UK default. Bounds are omitted when
// there are no markers.
func Build(vehicles []models.Vehicle, user *models.Location) Map {
	m := Map{
		Center:  DefaultCenter,
		Zoom:    DefaultZoom,
		Markers: make([]Marker, 0, len(vehicles)),
	}
	if user != nil {
		u := *user
		m.User = &u
		m.Center = u
		m.Zoom = UserZoom
	}

	points := make([]models.Location, 0, len(vehicles))
	for _, v := range vehicles {
		m.Markers = append(m.Markers, NewMarker(v))
		points = append(points, v.Coordinates)
	}
	if b, ok := geo.BoundsOf(points); ok {
		m.Bounds = &b
	}
	return m
}

// NewMarker builds the marker and popup for one vehicle.
func NewMarker(v models.Vehicle) Marker {
	icon := IconFor(v)
	return Marker{
		ID:       v.ID,
		Position: v.Coordinates,
		Icon:     icon,
		Glyph:    icon.Glyph(),
		Title:    v.Title(),
		Popup: Popup{
			Title:         v.Title(),
			Image:         firstImage(v),
			FallbackImage: v.FallbackImage,
			PriceLabel:    PriceLabel(v.DailyPrice),
			Location:      v.Location,
			Rating:        v.Rating,
			Reviews:       v.Reviews,
			RatingLabel:   fmt.Sprintf("★ %s (%d reviews)", strconv.FormatFloat(v.Rating, 'f', -1, 64), v.Reviews),
			DetailURL:     DetailURL(v.ID),
		},
	}
}

// IconFor picks the icon from the vehicle's drivetrain tag.
func IconFor(v models.Vehicle) Icon {
	switch {
	case v.HasFeature(models.DrivetrainElectric):
		return IconElectric
	case v.HasFeature(models.DrivetrainHybrid):
		return IconHybrid
	default:
		return IconCar
	}
}

// PriceLabel formats a daily price, e.g. "£46/day".
func PriceLabel(price int) string {
	return fmt.Sprintf("£%d/day", price)
}

// DetailURL links to the vehicle's detail page.
func DetailURL(id int) string {
	return "car-detail.html?id=" + strconv.Itoa(id)
}

func firstImage(v models.Vehicle) string {
	if len(v.Images) == 0 {
		return v.FallbackImage
	}
	return v.Images[0]
}
