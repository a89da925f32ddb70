package geo

import (
	"math"

	"github.com/ukydev/carclub/internal/models"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// DistanceKm returns the haversine distance between a and b in kilometres.
func DistanceKm(a, b models.Location) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	s := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return EarthRadiusKm * c
}

// Jitter offsets base by up to meters in each axis, using r for the two
// fractions in [0, 1).
func Jitter(base models.Location, meters float64, r func() float64) models.Location {
	latMetersPerDeg := 111320.0
	lngMetersPerDeg := 111320.0 * math.Cos(toRadians(base.Lat))
	dLat := (r()*2 - 1) * (meters / latMetersPerDeg)
	dLng := (r()*2 - 1) * (meters / lngMetersPerDeg)
	return models.Location{Lat: base.Lat + dLat, Lng: base.Lng + dLng}
}

// Bounds is the smallest box containing a set of points.
type Bounds struct {
	SouthWest models.Location `json:"south_west"`
	NorthEast models.Location `json:"north_east"`
}

// BoundsOf returns the bounding box of points and false when there are none.
func BoundsOf(points []models.Location) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b := Bounds{SouthWest: points[0], NorthEast: points[0]}
	for _, p := range points[1:] {
		b.SouthWest.Lat = math.Min(b.SouthWest.Lat, p.Lat)
		b.SouthWest.Lng = math.Min(b.SouthWest.Lng, p.Lng)
		b.NorthEast.Lat = math.Max(b.NorthEast.Lat, p.Lat)
		b.NorthEast.Lng = math.Max(b.NorthEast.Lng, p.Lng)
	}
	return b, true
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
