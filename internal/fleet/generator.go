package fleet

import (
	"fmt"
	"math"
	"strings"

	"github.com/ukydev/carclub/internal/models"
)

const (
	baseYear         = 2021
	basePrice        = 45
	premiumBasePrice = 75

	imageHost     = "https://source.unsplash.com/800x600/"
	fallbackImage = "https://images.unsplash.com/photo-1533473359331-0135ef1b58bf?auto=format&fit=crop&w=800&q=80"
)

// Generate returns count vehicles with ids 1..count. The output depends on
// nothing but count and the reference tables.
func Generate(count int) []models.Vehicle {
	if count < 1 {
		return []models.Vehicle{}
	}
	vehicles := make([]models.Vehicle, 0, count)
	for seed := 1; seed <= count; seed++ {
		vehicles = append(vehicles, GenerateVehicle(seed))
	}
	return vehicles
}

// GenerateVehicle derives the record with the given id.
func GenerateVehicle(seed int) models.Vehicle {
	mk := makes[seed%len(makes)]
	model := mk.Models[(seed/len(makes))%len(mk.Models)]

	city := cities[(seed/(len(makes)*4))%len(cities)]
	postcode := city.Areas[seed%len(city.Areas)]

	latOffset := float64(seed%100)/1000 - 0.05
	lngOffset := float64((seed/100)%100)/1000 - 0.05

	set := featureSets[seed%len(featureSets)]
	features := make([]string, 0, 2+len(set))
	features = append(features, mk.Drivetrain, fmt.Sprintf("%d Seats", seed%2+4))
	features = append(features, set[:seed%3+1]...)

	return models.Vehicle{
		ID:         seed,
		Make:       mk.Name,
		Model:      model,
		Year:       baseYear + seed%3,
		DailyPrice: dailyPrice(mk, seed),
		Location:   city.Name + ", UK",
		City:       city.Name,
		Postcode:   postcode,
		AreaCodes:  append([]string(nil), city.Areas...),
		Coordinates: models.Location{
			Lat: city.Center.Lat + latOffset,
			Lng: city.Center.Lng + lngOffset,
		},
		Images:        images(mk.Name, model),
		FallbackImage: fallbackImage,
		Features:      features,
		Rating:        math.Round((4+float64(seed%10)/10)*10) / 10,
		Reviews:       50 + seed%150,
	}
}

func dailyPrice(mk Make, seed int) int {
	base := basePrice
	if mk.Premium {
		base = premiumBasePrice
	}
	return base + seed%30
}

func slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

func images(brand, model string) []string {
	m := strings.ToLower(brand)
	return []string{
		imageHost + "?" + m + "-" + slug(model) + ",car",
		imageHost + "?" + m + ",car-interior",
		imageHost + "?" + slug(model) + ",car",
		imageHost + "?luxury,car",
	}
}
