package fleet

import "github.com/ukydev/carclub/internal/models"

// Make is a manufacturer entry of the reference table.
type Make struct {
	Name       string
	Models     []string
	Drivetrain string
	Premium    bool // premium makes start from the higher base price
}

// City is a rental city with its postal outcodes and map centre.
type City struct {
	Name   string
	Areas  []string
	Center models.Location
}

// Table order is part of the generated data; reordering changes every record.
var makes = []Make{
	{Name: "Tesla", Models: []string{"Model 3", "Model Y", "Model S", "Model X"}, Drivetrain: models.DrivetrainElectric, Premium: true},
	{Name: "BMW", Models: []string{"i3", "i4", "330e", "X5"}, Drivetrain: models.DrivetrainHybrid},
	{Name: "Volkswagen", Models: []string{"ID.4", "ID.3", "e-Golf", "Passat GTE"}, Drivetrain: models.DrivetrainElectric},
	{Name: "Toyota", Models: []string{"Prius", "RAV4", "Corolla Hybrid", "Camry"}, Drivetrain: models.DrivetrainHybrid},
	{Name: "Nissan", Models: []string{"Leaf", "Ariya", "Qashqai", "Juke"}, Drivetrain: models.DrivetrainElectric},
	{Name: "Hyundai", Models: []string{"IONIQ 5", "Kona Electric", "Tucson PHEV"}, Drivetrain: models.DrivetrainElectric},
	{Name: "Mini", Models: []string{"Cooper SE", "Countryman PHEV"}, Drivetrain: models.DrivetrainElectric},
	{Name: "Kia", Models: []string{"e-Niro", "EV6", "Soul EV", "Sportage"}, Drivetrain: models.DrivetrainElectric},
	{Name: "Audi", Models: []string{"e-tron", "Q4 e-tron", "A3 TFSI e"}, Drivetrain: models.DrivetrainElectric},
	{Name: "Mercedes", Models: []string{"EQC", "EQA", "EQS", "A250e"}, Drivetrain: models.DrivetrainElectric, Premium: true},
}

var cities = []City{
	{Name: "London", Areas: []string{"E1", "E2", "E14", "N1", "SE1", "SW1", "W1", "WC1", "EC1"}, Center: models.Location{Lat: 51.5074, Lng: -0.1278}},
	{Name: "Manchester", Areas: []string{"M1", "M2", "M3", "M4", "M15"}, Center: models.Location{Lat: 53.4808, Lng: -2.2426}},
	{Name: "Birmingham", Areas: []string{"B1", "B2", "B3", "B4", "B5"}, Center: models.Location{Lat: 52.4862, Lng: -1.8904}},
	{Name: "Leeds", Areas: []string{"LS1", "LS2", "LS3", "LS4", "LS6"}, Center: models.Location{Lat: 53.8008, Lng: -1.5491}},
	{Name: "Bristol", Areas: []string{"BS1", "BS2", "BS3", "BS4", "BS5"}, Center: models.Location{Lat: 51.4545, Lng: -2.5879}},
	{Name: "Glasgow", Areas: []string{"G1", "G2", "G3", "G4", "G5"}, Center: models.Location{Lat: 55.8642, Lng: -4.2518}},
	{Name: "Edinburgh", Areas: []string{"EH1", "EH2", "EH3", "EH8", "EH9"}, Center: models.Location{Lat: 55.9533, Lng: -3.1883}},
	{Name: "Cardiff", Areas: []string{"CF10", "CF11", "CF14", "CF15", "CF23"}, Center: models.Location{Lat: 51.4816, Lng: -3.1791}},
	{Name: "Liverpool", Areas: []string{"L1", "L2", "L3", "L4", "L5"}, Center: models.Location{Lat: 53.4084, Lng: -2.9916}},
	{Name: "Newcastle", Areas: []string{"NE1", "NE2", "NE3", "NE4", "NE5"}, Center: models.Location{Lat: 54.9783, Lng: -1.6178}},
}

var featureSets = [][]string{
	{"Autopilot", "Lane Assist", "Parking Assist", "Backup Camera"},
	{"ProPilot", "Highway Assist", "360° Camera", "Blind Spot Detection"},
	{"Self Parking", "Cruise Control", "Emergency Braking", "Lane Departure Warning"},
	{"Traffic Sign Recognition", "Adaptive Cruise", "Night Vision", "Head-up Display"},
}

// Makes returns a copy of the manufacturer table.
func Makes() []Make {
	out := make([]Make, len(makes))
	for i, m := range makes {
		m.Models = append([]string(nil), m.Models...)
		out[i] = m
	}
	return out
}

// Cities returns a copy of the city table.
func Cities() []City {
	out := make([]City, len(cities))
	for i, c := range cities {
		c.Areas = append([]string(nil), c.Areas...)
		out[i] = c
	}
	return out
}

// CityByName looks a city up by its exact name.
func CityByName(name string) (City, bool) {
	for _, c := range cities {
		if c.Name == name {
			c.Areas = append([]string(nil), c.Areas...)
			return c, true
		}
	}
	return City{}, false
}

// Catalog is the option set a filter panel is built from.
type Catalog struct {
	Drivetrains []string            `json:"types"`
	Makes       []string            `json:"makes"`
	Features    []string            `json:"features"`
	Cities      []string            `json:"cities"`
	SortOptions []models.SortOption `json:"sort_options"`
	PriceRange  models.PriceRange   `json:"price_range"`
}

// Catalog describes the filter options for this fleet.
func (f *Fleet) Catalog() Catalog {
	c := Catalog{
		Drivetrains: []string{models.DrivetrainElectric, models.DrivetrainHybrid},
		SortOptions: append([]models.SortOption(nil), models.SortOptions...),
		PriceRange:  f.PriceBounds(),
	}
	for _, set := range featureSets {
		c.Features = append(c.Features, set...)
	}
	for _, m := range Makes() {
		c.Makes = append(c.Makes, m.Name)
	}
	for _, city := range cities {
		c.Cities = append(c.Cities, city.Name)
	}
	return c
}
