package fleet

import "github.com/ukydev/carclub/internal/models"

// Fleet is an immutable, id-indexed set of generated vehicles. It is safe
// for concurrent readers.
type Fleet struct {
	vehicles []models.Vehicle
	byID     map[int]int
	bounds   models.PriceRange
}

// New generates a fleet of the given size.
func New(size int) *Fleet {
	return FromVehicles(Generate(size))
}

// FromVehicles wraps an existing record list. The slice is copied.
func FromVehicles(vehicles []models.Vehicle) *Fleet {
	f := &Fleet{
		vehicles: append([]models.Vehicle(nil), vehicles...),
		byID:     make(map[int]int, len(vehicles)),
	}
	for i, v := range f.vehicles {
		f.byID[v.ID] = i
	}
	f.bounds = models.PriceBoundsOf(f.vehicles)
	return f
}

// All returns the vehicles in id order. The returned slice is a copy.
func (f *Fleet) All() []models.Vehicle {
	return append([]models.Vehicle(nil), f.vehicles...)
}

// Len returns the fleet size.
func (f *Fleet) Len() int {
	return len(f.vehicles)
}

// ByID finds a vehicle by its id.
func (f *Fleet) ByID(id int) (models.Vehicle, bool) {
	i, ok := f.byID[id]
	if !ok {
		return models.Vehicle{}, false
	}
	return f.vehicles[i], true
}

// PriceBounds returns the lowest and highest daily price in the fleet.
func (f *Fleet) PriceBounds() models.PriceRange {
	return f.bounds
}
