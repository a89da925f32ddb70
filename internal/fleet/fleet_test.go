package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ukydev/carclub/internal/models"
)

func TestFleet(t *testing.T) {
	f := New(500)

	assert.Equal(t, 500, f.Len())
	assert.Equal(t, models.PriceRange{Min: 46, Max: 104}, f.PriceBounds())

	v, ok := f.ByID(45)
	assert.True(t, ok)
	assert.Equal(t, "Hyundai", v.Make)

	_, ok = f.ByID(0)
	assert.False(t, ok)
	_, ok = f.ByID(501)
	assert.False(t, ok)
}

func TestFleet_AllReturnsCopy(t *testing.T) {
	f := New(3)
	all := f.All()
	all[0].Make = "Changed"

	v, _ := f.ByID(1)
	assert.Equal(t, "BMW", v.Make)
}

func TestFleet_Empty(t *testing.T) {
	f := New(0)
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, models.PriceRange{}, f.PriceBounds())
	assert.Empty(t, f.All())
}

func TestFleet_Catalog(t *testing.T) {
	c := New(500).Catalog()

	assert.Equal(t, []string{"Electric", "Hybrid"}, c.Drivetrains)
	assert.Equal(t, []string{"Tesla", "BMW", "Volkswagen", "Toyota", "Nissan",
		"Hyundai", "Mini", "Kia", "Audi", "Mercedes"}, c.Makes)
	assert.Len(t, c.Features, 16)
	assert.Contains(t, c.Features, "Backup Camera")
	assert.Len(t, c.Cities, 10)
	assert.Len(t, c.SortOptions, 5)
	assert.Equal(t, models.PriceRange{Min: 46, Max: 104}, c.PriceRange)
}

func TestMakesReturnsCopy(t *testing.T) {
	m := Makes()
	m[0].Models[0] = "Roadster"
	assert.Equal(t, "Model 3", Makes()[0].Models[0])
	assert.Len(t, Cities(), 10)
}
