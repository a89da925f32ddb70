package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/carclub/internal/fleet"
	"github.com/ukydev/carclub/internal/mapview"
	"github.com/ukydev/carclub/internal/models"
	"github.com/ukydev/carclub/internal/query"
)

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, "GET", "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetCatalog(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, "GET", "/api/catalog", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	c := decode[fleet.Catalog](t, w)
	assert.Equal(t, models.PriceRange{Min: 46, Max: 53}, c.PriceRange)
	assert.Len(t, c.SortOptions, len(models.SortOptions))
	assert.Contains(t, c.Cities, "London")
	assert.Contains(t, c.Makes, "Tesla")
}

func TestListVehicles(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		path  string
		ids   []int
		count int
	}{
		{"default order", "/api/vehicles", []int{1, 2, 3, 4, 5, 6, 7, 8}, 8},
		{"price desc", "/api/vehicles?sort=price-desc", []int{8, 7, 6, 5, 4, 3, 2, 1}, 8},
		{"unknown sort", "/api/vehicles?sort=sideways", []int{1, 2, 3, 4, 5, 6, 7, 8}, 8},
		{"hybrid only", "/api/vehicles?type=Hybrid", []int{1, 3}, 2},
		{"min price", "/api/vehicles?min_price=50", []int{5, 6, 7, 8}, 4},
		{"malformed price ignored", "/api/vehicles?min_price=abc&max_price=", []int{1, 2, 3, 4, 5, 6, 7, 8}, 8},
		{"swapped bounds", "/api/vehicles?min_price=48&max_price=47", []int{2, 3}, 2},
		{"max only below the fleet", "/api/vehicles?max_price=40", []int{}, 0},
		{"min only above the fleet", "/api/vehicles?min_price=60", []int{}, 0},
		{"both below the fleet", "/api/vehicles?min_price=0&max_price=40", []int{}, 0},
		{"max only inside", "/api/vehicles?max_price=47", []int{1, 2}, 2},
		{"feature", "/api/vehicles?feature=camera", []int{5}, 1},
		{"preselected ids", "/api/vehicles?cars=%5B7,2%5D", []int{2, 7}, 2},
		{"malformed ids ignored", "/api/vehicles?cars=not-json", []int{1, 2, 3, 4, 5, 6, 7, 8}, 8},
		{"unknown postcode", "/api/vehicles?location=XX1", []int{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, "GET", tt.path, nil, "")
			require.Equal(t, http.StatusOK, w.Code)

			resp := decode[QueryResponse](t, w)
			assert.Equal(t, tt.ids, query.IDs(resp.Vehicles))
			assert.Equal(t, tt.count, resp.Summary.Count)
			assert.Empty(t, resp.Notices)
		})
	}
}

func TestListVehicles_DistanceFallback(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "GET", "/api/vehicles?sort=distance", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[QueryResponse](t, w)
	assert.True(t, resp.Fallback)
	assert.Equal(t, models.SortPriceAsc, resp.Sort)
	assert.Equal(t, models.SortDistance, resp.Requested)
	require.Len(t, resp.Notices, 1)
	assert.Equal(t, "SORT_001", resp.Notices[0].Code)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, query.IDs(resp.Vehicles))

	w = s.do(t, "GET", "/api/vehicles?sort=distance&lat=51.5&lng=-0.12", nil, "")
	resp = decode[QueryResponse](t, w)
	assert.False(t, resp.Fallback)
	assert.Equal(t, models.SortDistance, resp.Sort)
	assert.Empty(t, resp.Notices)
	assert.Len(t, resp.Vehicles, 8)
}

func TestListVehicles_GroupByClub(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, "GET", "/api/vehicles?group=club", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[QueryResponse](t, w)
	require.Len(t, resp.Clubs, 2)
	assert.Equal(t, []int{1, 2, 3, 4}, query.IDs(resp.Clubs[0].Vehicles))
	assert.Equal(t, []int{5, 6, 7, 8}, query.IDs(resp.Clubs[1].Vehicles))
}

func TestGetVehicle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "GET", "/api/vehicles/3", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	v := decode[models.Vehicle](t, w)
	assert.Equal(t, 3, v.ID)
	assert.Equal(t, fleet.GenerateVehicle(3), v)

	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/vehicles/999", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, "GET", "/api/vehicles/abc", nil, "").Code)
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)

	t.Run("no match", func(t *testing.T) {
		w := s.do(t, "GET", "/api/search?postcode=xx1", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[SearchResponse](t, w)
		assert.Equal(t, "xx1", resp.Query)
		assert.Equal(t, "XX1", resp.Location)
		assert.Equal(t, 0, resp.Count)
		assert.NotNil(t, resp.IDs)
		assert.Empty(t, resp.IDs)
	})

	t.Run("blank query returns the fleet", func(t *testing.T) {
		w := s.do(t, "GET", "/api/search?postcode=", nil, "")
		resp := decode[SearchResponse](t, w)
		assert.Equal(t, 8, resp.Count)
	})

	t.Run("results are cached by normalized query", func(t *testing.T) {
		postcode := fleet.GenerateVehicle(1).Postcode
		w := s.do(t, "GET", "/api/search?postcode="+postcode, nil, "")
		first := decode[SearchResponse](t, w)
		assert.Contains(t, first.IDs, 1)

		_, err := s.cache.Get(context.Background(), "search:"+query.NormalizePostcode(postcode))
		require.NoError(t, err)

		w = s.do(t, "GET", "/api/search?postcode="+postcode, nil, "")
		second := decode[SearchResponse](t, w)
		assert.Equal(t, first.IDs, second.IDs)
	})
}

func TestGetMap(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "GET", "/api/map?type=hybrid", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	m := decode[mapview.Map](t, w)
	assert.Equal(t, mapview.DefaultZoom, m.Zoom)
	assert.Equal(t, mapview.DefaultCenter, m.Center)
	require.Len(t, m.Markers, 2)
	assert.Equal(t, mapview.IconHybrid, m.Markers[0].Icon)
	assert.NotNil(t, m.Bounds)

	w = s.do(t, "GET", "/api/map?lat=51.5&lng=-0.12", nil, "")
	m = decode[mapview.Map](t, w)
	assert.Equal(t, mapview.UserZoom, m.Zoom)
	assert.Equal(t, models.Location{Lat: 51.5, Lng: -0.12}, m.Center)
	assert.Len(t, m.Markers, 8)
}
