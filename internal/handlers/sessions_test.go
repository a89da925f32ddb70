package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/carclub/internal/models"
	"github.com/ukydev/carclub/internal/query"
)

func createSession(t *testing.T, s *testServer) SessionResponse {
	t.Helper()
	w := s.do(t, "POST", "/api/sessions", nil, "")
	require.Equal(t, http.StatusCreated, w.Code)
	return decode[SessionResponse](t, w)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	created := createSession(t, s)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, models.SortPriceAsc, created.State.Sort)
	assert.Equal(t, models.ViewGrid, created.State.View)
	assert.Equal(t, models.PriceRange{Min: 46, Max: 53}, created.State.PriceRange)
	assert.Equal(t, 8, created.Summary.Count)
	assert.Nil(t, created.Map)

	path := "/api/sessions/" + created.ID

	t.Run("get", func(t *testing.T) {
		w := s.do(t, "GET", path, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, created.ID, decode[SessionResponse](t, w).ID)
	})

	t.Run("filters", func(t *testing.T) {
		w := s.do(t, "PATCH", path+"/filters", map[string]interface{}{"types": []string{"Hybrid"}}, "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[SessionResponse](t, w)
		assert.Equal(t, []int{1, 3}, query.IDs(resp.Vehicles))

		w = s.do(t, "PATCH", path+"/filters", map[string]interface{}{
			"price_range": map[string]int{"min": 60},
		}, "")
		require.Equal(t, http.StatusOK, w.Code)
		resp = decode[SessionResponse](t, w)
		assert.Equal(t, models.PriceRange{Min: 60, Max: 53}, resp.State.PriceRange)
		assert.Equal(t, 0, resp.Summary.Count)

		w = s.do(t, "PATCH", path+"/filters", map[string]interface{}{
			"price_range": map[string]int{"min": 0, "max": 47},
		}, "")
		resp = decode[SessionResponse](t, w)
		assert.Equal(t, models.PriceRange{Min: 46, Max: 47}, resp.State.PriceRange)
		assert.Equal(t, []int{1}, query.IDs(resp.Vehicles))
	})

	t.Run("map view", func(t *testing.T) {
		w := s.do(t, "PUT", path+"/view", map[string]string{"view": "map"}, "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[SessionResponse](t, w)
		require.NotNil(t, resp.Map)
		assert.Len(t, resp.Map.Markers, 1)

		w = s.do(t, "PUT", path+"/view", map[string]string{"view": "list"}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("clear keeps view", func(t *testing.T) {
		w := s.do(t, "POST", path+"/clear", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[SessionResponse](t, w)
		assert.Equal(t, 8, resp.Summary.Count)
		assert.Empty(t, resp.State.Types)
		assert.Equal(t, models.ViewMap, resp.State.View)
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, s.do(t, "DELETE", path, nil, "").Code)
		assert.Equal(t, http.StatusNotFound, s.do(t, "GET", path, nil, "").Code)
		assert.Equal(t, http.StatusNotFound, s.do(t, "DELETE", path, nil, "").Code)
	})
}

func TestSessionSortAndLocation(t *testing.T) {
	s := newTestServer(t)
	path := "/api/sessions/" + createSession(t, s).ID

	t.Run("distance without location falls back", func(t *testing.T) {
		w := s.do(t, "PUT", path+"/sort", map[string]string{"sort": "distance"}, "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[SessionResponse](t, w)
		assert.True(t, resp.Fallback)
		assert.Equal(t, models.SortPriceAsc, resp.State.Sort)
		require.Len(t, resp.Notices, 1)
		assert.Equal(t, "SORT_001", resp.Notices[0].Code)

		// The fallback was written back, so the next read is clean.
		resp = decode[SessionResponse](t, s.do(t, "GET", path, nil, ""))
		assert.False(t, resp.Fallback)
		assert.Empty(t, resp.Notices)
	})

	t.Run("location enables distance sort", func(t *testing.T) {
		w := s.do(t, "PUT", path+"/location", map[string]float64{"lat": 51.5, "lng": -0.12}, "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[SessionResponse](t, w)
		require.NotNil(t, resp.State.UserLocation)
		assert.Equal(t, 51.5, resp.State.UserLocation.Lat)

		w = s.do(t, "PUT", path+"/sort", map[string]string{"sort": "distance"}, "")
		resp = decode[SessionResponse](t, w)
		assert.False(t, resp.Fallback)
		assert.Equal(t, models.SortDistance, resp.State.Sort)
	})

	t.Run("unknown sort selects price-asc", func(t *testing.T) {
		w := s.do(t, "PUT", path+"/sort", map[string]string{"sort": "colour"}, "")
		assert.Equal(t, models.SortPriceAsc, decode[SessionResponse](t, w).State.Sort)
	})

	t.Run("invalid coordinates", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest,
			s.do(t, "PUT", path+"/location", map[string]float64{"lat": 95, "lng": 0}, "").Code)
		assert.Equal(t, http.StatusBadRequest,
			s.do(t, "PUT", path+"/location", map[string]float64{"lat": 51}, "").Code)
		assert.Equal(t, http.StatusBadRequest,
			s.do(t, "PUT", path+"/location", "{", "").Code)
	})

	t.Run("denied location clears it", func(t *testing.T) {
		w := s.do(t, "PUT", path+"/location", map[string]bool{"denied": true}, "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[SessionResponse](t, w)
		assert.Nil(t, resp.State.UserLocation)
		require.NotEmpty(t, resp.Notices)
		assert.Equal(t, "GEO_001", resp.Notices[0].Code)
	})
}

func TestSession_NotFound(t *testing.T) {
	s := newTestServer(t)
	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/sessions/missing"},
		{"PATCH", "/api/sessions/missing/filters"},
		{"PUT", "/api/sessions/missing/sort"},
		{"POST", "/api/sessions/missing/clear"},
	} {
		w := s.do(t, tc.method, tc.path, map[string]string{}, "")
		assert.Equal(t, http.StatusNotFound, w.Code, tc.method+" "+tc.path)
	}
}
