package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ukydev/carclub/internal/auth"
	"github.com/ukydev/carclub/internal/booking"
	"github.com/ukydev/carclub/internal/cache"
	"github.com/ukydev/carclub/internal/db"
	"github.com/ukydev/carclub/internal/fleet"
	"github.com/ukydev/carclub/internal/notice"
	"github.com/ukydev/carclub/internal/state"
)

type testServer struct {
	handler http.Handler
	deps    Deps
	tokens  *auth.Service
	cache   *cache.Memory
}

// newTestServer wires the router over an eight vehicle fleet, all in
// London, priced 46 to 53 in id order.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	f := fleet.New(8)
	tokens := auth.NewService("test-secret", time.Hour)
	users := db.NewMemoryUserCollection()
	_, err := auth.SeedDemoUser(context.Background(), tokens, users)
	require.NoError(t, err)

	mem := cache.NewMemory()
	deps := Deps{
		Fleet:         f,
		Sessions:      state.NewSessions(f.PriceBounds()),
		Notices:       notice.NewService(nil),
		Cache:         mem,
		CacheTTL:      time.Minute,
		Authenticator: auth.NewAuthenticator(tokens, users, 0),
		Users:         users,
		Bookings:      booking.NewService(f, db.NewMemoryBookingCollection(), nil, 0),
	}
	return &testServer{handler: NewRouter(deps), deps: deps, tokens: tokens, cache: mem}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	w := s.do(t, "POST", "/api/auth/login", map[string]string{
		"email":    auth.DemoEmail,
		"password": auth.DemoPassword,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
