package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carclub/internal/auth"
	"github.com/ukydev/carclub/internal/fleet"
	"github.com/ukydev/carclub/internal/geo"
	"github.com/ukydev/carclub/internal/models"
)

// jitterMeters keeps a visitor within walking distance of the city centre.
const jitterMeters = 500

// settings are read from the environment.
type settings struct {
	APIURL   string
	Visitors int
	Pause    time.Duration
}

func loadSettings(getenv func(string) string) settings {
	s := settings{
		APIURL:   "http://localhost:8080/api",
		Visitors: 5,
		Pause:    500 * time.Millisecond,
	}
	if v := getenv("API_BASE_URL"); v != "" {
		s.APIURL = strings.TrimRight(v, "/")
	}
	if v := getenv("SIM_VISITORS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			s.Visitors = n
		}
	}
	if v := getenv("SIM_PAUSE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			s.Pause = time.Duration(n) * time.Millisecond
		}
	}
	return s
}

// apiClient talks JSON to the carclub API.
type apiClient struct {
	baseURL string
	http    *http.Client
	token   string
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// statusError is returned for any non-2xx response.
type statusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type searchResult struct {
	Location string `json:"location"`
	IDs      []int  `json:"ids"`
	Count    int    `json:"count"`
}

type sessionView struct {
	ID       string           `json:"id"`
	Sort     models.SortKey   `json:"sort"`
	Fallback bool             `json:"fallback"`
	Vehicles []models.Vehicle `json:"vehicles"`
	Summary  models.Summary   `json:"summary"`
}

// visit is what one simulated visitor did.
type visit struct {
	City      string
	Postcode  string
	Found     int
	SessionID string
	Shown     int
	Booking   string
}

// runVisitor walks one visitor through search, session, location, sort,
// filter, sign-in and booking.
func runVisitor(ctx context.Context, c *apiClient, rng *rand.Rand, city fleet.City) (visit, error) {
	v := visit{City: city.Name, Postcode: city.Areas[rng.Intn(len(city.Areas))]}
	logger := log.WithFields(log.Fields{"city": v.City, "postcode": v.Postcode})

	var found searchResult
	if err := c.do(ctx, http.MethodGet, "/search?postcode="+v.Postcode, nil, &found); err != nil {
		return v, err
	}
	v.Found = found.Count
	logger.WithField("count", found.Count).Info("Searched postcode")

	var session sessionView
	if err := c.do(ctx, http.MethodPost, "/sessions", nil, &session); err != nil {
		return v, err
	}
	v.SessionID = session.ID
	path := "/sessions/" + session.ID
	defer func() {
		if err := c.do(context.Background(), http.MethodDelete, path, nil, nil); err != nil {
			logger.WithError(err).Warn("Failed to close session")
		}
	}()

	loc := geo.Jitter(city.Center, jitterMeters, rng.Float64)
	if err := c.do(ctx, http.MethodPut, path+"/location", loc, &session); err != nil {
		return v, err
	}
	if err := c.do(ctx, http.MethodPut, path+"/sort", map[string]models.SortKey{"sort": models.SortDistance}, &session); err != nil {
		return v, err
	}
	logger.WithFields(log.Fields{"lat": loc.Lat, "lng": loc.Lng, "sort": session.Sort}).Info("Sorted by distance")

	drivetrain := []string{models.DrivetrainElectric, models.DrivetrainHybrid}[rng.Intn(2)]
	filter := map[string][]string{"types": {drivetrain}}
	if err := c.do(ctx, http.MethodPatch, path+"/filters", filter, &session); err != nil {
		return v, err
	}
	v.Shown = session.Summary.Count
	logger.WithFields(log.Fields{"type": drivetrain, "count": session.Summary.Count}).Info("Filtered results")

	if len(session.Vehicles) == 0 {
		return v, nil
	}

	if c.token == "" {
		var login models.LoginResponse
		creds := models.LoginRequest{Email: auth.DemoEmail, Password: auth.DemoPassword}
		if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &login); err != nil {
			return v, err
		}
		c.token = login.Token
		logger.Info("Signed in")
	}

	pickup := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	req := models.BookingRequest{
		VehicleID: session.Vehicles[0].ID,
		Pickup:    pickup,
		Return:    pickup.Add(time.Duration(1+rng.Intn(3)) * 24 * time.Hour),
	}
	var quote models.Quote
	if err := c.do(ctx, http.MethodPost, "/bookings/quote", req, &quote); err != nil {
		return v, err
	}
	var booking models.Booking
	if err := c.do(ctx, http.MethodPost, "/bookings", req, &booking); err != nil {
		return v, err
	}
	v.Booking = booking.Reference
	logger.WithFields(log.Fields{
		"vehicle_id": req.VehicleID,
		"days":       quote.Days,
		"total":      quote.Total,
		"reference":  booking.Reference,
	}).Info("Booked vehicle")
	return v, nil
}

// simulate runs visitors one after another until done or ctx ends. It
// returns the number of visitors that completed without error.
func simulate(ctx context.Context, s settings, rng *rand.Rand) int {
	cities := fleet.Cities()
	c := newAPIClient(s.APIURL)
	ok := 0
	for i := 0; i < s.Visitors; i++ {
		city := cities[rng.Intn(len(cities))]
		if _, err := runVisitor(ctx, c, rng, city); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			log.WithError(err).WithField("visitor", i+1).Error("Visitor failed")
		} else {
			ok++
		}

		select {
		case <-ctx.Done():
			return ok
		case <-time.After(s.Pause):
		}
	}
	return ok
}

func main() {
	s := loadSettings(os.Getenv)
	log.WithFields(log.Fields{
		"api_url":  s.APIURL,
		"visitors": s.Visitors,
		"pause":    s.Pause,
	}).Info("Starting visitor simulation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ok := simulate(ctx, s, rand.New(rand.NewSource(time.Now().UnixNano())))
	log.WithFields(log.Fields{"completed": ok, "visitors": s.Visitors}).Info("Simulation finished")
	if ok == 0 {
		os.Exit(1)
	}
}
