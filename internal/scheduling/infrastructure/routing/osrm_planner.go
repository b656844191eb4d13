// Package routing resolves door-to-door driving durations through an
// OSRM-compatible HTTP service. Lookups are best-effort: the client
// sits behind a circuit breaker and every failure path degrades to the
// 30 km/h straight-line estimate, so a scheduling run never blocks on
// the routing service.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/domicare/rota/pkg/geo"
	"github.com/sony/gobreaker/v2"
)

// Router resolves a driving duration in whole minutes and may fail.
// The Redis cache wraps a Router so it only stores real routed
// durations, never fallback estimates.
type Router interface {
	Route(ctx context.Context, from, to geo.Coordinates) (int, error)
}

// OSRMPlanner queries an OSRM route/v1/driving endpoint. It implements
// both Router (fallible, for cache layering) and the scheduling
// application's TravelPlanner (infallible, with the estimate fallback
// built in).
type OSRMPlanner struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[int]
	logger     *slog.Logger
}

// NewOSRMPlanner creates a planner for the given OSRM base URL. An
// empty baseURL disables the HTTP client entirely; DriveMinutes then
// always returns the straight-line estimate.
func NewOSRMPlanner(baseURL string, timeout time.Duration, logger *slog.Logger) *OSRMPlanner {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        "osrm",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("routing circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &OSRMPlanner{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker[int](settings),
		logger:     logger,
	}
}

// DriveMinutes returns the routed duration, or the straight-line
// estimate when the service is unreachable, returns garbage, or the
// breaker is open.
func (p *OSRMPlanner) DriveMinutes(ctx context.Context, from, to geo.Coordinates) int {
	minutes, err := p.Route(ctx, from, to)
	if err != nil {
		p.logger.Warn("routing lookup failed, using straight-line estimate",
			"error", err,
		)
		return geo.EstimateDriveMinutes(from, to)
	}
	return minutes
}

// Status reports whether lookups are currently degraded. An open
// breaker means recent requests failed and every lookup is falling back
// to the straight-line estimate.
func (p *OSRMPlanner) Status(_ context.Context) error {
	if p.baseURL == "" {
		return fmt.Errorf("routing service not configured")
	}
	if p.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("circuit breaker open after repeated failures")
	}
	return nil
}

// Route asks the OSRM service for the driving duration between the two
// coordinates, rounded up to whole minutes.
func (p *OSRMPlanner) Route(ctx context.Context, from, to geo.Coordinates) (int, error) {
	if p.baseURL == "" {
		return 0, fmt.Errorf("routing service not configured")
	}

	return p.breaker.Execute(func() (int, error) {
		return p.fetch(ctx, from, to)
	})
}

type osrmResponse struct {
	Routes []struct {
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

func (p *OSRMPlanner) fetch(ctx context.Context, from, to geo.Coordinates) (int, error) {
	// OSRM takes longitude,latitude pairs separated by semicolons.
	endpoint := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=false",
		p.baseURL, from.Longitude, from.Latitude, to.Longitude, to.Latitude)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("routing service returned status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode routing response: %w", err)
	}
	if len(body.Routes) == 0 {
		return 0, fmt.Errorf("no route between %.5f,%.5f and %.5f,%.5f",
			from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	}

	return int(math.Ceil(body.Routes[0].Duration / 60)), nil
}
