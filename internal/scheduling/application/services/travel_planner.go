package services

import (
	"context"
	"math"
	"sync"

	"github.com/domicare/rota/pkg/geo"
)

// TravelPlanner estimates door-to-door driving time between two
// coordinates. Implementations never fail: planners backed by an
// external routing service fall back to the straight-line estimate
// internally, so callers always receive a usable minute count.
type TravelPlanner interface {
	DriveMinutes(ctx context.Context, from, to geo.Coordinates) int
}

// HaversinePlanner estimates travel time from the great-circle
// distance assuming 30 km/h average door-to-door speed.
type HaversinePlanner struct{}

// NewHaversinePlanner creates a new HaversinePlanner.
func NewHaversinePlanner() *HaversinePlanner { return &HaversinePlanner{} }

func (*HaversinePlanner) DriveMinutes(_ context.Context, from, to geo.Coordinates) int {
	return geo.EstimateDriveMinutes(from, to)
}

// TravelMemo memoizes planner lookups. A single scheduling run asks for
// the same leg many times while it walks candidate lists; remembering
// answers for the duration of the run avoids repeated external calls.
type TravelMemo struct {
	planner TravelPlanner

	mu    sync.Mutex
	cache map[travelKey]int
}

type travelKey struct {
	fromLat, fromLon float64
	toLat, toLon     float64
}

// NewTravelMemo wraps a planner with an in-memory cache.
func NewTravelMemo(planner TravelPlanner) *TravelMemo {
	return &TravelMemo{
		planner: planner,
		cache:   make(map[travelKey]int),
	}
}

func (m *TravelMemo) DriveMinutes(ctx context.Context, from, to geo.Coordinates) int {
	key := travelKey{
		fromLat: roundCoord(from.Latitude),
		fromLon: roundCoord(from.Longitude),
		toLat:   roundCoord(to.Latitude),
		toLon:   roundCoord(to.Longitude),
	}

	m.mu.Lock()
	minutes, ok := m.cache[key]
	m.mu.Unlock()
	if ok {
		return minutes
	}

	minutes = m.planner.DriveMinutes(ctx, from, to)

	m.mu.Lock()
	m.cache[key] = minutes
	m.mu.Unlock()

	return minutes
}

// roundCoord collapses sub-metre jitter so equal locations share a
// cache entry.
func roundCoord(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
