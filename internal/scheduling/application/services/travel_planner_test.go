package services

import (
	"context"
	"testing"

	"github.com/domicare/rota/pkg/geo"
	"github.com/stretchr/testify/assert"
)

func TestHaversinePlanner_MatchesStraightLineEstimate(t *testing.T) {
	planner := NewHaversinePlanner()
	from := geo.Coordinates{Latitude: 53.8008, Longitude: -1.5491}
	to := geo.Coordinates{Latitude: 53.9576, Longitude: -1.0827}

	got := planner.DriveMinutes(context.Background(), from, to)

	assert.Equal(t, geo.EstimateDriveMinutes(from, to), got)
	assert.Positive(t, got)
}

func TestTravelMemo_CachesRepeatedLegs(t *testing.T) {
	inner := &stubTravel{minutes: 7}
	memo := NewTravelMemo(inner)
	from := geo.Coordinates{Latitude: 53.8008, Longitude: -1.5491}
	to := geo.Coordinates{Latitude: 53.8100, Longitude: -1.5300}

	assert.Equal(t, 7, memo.DriveMinutes(context.Background(), from, to))
	assert.Equal(t, 7, memo.DriveMinutes(context.Background(), from, to))
	assert.Equal(t, 1, inner.calls, "second lookup must come from the cache")

	// The reverse leg is a different key.
	memo.DriveMinutes(context.Background(), to, from)
	assert.Equal(t, 2, inner.calls)
}

func TestTravelMemo_IgnoresSubMetreJitter(t *testing.T) {
	inner := &stubTravel{minutes: 4}
	memo := NewTravelMemo(inner)
	from := geo.Coordinates{Latitude: 53.8008, Longitude: -1.5491}
	to := geo.Coordinates{Latitude: 53.8100, Longitude: -1.5300}
	jittered := geo.Coordinates{Latitude: 53.81000000031, Longitude: -1.52999999984}

	memo.DriveMinutes(context.Background(), from, to)
	memo.DriveMinutes(context.Background(), from, jittered)

	assert.Equal(t, 1, inner.calls)
}
