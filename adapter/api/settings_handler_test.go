package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settingsDTO struct {
	MaxDistanceKm            float64 `json:"max_distance_km"`
	TravelTimeBufferMinutes  int     `json:"travel_time_buffer_minutes"`
	MaxAppointmentsPerDay    int     `json:"max_appointments_per_day"`
	WorkingHoursStart        string  `json:"working_hours_start"`
	WorkingHoursEnd          string  `json:"working_hours_end"`
	PreferredCareGiverWeight float64 `json:"preferred_caregiver_weight"`
	DistanceWeight           float64 `json:"distance_weight"`
	AvailabilityWeight       float64 `json:"availability_weight"`
}

func TestSettingsDefaults(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dto settingsDTO
	decodeData(t, rec, &dto)
	assert.InDelta(t, 20.0, dto.MaxDistanceKm, 0.001)
	assert.Equal(t, 15, dto.TravelTimeBufferMinutes)
	assert.Equal(t, 8, dto.MaxAppointmentsPerDay)
	assert.Equal(t, "08:00", dto.WorkingHoursStart)
	assert.Equal(t, "22:00", dto.WorkingHoursEnd)
	assert.InDelta(t, 0.3, dto.PreferredCareGiverWeight, 0.001)
	assert.InDelta(t, 0.3, dto.DistanceWeight, 0.001)
	assert.InDelta(t, 0.4, dto.AvailabilityWeight, 0.001)
}

func TestSettingsUpdateRoundTrip(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPut, "/settings", map[string]any{
		"max_distance_km":            25.0,
		"travel_time_buffer_minutes": 20,
		"max_appointments_per_day":   6,
		"working_hours_start":        "07:30",
		"working_hours_end":          "21:30",
		"preferred_caregiver_weight": 0.2,
		"distance_weight":            0.35,
		"availability_weight":        0.45,
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var dto settingsDTO
	decodeData(t, rec, &dto)
	assert.InDelta(t, 25.0, dto.MaxDistanceKm, 0.001)
	assert.Equal(t, 20, dto.TravelTimeBufferMinutes)
	assert.Equal(t, 6, dto.MaxAppointmentsPerDay)
	assert.Equal(t, "07:30", dto.WorkingHoursStart)
	assert.Equal(t, "21:30", dto.WorkingHoursEnd)
	assert.InDelta(t, 0.45, dto.AvailabilityWeight, 0.001)

	// The cache was invalidated, so a fresh read sees the new document.
	rec = doJSON(t, srv, http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &dto)
	assert.InDelta(t, 25.0, dto.MaxDistanceKm, 0.001)
	assert.Equal(t, "07:30", dto.WorkingHoursStart)
}

func TestSettingsValidation(t *testing.T) {
	srv, _ := setupTestServer(t)

	valid := map[string]any{
		"max_distance_km":            25.0,
		"travel_time_buffer_minutes": 20,
		"max_appointments_per_day":   6,
		"working_hours_start":        "07:30",
		"working_hours_end":          "21:30",
		"preferred_caregiver_weight": 0.2,
		"distance_weight":            0.35,
		"availability_weight":        0.45,
	}

	t.Run("missing working hours", func(t *testing.T) {
		body := map[string]any{}
		for k, v := range valid {
			body[k] = v
		}
		body["working_hours_start"] = ""

		rec := doJSON(t, srv, http.MethodPut, "/settings", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, codeMissingFields, decodeError(t, rec).Code)
	})

	t.Run("weights must sum to one", func(t *testing.T) {
		body := map[string]any{}
		for k, v := range valid {
			body[k] = v
		}
		body["availability_weight"] = 0.9

		rec := doJSON(t, srv, http.MethodPut, "/settings", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, codeValidation, decodeError(t, rec).Code)
	})

	t.Run("malformed working hours", func(t *testing.T) {
		body := map[string]any{}
		for k, v := range valid {
			body[k] = v
		}
		body["working_hours_start"] = "7:30"

		rec := doJSON(t, srv, http.MethodPut, "/settings", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, codeValidation, decodeError(t, rec).Code)
	})

	t.Run("daily cap must be positive", func(t *testing.T) {
		body := map[string]any{}
		for k, v := range valid {
			body[k] = v
		}
		body["max_appointments_per_day"] = 0

		rec := doJSON(t, srv, http.MethodPut, "/settings", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, codeValidation, decodeError(t, rec).Code)
	})
}
