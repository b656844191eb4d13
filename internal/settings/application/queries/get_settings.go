package queries

import (
	"context"
	"time"

	"github.com/domicare/rota/internal/settings/application/services"
	"github.com/domicare/rota/internal/settings/domain"
)

// SettingsDTO is the wire representation of the settings singleton.
type SettingsDTO struct {
	MaxDistanceKm            float64   `json:"max_distance_km"`
	TravelTimeBufferMinutes  int       `json:"travel_time_buffer_minutes"`
	MaxAppointmentsPerDay    int       `json:"max_appointments_per_day"`
	WorkingHoursStart        string    `json:"working_hours_start"`
	WorkingHoursEnd          string    `json:"working_hours_end"`
	PreferredCareGiverWeight float64   `json:"preferred_caregiver_weight"`
	DistanceWeight           float64   `json:"distance_weight"`
	AvailabilityWeight       float64   `json:"availability_weight"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// NewSettingsDTO converts domain settings to a DTO.
func NewSettingsDTO(s *domain.SystemSettings) SettingsDTO {
	return SettingsDTO{
		MaxDistanceKm:            s.MaxDistanceKm(),
		TravelTimeBufferMinutes:  s.TravelTimeBufferMinutes(),
		MaxAppointmentsPerDay:    s.MaxAppointmentsPerDay(),
		WorkingHoursStart:        s.WorkingHours().Start.String(),
		WorkingHoursEnd:          s.WorkingHours().End.String(),
		PreferredCareGiverWeight: s.PreferredCareGiverWeight(),
		DistanceWeight:           s.DistanceWeight(),
		AvailabilityWeight:       s.AvailabilityWeight(),
		UpdatedAt:                s.UpdatedAt(),
	}
}

// GetSettingsHandler serves the settings singleton through the cache.
type GetSettingsHandler struct {
	settings *services.CachedSettings
}

// NewGetSettingsHandler creates a new GetSettingsHandler.
func NewGetSettingsHandler(settings *services.CachedSettings) *GetSettingsHandler {
	return &GetSettingsHandler{settings: settings}
}

// Handle returns the settings in force.
func (h *GetSettingsHandler) Handle(ctx context.Context) (*SettingsDTO, error) {
	s, err := h.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	dto := NewSettingsDTO(s)
	return &dto, nil
}
