package domain

import (
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/google/uuid"
)

// settingsAggregateID is the fixed id of the settings singleton.
var settingsAggregateID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// SettingsUpdated is emitted when the singleton is rewritten.
type SettingsUpdated struct {
	sharedDomain.BaseEvent
	MaxDistanceKm            float64 `json:"max_distance_km"`
	TravelTimeBufferMinutes  int     `json:"travel_time_buffer_minutes"`
	MaxAppointmentsPerDay    int     `json:"max_appointments_per_day"`
	WorkingHoursStart        string  `json:"working_hours_start"`
	WorkingHoursEnd          string  `json:"working_hours_end"`
	PreferredCareGiverWeight float64 `json:"preferred_caregiver_weight"`
	DistanceWeight           float64 `json:"distance_weight"`
	AvailabilityWeight       float64 `json:"availability_weight"`
}

// NewSettingsUpdated creates a SettingsUpdated event.
func NewSettingsUpdated(s *SystemSettings) *SettingsUpdated {
	return &SettingsUpdated{
		BaseEvent:                sharedDomain.NewBaseEvent(settingsAggregateID, "SystemSettings", "rota.settings.updated"),
		MaxDistanceKm:            s.MaxDistanceKm(),
		TravelTimeBufferMinutes:  s.TravelTimeBufferMinutes(),
		MaxAppointmentsPerDay:    s.MaxAppointmentsPerDay(),
		WorkingHoursStart:        s.WorkingHours().Start.String(),
		WorkingHoursEnd:          s.WorkingHours().End.String(),
		PreferredCareGiverWeight: s.PreferredCareGiverWeight(),
		DistanceWeight:           s.DistanceWeight(),
		AvailabilityWeight:       s.AvailabilityWeight(),
	}
}
