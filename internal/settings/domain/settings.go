package domain

import (
	"errors"
	"math"
	"time"

	sharedDomain "github.com/domicare/rota/internal/shared/domain"
)

var (
	ErrInvalidMaxDistance  = errors.New("max distance must be greater than zero")
	ErrInvalidTravelBuffer = errors.New("travel time buffer must not be negative")
	ErrInvalidDailyCap     = errors.New("max appointments per day must be at least 1")
	ErrInvalidWeight       = errors.New("scoring weights must lie between 0 and 1")
	ErrWeightSum           = errors.New("scoring weights must sum to 1.0")
)

// weightTolerance is the allowed drift when checking that the three
// scoring weights sum to 1.0.
const weightTolerance = 0.01

// SystemSettings is the service-wide configuration singleton. There is
// exactly one row; callers read it through the cached settings service.
type SystemSettings struct {
	maxDistanceKm            float64
	travelTimeBufferMinutes  int
	maxAppointmentsPerDay    int
	workingHours             sharedDomain.TimeRange
	preferredCareGiverWeight float64
	distanceWeight           float64
	availabilityWeight       float64
	updatedAt                time.Time
}

// SystemSettingsSpec carries the fields for building settings.
type SystemSettingsSpec struct {
	MaxDistanceKm            float64
	TravelTimeBufferMinutes  int
	MaxAppointmentsPerDay    int
	WorkingHours             sharedDomain.TimeRange
	PreferredCareGiverWeight float64
	DistanceWeight           float64
	AvailabilityWeight       float64
}

// DefaultSystemSettings returns the defaults the migration seeds: 20 km
// radius, 15 minute travel buffer, 8 visits per care giver per day,
// working hours 08:00-22:00 and weights 0.3/0.3/0.4.
func DefaultSystemSettings() *SystemSettings {
	return &SystemSettings{
		maxDistanceKm:            20,
		travelTimeBufferMinutes:  15,
		maxAppointmentsPerDay:    8,
		workingHours:             sharedDomain.MustTimeRange("08:00", "22:00"),
		preferredCareGiverWeight: 0.3,
		distanceWeight:           0.3,
		availabilityWeight:       0.4,
		updatedAt:                time.Now().UTC(),
	}
}

// NewSystemSettings validates and builds a settings value.
func NewSystemSettings(spec SystemSettingsSpec) (*SystemSettings, error) {
	s := &SystemSettings{
		maxDistanceKm:            spec.MaxDistanceKm,
		travelTimeBufferMinutes:  spec.TravelTimeBufferMinutes,
		maxAppointmentsPerDay:    spec.MaxAppointmentsPerDay,
		workingHours:             spec.WorkingHours,
		preferredCareGiverWeight: spec.PreferredCareGiverWeight,
		distanceWeight:           spec.DistanceWeight,
		availabilityWeight:       spec.AvailabilityWeight,
		updatedAt:                time.Now().UTC(),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Getters
func (s *SystemSettings) MaxDistanceKm() float64               { return s.maxDistanceKm }
func (s *SystemSettings) TravelTimeBufferMinutes() int         { return s.travelTimeBufferMinutes }
func (s *SystemSettings) MaxAppointmentsPerDay() int           { return s.maxAppointmentsPerDay }
func (s *SystemSettings) WorkingHours() sharedDomain.TimeRange { return s.workingHours }
func (s *SystemSettings) PreferredCareGiverWeight() float64    { return s.preferredCareGiverWeight }
func (s *SystemSettings) DistanceWeight() float64              { return s.distanceWeight }
func (s *SystemSettings) AvailabilityWeight() float64          { return s.availabilityWeight }
func (s *SystemSettings) UpdatedAt() time.Time                 { return s.updatedAt }

// Validate checks the invariants before a save is accepted.
func (s *SystemSettings) Validate() error {
	if s.maxDistanceKm <= 0 {
		return ErrInvalidMaxDistance
	}
	if s.travelTimeBufferMinutes < 0 {
		return ErrInvalidTravelBuffer
	}
	if s.maxAppointmentsPerDay < 1 {
		return ErrInvalidDailyCap
	}
	if err := s.workingHours.Validate(); err != nil {
		return err
	}

	for _, w := range []float64{s.preferredCareGiverWeight, s.distanceWeight, s.availabilityWeight} {
		if w < 0 || w > 1 {
			return ErrInvalidWeight
		}
	}

	sum := s.preferredCareGiverWeight + s.distanceWeight + s.availabilityWeight
	if math.Abs(sum-1.0) > weightTolerance {
		return ErrWeightSum
	}

	return nil
}

// RehydrateSystemSettings recreates settings from persisted state.
func RehydrateSystemSettings(
	maxDistanceKm float64,
	travelTimeBufferMinutes int,
	maxAppointmentsPerDay int,
	workingHours sharedDomain.TimeRange,
	preferredCareGiverWeight float64,
	distanceWeight float64,
	availabilityWeight float64,
	updatedAt time.Time,
) *SystemSettings {
	return &SystemSettings{
		maxDistanceKm:            maxDistanceKm,
		travelTimeBufferMinutes:  travelTimeBufferMinutes,
		maxAppointmentsPerDay:    maxAppointmentsPerDay,
		workingHours:             workingHours,
		preferredCareGiverWeight: preferredCareGiverWeight,
		distanceWeight:           distanceWeight,
		availabilityWeight:       availabilityWeight,
		updatedAt:                updatedAt,
	}
}
