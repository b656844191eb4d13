package services

import (
	"context"
	"fmt"
	"time"

	availabilityServices "github.com/domicare/rota/internal/availability/application/services"
	directoryDomain "github.com/domicare/rota/internal/directory/domain"
	"github.com/domicare/rota/internal/scheduling/domain"
	settingsDomain "github.com/domicare/rota/internal/settings/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/pkg/geo"
	"github.com/google/uuid"
)

// SettingsSource yields the current scheduling settings. Satisfied by
// the cached settings service.
type SettingsSource interface {
	Current(ctx context.Context) (*settingsDomain.SystemSettings, error)
}

// FeasibilityResult is the verdict on one care giver for one visit
// window. Reason is empty when the care giver is available; Conflicts
// carries the appointments that collide with the requested window.
type FeasibilityResult struct {
	Available bool
	Reason    string
	Conflicts []*domain.Appointment
}

// FeasibilityOracle answers whether a care giver can take a visit on a
// given day and window. Checks run in a fixed order and stop at the
// first failure: existence and active flag, time off, weekly pattern,
// daily cap, intra-day overlap, then the travel gap to the previous and
// next appointment of the day.
type FeasibilityOracle struct {
	careGivers    directoryDomain.CareGiverRepository
	careReceivers directoryDomain.CareReceiverRepository
	appointments  domain.AppointmentRepository
	versions      *availabilityServices.VersionResolver
	settings      SettingsSource
	travel        TravelPlanner
}

// NewFeasibilityOracle creates a new FeasibilityOracle.
func NewFeasibilityOracle(
	careGivers directoryDomain.CareGiverRepository,
	careReceivers directoryDomain.CareReceiverRepository,
	appointments domain.AppointmentRepository,
	versions *availabilityServices.VersionResolver,
	settings SettingsSource,
	travel TravelPlanner,
) *FeasibilityOracle {
	return &FeasibilityOracle{
		careGivers:    careGivers,
		careReceivers: careReceivers,
		appointments:  appointments,
		versions:      versions,
		settings:      settings,
		travel:        travel,
	}
}

// IsAvailable loads the care giver and runs the checks. Pass
// excludeAppointmentID when re-checking an appointment against its own
// day so it does not collide with itself.
func (o *FeasibilityOracle) IsAvailable(
	ctx context.Context,
	careGiverID uuid.UUID,
	date time.Time,
	window sharedDomain.TimeRange,
	receiverLocation geo.Coordinates,
	excludeAppointmentID *uuid.UUID,
) (*FeasibilityResult, error) {
	cg, err := o.careGivers.FindByID(ctx, careGiverID)
	if err != nil {
		return nil, err
	}
	if cg == nil {
		return unavailable("care giver not found"), nil
	}

	return o.IsAvailableFor(ctx, cg, date, window, receiverLocation, excludeAppointmentID)
}

// IsAvailableFor is IsAvailable for callers that already hold the care
// giver record.
func (o *FeasibilityOracle) IsAvailableFor(
	ctx context.Context,
	cg *directoryDomain.CareGiver,
	date time.Time,
	window sharedDomain.TimeRange,
	receiverLocation geo.Coordinates,
	excludeAppointmentID *uuid.UUID,
) (*FeasibilityResult, error) {
	day := sharedDomain.UTCDay(date)

	if !cg.IsActive() {
		return unavailable("care giver is not active"), nil
	}

	version, err := o.versions.ResolveForCareGiver(ctx, cg, day)
	if err != nil {
		return nil, err
	}

	// Both the versioned time-off list and the inline holiday list on
	// the care giver record count.
	if version.OnTimeOff(day) || cg.IsOnHoliday(day) {
		return unavailable(fmt.Sprintf("care giver is on time off on %s", day.Format("2006-01-02"))), nil
	}

	weekday := sharedDomain.DayOfWeekOf(day)
	if !version.Schedule().WorksOn(weekday) {
		return unavailable(fmt.Sprintf("care giver does not work on %s", weekday)), nil
	}
	if _, ok := version.SlotContaining(weekday, window); !ok {
		return unavailable(fmt.Sprintf("no availability window covers %s", window)), nil
	}

	settings, err := o.settings.Current(ctx)
	if err != nil {
		return nil, err
	}

	sameDay, err := o.appointments.FindByCareGiverAndDate(ctx, cg.ID(), day)
	if err != nil {
		return nil, err
	}
	occupied := occupying(sameDay, excludeAppointmentID)

	if len(occupied) >= settings.MaxAppointmentsPerDay() {
		return unavailable(fmt.Sprintf("daily limit of %d appointments reached", settings.MaxAppointmentsPerDay())), nil
	}

	var conflicts []*domain.Appointment
	for _, appt := range occupied {
		if appt.Window().Overlaps(window) {
			conflicts = append(conflicts, appt)
		}
	}
	if len(conflicts) > 0 {
		return &FeasibilityResult{
			Reason:    fmt.Sprintf("overlaps an existing appointment at %s", conflicts[0].Window()),
			Conflicts: conflicts,
		}, nil
	}

	// Travel checks need both endpoints; without the visit location
	// they are skipped.
	if receiverLocation.IsZero() {
		return &FeasibilityResult{Available: true}, nil
	}

	if prior := latestEndingBefore(occupied, window.Start); prior != nil {
		priorLocation, err := o.visitLocation(ctx, prior)
		if err != nil {
			return nil, err
		}
		if !priorLocation.IsZero() {
			gap := prior.Window().End.MinutesUntil(window.Start)
			required := o.travel.DriveMinutes(ctx, priorLocation, receiverLocation) + settings.TravelTimeBufferMinutes()
			if gap < required {
				return unavailable("insufficient travel time from previous"), nil
			}
		}
	}

	if next := earliestStartingAfter(occupied, window.End); next != nil {
		nextLocation, err := o.visitLocation(ctx, next)
		if err != nil {
			return nil, err
		}
		if !nextLocation.IsZero() {
			gap := window.End.MinutesUntil(next.Window().Start)
			required := o.travel.DriveMinutes(ctx, receiverLocation, nextLocation) + settings.TravelTimeBufferMinutes()
			if gap < required {
				return unavailable("insufficient travel time to next"), nil
			}
		}
	}

	return &FeasibilityResult{Available: true}, nil
}

// visitLocation resolves the home location of an appointment's care
// receiver. Missing receivers yield the zero location, which callers
// treat as "unknown".
func (o *FeasibilityOracle) visitLocation(ctx context.Context, appt *domain.Appointment) (geo.Coordinates, error) {
	receiver, err := o.careReceivers.FindByID(ctx, appt.CareReceiverID())
	if err != nil {
		return geo.Coordinates{}, err
	}
	if receiver == nil {
		return geo.Coordinates{}, nil
	}
	return receiver.Location(), nil
}

func unavailable(reason string) *FeasibilityResult {
	return &FeasibilityResult{Reason: reason}
}

// occupying keeps the appointments that count against caps and
// overlaps, dropping the excluded one.
func occupying(appointments []*domain.Appointment, exclude *uuid.UUID) []*domain.Appointment {
	kept := make([]*domain.Appointment, 0, len(appointments))
	for _, appt := range appointments {
		if !appt.Occupies() {
			continue
		}
		if exclude != nil && appt.ID() == *exclude {
			continue
		}
		kept = append(kept, appt)
	}
	return kept
}

// latestEndingBefore returns the appointment with the greatest end time
// still at or before start, or nil.
func latestEndingBefore(appointments []*domain.Appointment, start sharedDomain.ClockTime) *domain.Appointment {
	var prior *domain.Appointment
	for _, appt := range appointments {
		end := appt.Window().End
		if end.After(start) {
			continue
		}
		if prior == nil || end.After(prior.Window().End) {
			prior = appt
		}
	}
	return prior
}

// earliestStartingAfter returns the appointment with the smallest start
// time at or after end, or nil.
func earliestStartingAfter(appointments []*domain.Appointment, end sharedDomain.ClockTime) *domain.Appointment {
	var next *domain.Appointment
	for _, appt := range appointments {
		start := appt.Window().Start
		if start.Before(end) {
			continue
		}
		if next == nil || start.Before(next.Window().Start) {
			next = appt
		}
	}
	return next
}
