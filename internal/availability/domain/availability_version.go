package domain

import (
	"errors"
	"fmt"
	"time"

	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrVersionClosed   = errors.New("availability version is already closed")
	ErrVersionNotFound = errors.New("availability version not found")
)

// AvailabilityVersion is one entry in a care giver's append-only
// availability history. At most one open-ended active version exists per
// care giver; creating a new version closes the previous one at the new
// version's effective-from instant.
type AvailabilityVersion struct {
	sharedDomain.BaseAggregateRoot
	careGiverID   uuid.UUID
	versionNumber int
	schedule      sharedDomain.WeeklySchedule
	timeOff       []sharedDomain.TimeOffInterval
	effectiveFrom time.Time
	effectiveTo   *time.Time
	active        bool
}

// NewAvailabilityVersion creates an open-ended active version. The
// caller assigns the next version number under a per-care-giver lock.
func NewAvailabilityVersion(
	careGiverID uuid.UUID,
	versionNumber int,
	schedule sharedDomain.WeeklySchedule,
	timeOff []sharedDomain.TimeOffInterval,
	effectiveFrom time.Time,
) (*AvailabilityVersion, error) {
	if versionNumber < 1 {
		return nil, fmt.Errorf("version number must be positive, got %d", versionNumber)
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	av := &AvailabilityVersion{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		careGiverID:       careGiverID,
		versionNumber:     versionNumber,
		schedule:          schedule.Clone(),
		timeOff:           timeOff,
		effectiveFrom:     sharedDomain.UTCDay(effectiveFrom),
		active:            true,
	}

	av.AddDomainEvent(NewVersionCreated(av))

	return av, nil
}

// Getters
func (av *AvailabilityVersion) CareGiverID() uuid.UUID                  { return av.careGiverID }
func (av *AvailabilityVersion) VersionNumber() int                      { return av.versionNumber }
func (av *AvailabilityVersion) Schedule() sharedDomain.WeeklySchedule   { return av.schedule }
func (av *AvailabilityVersion) TimeOff() []sharedDomain.TimeOffInterval { return av.timeOff }
func (av *AvailabilityVersion) EffectiveFrom() time.Time                { return av.effectiveFrom }
func (av *AvailabilityVersion) EffectiveTo() *time.Time                 { return av.effectiveTo }
func (av *AvailabilityVersion) IsActive() bool                          { return av.active }

// IsOpen reports whether the version has no end date yet.
func (av *AvailabilityVersion) IsOpen() bool {
	return av.effectiveTo == nil
}

// Close ends the version at the given instant and deactivates it.
// Called when a successor version takes effect.
func (av *AvailabilityVersion) Close(at time.Time) error {
	if av.effectiveTo != nil {
		return ErrVersionClosed
	}
	end := sharedDomain.UTCDay(at)
	av.effectiveTo = &end
	av.active = false
	av.Touch()
	return nil
}

// InForceAt reports whether the version covers the given UTC day,
// ignoring the active flag. Historical audit uses this directly.
func (av *AvailabilityVersion) InForceAt(date time.Time) bool {
	day := sharedDomain.UTCDay(date)
	if day.Before(av.effectiveFrom) {
		return false
	}
	return av.effectiveTo == nil || !day.After(*av.effectiveTo)
}

// OnTimeOff reports whether a time-off interval covers the date.
func (av *AvailabilityVersion) OnTimeOff(date time.Time) bool {
	_, covered := sharedDomain.CoveringTimeOff(av.timeOff, date)
	return covered
}

// AvailableAt reports whether some slot of the weekday contains the
// given time.
func (av *AvailabilityVersion) AvailableAt(day sharedDomain.DayOfWeek, at sharedDomain.ClockTime) bool {
	return av.schedule.ContainsTime(day, at)
}

// SlotContaining returns the first slot of the weekday that fully
// contains the window.
func (av *AvailabilityVersion) SlotContaining(day sharedDomain.DayOfWeek, window sharedDomain.TimeRange) (sharedDomain.TimeRange, bool) {
	return av.schedule.SlotContaining(day, window)
}

// NewInlineVersion synthesizes a read-only pseudo-version from a care
// giver's inline weekly pattern and holiday list. Used for rows that
// predate the availability store; never persisted.
func NewInlineVersion(
	careGiverID uuid.UUID,
	schedule sharedDomain.WeeklySchedule,
	holidays []sharedDomain.TimeOffInterval,
) *AvailabilityVersion {
	return &AvailabilityVersion{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		careGiverID:       careGiverID,
		versionNumber:     0,
		schedule:          schedule.Clone(),
		timeOff:           holidays,
		effectiveFrom:     time.Time{},
		active:            true,
	}
}

// IsInline reports whether this is a synthesized pseudo-version rather
// than a stored one.
func (av *AvailabilityVersion) IsInline() bool {
	return av.versionNumber == 0
}

// RehydrateAvailabilityVersion recreates a version from persisted state
// without generating events.
func RehydrateAvailabilityVersion(
	id, careGiverID uuid.UUID,
	versionNumber int,
	schedule sharedDomain.WeeklySchedule,
	timeOff []sharedDomain.TimeOffInterval,
	effectiveFrom time.Time,
	effectiveTo *time.Time,
	active bool,
	createdAt, updatedAt time.Time,
) *AvailabilityVersion {
	baseEntity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	baseAggregate := sharedDomain.RehydrateBaseAggregateRoot(baseEntity, versionNumber)

	return &AvailabilityVersion{
		BaseAggregateRoot: baseAggregate,
		careGiverID:       careGiverID,
		versionNumber:     versionNumber,
		schedule:          schedule,
		timeOff:           timeOff,
		effectiveFrom:     effectiveFrom,
		effectiveTo:       effectiveTo,
		active:            active,
	}
}
