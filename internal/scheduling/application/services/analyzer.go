package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	availabilityServices "github.com/domicare/rota/internal/availability/application/services"
	directoryDomain "github.com/domicare/rota/internal/directory/domain"
	"github.com/domicare/rota/internal/scheduling/domain"
	settingsDomain "github.com/domicare/rota/internal/settings/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/pkg/geo"
	"github.com/google/uuid"
)

// Match score penalties. Every penalty blocks assignment; the
// proximity bonus is the only additive term.
const (
	penaltyMissingSkill = 25
	penaltyGender       = 30
	penaltySingleHanded = 50
	penaltyNoSchedule   = 100
	penaltyOffDay       = 40
	penaltyOutsideSlot  = 30
	penaltyTimeOff      = 100
	penaltyTooFar       = 20
	penaltyDailyCap     = 30
	penaltyOverlap      = 40
	penaltyTravelGap    = 25

	proximityBonus = 10
)

// CareGiverMatch grades one care giver against one expanded visit.
// DistanceKm is nil when either home location is unknown.
type CareGiverMatch struct {
	CareGiverID      uuid.UUID
	Name             string
	CanAssign        bool
	RejectionReasons []string
	MatchScore       int
	DistanceKm       *float64
}

// MatchReport explains why a visit is hard to place: one entry per
// active care giver, assignable entries first, then best score first.
type MatchReport struct {
	Date    time.Time
	Window  sharedDomain.TimeRange
	Matches []*CareGiverMatch
}

// MatchAnalyzer walks the same constraints as the feasibility oracle
// but grades every care giver instead of short-circuiting, so an
// operator can see what stands between a visit and each candidate.
type MatchAnalyzer struct {
	careGivers    directoryDomain.CareGiverRepository
	careReceivers directoryDomain.CareReceiverRepository
	appointments  domain.AppointmentRepository
	versions      *availabilityServices.VersionResolver
	settings      SettingsSource
	travel        TravelPlanner
}

// NewMatchAnalyzer creates a new MatchAnalyzer.
func NewMatchAnalyzer(
	careGivers directoryDomain.CareGiverRepository,
	careReceivers directoryDomain.CareReceiverRepository,
	appointments domain.AppointmentRepository,
	versions *availabilityServices.VersionResolver,
	settings SettingsSource,
	travel TravelPlanner,
) *MatchAnalyzer {
	return &MatchAnalyzer{
		careGivers:    careGivers,
		careReceivers: careReceivers,
		appointments:  appointments,
		versions:      versions,
		settings:      settings,
		travel:        travel,
	}
}

// Analyze grades every active care giver against the given visit on
// the given day.
func (a *MatchAnalyzer) Analyze(
	ctx context.Context,
	receiver *directoryDomain.CareReceiver,
	template *directoryDomain.VisitTemplate,
	date time.Time,
) (*MatchReport, error) {
	end, err := template.EndTime()
	if err != nil {
		return nil, fmt.Errorf("visit window: %w", err)
	}
	window, err := sharedDomain.NewTimeRange(template.PreferredTime(), end)
	if err != nil {
		return nil, err
	}

	settings, err := a.settings.Current(ctx)
	if err != nil {
		return nil, err
	}

	pool, err := a.careGivers.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	day := sharedDomain.UTCDay(date)
	report := &MatchReport{Date: day, Window: window}

	for _, cg := range pool {
		match, err := a.grade(ctx, settings, cg, receiver, template, day, window)
		if err != nil {
			return nil, err
		}
		report.Matches = append(report.Matches, match)
	}

	sort.SliceStable(report.Matches, func(i, j int) bool {
		left, right := report.Matches[i], report.Matches[j]
		if left.CanAssign != right.CanAssign {
			return left.CanAssign
		}
		return left.MatchScore > right.MatchScore
	})

	return report, nil
}

func (a *MatchAnalyzer) grade(
	ctx context.Context,
	settings *settingsDomain.SystemSettings,
	cg *directoryDomain.CareGiver,
	receiver *directoryDomain.CareReceiver,
	template *directoryDomain.VisitTemplate,
	day time.Time,
	window sharedDomain.TimeRange,
) (*CareGiverMatch, error) {
	match := &CareGiverMatch{
		CareGiverID: cg.ID(),
		Name:        cg.FullName(),
	}
	score := 100

	reject := func(penalty int, reason string) {
		score -= penalty
		match.RejectionReasons = append(match.RejectionReasons, reason)
	}

	if missing := sharedDomain.MissingSkills(cg.Skills(), template.Requirements()); len(missing) > 0 {
		reject(penaltyMissingSkill*len(missing),
			fmt.Sprintf("missing required skills: %s", strings.Join(sharedDomain.SkillStrings(missing), ", ")))
	}

	if !receiver.GenderPreference().Accepts(cg.Gender()) {
		reject(penaltyGender, "does not match the gender preference")
	}

	if template.DoubleHanded() && cg.SingleHandedOnly() {
		reject(penaltySingleHanded, "single-handed only but the visit is double-handed")
	}

	version, err := a.versions.ResolveForCareGiver(ctx, cg, day)
	if err != nil {
		return nil, err
	}

	if version.Schedule().IsEmpty() {
		reject(penaltyNoSchedule, "has no availability schedule")
	} else {
		weekday := sharedDomain.DayOfWeekOf(day)
		if !version.Schedule().WorksOn(weekday) {
			reject(penaltyOffDay, fmt.Sprintf("does not work on %s", weekday))
		} else if _, ok := version.SlotContaining(weekday, window); !ok {
			reject(penaltyOutsideSlot, fmt.Sprintf("no availability window covers %s", window))
		}
	}

	if version.OnTimeOff(day) || cg.IsOnHoliday(day) {
		reject(penaltyTimeOff, fmt.Sprintf("on time off on %s", day.Format("2006-01-02")))
	}

	if !cg.Location().IsZero() && !receiver.Location().IsZero() {
		distance := geo.Haversine(cg.Location(), receiver.Location())
		match.DistanceKm = &distance

		maxDistance := settings.MaxDistanceKm()
		if distance > maxDistance {
			reject(penaltyTooFar, fmt.Sprintf("%.1f km away exceeds the %.1f km limit", distance, maxDistance))
		} else {
			score += int(math.Round(proximityBonus * (maxDistance - distance) / maxDistance))
		}
	}

	sameDay, err := a.appointments.FindByCareGiverAndDate(ctx, cg.ID(), day)
	if err != nil {
		return nil, err
	}
	occupied := occupying(sameDay, nil)

	if len(occupied) >= settings.MaxAppointmentsPerDay() {
		reject(penaltyDailyCap, fmt.Sprintf("daily limit of %d appointments reached", settings.MaxAppointmentsPerDay()))
	}

	overlapped := false
	for _, appt := range occupied {
		if appt.Window().Overlaps(window) {
			reject(penaltyOverlap, fmt.Sprintf("overlaps an existing appointment at %s", appt.Window()))
			overlapped = true
			break
		}
	}

	if !overlapped {
		gapReason, err := a.travelGapIssue(ctx, settings, occupied, window, receiver.Location())
		if err != nil {
			return nil, err
		}
		if gapReason != "" {
			reject(penaltyTravelGap, gapReason)
		}
	}

	match.CanAssign = len(match.RejectionReasons) == 0
	match.MatchScore = clampScore(score)
	return match, nil
}

// travelGapIssue reports the first adjacent appointment the care giver
// could not reach in time, or "" when both legs fit. Legs without a
// known location on either end are skipped.
func (a *MatchAnalyzer) travelGapIssue(
	ctx context.Context,
	settings *settingsDomain.SystemSettings,
	occupied []*domain.Appointment,
	window sharedDomain.TimeRange,
	receiverLocation geo.Coordinates,
) (string, error) {
	if receiverLocation.IsZero() {
		return "", nil
	}

	if prior := latestEndingBefore(occupied, window.Start); prior != nil {
		priorLocation, err := a.visitLocation(ctx, prior)
		if err != nil {
			return "", err
		}
		if !priorLocation.IsZero() {
			gap := prior.Window().End.MinutesUntil(window.Start)
			required := a.travel.DriveMinutes(ctx, priorLocation, receiverLocation) + settings.TravelTimeBufferMinutes()
			if gap < required {
				return "insufficient travel time from previous", nil
			}
		}
	}

	if next := earliestStartingAfter(occupied, window.End); next != nil {
		nextLocation, err := a.visitLocation(ctx, next)
		if err != nil {
			return "", err
		}
		if !nextLocation.IsZero() {
			gap := window.End.MinutesUntil(next.Window().Start)
			required := a.travel.DriveMinutes(ctx, receiverLocation, nextLocation) + settings.TravelTimeBufferMinutes()
			if gap < required {
				return "insufficient travel time to next", nil
			}
		}
	}

	return "", nil
}

func (a *MatchAnalyzer) visitLocation(ctx context.Context, appt *domain.Appointment) (geo.Coordinates, error) {
	receiver, err := a.careReceivers.FindByID(ctx, appt.CareReceiverID())
	if err != nil {
		return geo.Coordinates{}, err
	}
	if receiver == nil {
		return geo.Coordinates{}, nil
	}
	return receiver.Location(), nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
