package services

import (
	"context"
	"math"
	"sort"
	"time"

	availabilityServices "github.com/domicare/rota/internal/availability/application/services"
	directoryDomain "github.com/domicare/rota/internal/directory/domain"
	"github.com/domicare/rota/internal/scheduling/domain"
	settingsDomain "github.com/domicare/rota/internal/settings/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/pkg/geo"
	"github.com/google/uuid"
)

// preferredBonus is subtracted from the selection score of the
// receiver's preferred care giver. Lower scores win.
const preferredBonus = 10

// FailedVisit describes one expanded visit the engine could not place.
// Infeasibility is a result, not an error.
type FailedVisit struct {
	CareReceiverID uuid.UUID
	Date           time.Time
	VisitNumber    int
	Reason         string
}

// ReceiverSchedule is the outcome of one generation run for a single
// care receiver. Visits that already had an appointment for their
// (date, visit number) are counted in Skipped and appear in neither
// list.
type ReceiverSchedule struct {
	CareReceiverID uuid.UUID
	Scheduled      []*domain.Appointment
	Failed         []FailedVisit
	Skipped        int
}

// AssignmentEngine expands visit templates over a date range and
// places each expanded visit with the best feasible care giver.
// Appointments are saved as they are created, so earlier placements
// constrain later ones within the same run.
type AssignmentEngine struct {
	careGivers   directoryDomain.CareGiverRepository
	appointments domain.AppointmentRepository
	versions     *availabilityServices.VersionResolver
	oracle       *FeasibilityOracle
	settings     SettingsSource
}

// NewAssignmentEngine creates a new AssignmentEngine.
func NewAssignmentEngine(
	careGivers directoryDomain.CareGiverRepository,
	appointments domain.AppointmentRepository,
	versions *availabilityServices.VersionResolver,
	oracle *FeasibilityOracle,
	settings SettingsSource,
) *AssignmentEngine {
	return &AssignmentEngine{
		careGivers:   careGivers,
		appointments: appointments,
		versions:     versions,
		oracle:       oracle,
		settings:     settings,
	}
}

// Generate runs the engine for each receiver in the order supplied,
// over every UTC day from `from` to `to` inclusive.
func (e *AssignmentEngine) Generate(
	ctx context.Context,
	receivers []*directoryDomain.CareReceiver,
	from, to time.Time,
) ([]*ReceiverSchedule, error) {
	settings, err := e.settings.Current(ctx)
	if err != nil {
		return nil, err
	}

	pool, err := e.careGivers.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	schedules := make([]*ReceiverSchedule, 0, len(receivers))
	for _, receiver := range receivers {
		schedule, err := e.generateForReceiver(ctx, settings, pool, receiver, from, to)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}

	return schedules, nil
}

func (e *AssignmentEngine) generateForReceiver(
	ctx context.Context,
	settings *settingsDomain.SystemSettings,
	pool []*directoryDomain.CareGiver,
	receiver *directoryDomain.CareReceiver,
	from, to time.Time,
) (*ReceiverSchedule, error) {
	schedule := &ReceiverSchedule{CareReceiverID: receiver.ID()}

	first := sharedDomain.UTCDay(from)
	last := sharedDomain.UTCDay(to)

	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		for _, template := range receiver.TemplatesDueOn(day) {
			if err := e.placeVisit(ctx, settings, pool, receiver, template, day, schedule); err != nil {
				return nil, err
			}
		}
	}

	return schedule, nil
}

func (e *AssignmentEngine) placeVisit(
	ctx context.Context,
	settings *settingsDomain.SystemSettings,
	pool []*directoryDomain.CareGiver,
	receiver *directoryDomain.CareReceiver,
	template *directoryDomain.VisitTemplate,
	day time.Time,
	schedule *ReceiverSchedule,
) error {
	existing, err := e.appointments.FindForVisit(ctx, receiver.ID(), day, template.VisitNumber())
	if err != nil {
		return err
	}
	if existing != nil {
		schedule.Skipped++
		return nil
	}

	fail := func(reason string) {
		schedule.Failed = append(schedule.Failed, FailedVisit{
			CareReceiverID: receiver.ID(),
			Date:           day,
			VisitNumber:    template.VisitNumber(),
			Reason:         reason,
		})
	}

	end, err := template.EndTime()
	if err != nil {
		fail("visit would run past midnight")
		return nil
	}
	window, err := sharedDomain.NewTimeRange(template.PreferredTime(), end)
	if err != nil {
		return err
	}

	primary, reason, err := e.selectCareGiver(ctx, settings, pool, receiver, template, day, window, nil)
	if err != nil {
		return err
	}
	if primary == nil {
		fail(reason)
		return nil
	}

	var secondaryID *uuid.UUID
	if template.DoubleHanded() {
		primaryID := primary.ID()
		secondary, _, err := e.selectCareGiver(ctx, settings, pool, receiver, template, day, window, &primaryID)
		if err != nil {
			return err
		}
		if secondary == nil {
			// The primary is not committed without a partner.
			fail("no secondary care giver available for the double-handed visit")
			return nil
		}
		id := secondary.ID()
		secondaryID = &id
	}

	snapshot, err := SnapshotAvailability(ctx, e.versions, primary, day)
	if err != nil {
		return err
	}

	appt, err := domain.NewAppointment(domain.AppointmentSpec{
		CareReceiverID:       receiver.ID(),
		CareGiverID:          primary.ID(),
		SecondaryCareGiverID: secondaryID,
		Date:                 day,
		Start:                template.PreferredTime(),
		DurationMinutes:      template.DurationMinutes(),
		VisitNumber:          template.VisitNumber(),
		Requirements:         template.Requirements(),
		DoubleHanded:         template.DoubleHanded(),
		Priority:             template.Priority(),
		Snapshot:             snapshot,
	})
	if err != nil {
		fail(err.Error())
		return nil
	}

	// Saved immediately so the next feasibility check sees it.
	if err := e.appointments.Save(ctx, appt); err != nil {
		return err
	}

	schedule.Scheduled = append(schedule.Scheduled, appt)
	return nil
}

// selectCareGiver filters and ranks the pool, then takes the first
// candidate the oracle accepts. A nil care giver with a reason means no
// one could take the visit.
func (e *AssignmentEngine) selectCareGiver(
	ctx context.Context,
	settings *settingsDomain.SystemSettings,
	pool []*directoryDomain.CareGiver,
	receiver *directoryDomain.CareReceiver,
	template *directoryDomain.VisitTemplate,
	day time.Time,
	window sharedDomain.TimeRange,
	exclude *uuid.UUID,
) (*directoryDomain.CareGiver, string, error) {
	candidates := FilterCandidates(pool, receiver, template.Requirements(), template.DoubleHanded(), settings.MaxDistanceKm(), exclude)
	if len(candidates) == 0 {
		return nil, "no care givers match the visit requirements", nil
	}

	for _, candidate := range RankCandidates(candidates, receiver) {
		verdict, err := e.oracle.IsAvailableFor(ctx, candidate, day, window, receiver.Location(), nil)
		if err != nil {
			return nil, "", err
		}
		if verdict.Available {
			return candidate, "", nil
		}
	}

	return nil, "no care giver is available for this visit", nil
}

// SnapshotAvailability captures the availability in force for audit.
// Inline pseudo-versions have no stored identity, so only their slots
// are kept.
func SnapshotAvailability(
	ctx context.Context,
	versions *availabilityServices.VersionResolver,
	cg *directoryDomain.CareGiver,
	day time.Time,
) (domain.AvailabilitySnapshot, error) {
	version, err := versions.ResolveForCareGiver(ctx, cg, day)
	if err != nil {
		return domain.AvailabilitySnapshot{}, err
	}

	snapshot := domain.AvailabilitySnapshot{
		Slots: version.Schedule().SlotsFor(sharedDomain.DayOfWeekOf(day)),
	}
	if !version.IsInline() {
		id := version.ID()
		snapshot.VersionID = &id
	}
	return snapshot, nil
}

// FilterCandidates applies the static visit constraints: active flag,
// skill superset, the single-handed exclusion for double-handed visits,
// the receiver's gender preference and the distance limit. Candidates
// without a known location pass the distance filter.
func FilterCandidates(
	pool []*directoryDomain.CareGiver,
	receiver *directoryDomain.CareReceiver,
	required []sharedDomain.Skill,
	doubleHanded bool,
	maxDistanceKm float64,
	exclude *uuid.UUID,
) []*directoryDomain.CareGiver {
	candidates := make([]*directoryDomain.CareGiver, 0, len(pool))
	for _, cg := range pool {
		if exclude != nil && cg.ID() == *exclude {
			continue
		}
		if !cg.IsActive() {
			continue
		}
		if !cg.HasSkills(required) {
			continue
		}
		if doubleHanded && cg.SingleHandedOnly() {
			continue
		}
		if !receiver.GenderPreference().Accepts(cg.Gender()) {
			continue
		}
		if !cg.Location().IsZero() && !receiver.Location().IsZero() &&
			geo.Haversine(cg.Location(), receiver.Location()) > maxDistanceKm {
			continue
		}
		candidates = append(candidates, cg)
	}
	return candidates
}

// RankCandidates orders candidates by selection score, best first. The
// sort is stable, so ties keep the order of the candidate source.
func RankCandidates(
	candidates []*directoryDomain.CareGiver,
	receiver *directoryDomain.CareReceiver,
) []*directoryDomain.CareGiver {
	ranked := make([]*directoryDomain.CareGiver, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		return selectionScore(ranked[i], receiver) < selectionScore(ranked[j], receiver)
	})

	return ranked
}

// selectionScore is straight-line distance in km minus a flat bonus for
// the receiver's preferred care giver. Lower is better. Candidates
// without a known location rank last.
func selectionScore(cg *directoryDomain.CareGiver, receiver *directoryDomain.CareReceiver) float64 {
	var score float64
	if cg.Location().IsZero() || receiver.Location().IsZero() {
		score = math.Inf(1)
	} else {
		score = geo.Haversine(cg.Location(), receiver.Location())
	}

	if preferred := receiver.PreferredCareGiverID(); preferred != nil && *preferred == cg.ID() {
		score -= preferredBonus
	}
	return score
}
