package queries

import (
	"context"
	"errors"
	"time"

	directoryDomain "github.com/domicare/rota/internal/directory/domain"
	"github.com/domicare/rota/internal/scheduling/application/services"
	"github.com/domicare/rota/internal/scheduling/domain"
	settingsDomain "github.com/domicare/rota/internal/settings/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/google/uuid"
)

var ErrInvalidDateRange = errors.New("end date is before start date")

// UnscheduledVisitsQuery reports the visits in a date range that have
// no appointment, together with the reason placement would fail today.
type UnscheduledVisitsQuery struct {
	StartDate time.Time
	EndDate   time.Time
}

// UnscheduledVisitDTO is one missing visit. Schedulable marks visits
// the engine could place right now; their absence just means
// generation has not been run for that day yet.
type UnscheduledVisitDTO struct {
	Date            time.Time `json:"date"`
	VisitNumber     int       `json:"visit_number"`
	StartTime       string    `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Requirements    []string  `json:"requirements"`
	DoubleHanded    bool      `json:"double_handed"`
	Priority        int       `json:"priority"`
	Reason          string    `json:"reason"`
	Schedulable     bool      `json:"schedulable"`
}

// ReceiverUnscheduledDTO groups the missing visits of one care
// receiver. Receivers with a full schedule are omitted.
type ReceiverUnscheduledDTO struct {
	CareReceiverID   uuid.UUID             `json:"care_receiver_id"`
	CareReceiverName string                `json:"care_receiver_name"`
	Visits           []UnscheduledVisitDTO `json:"visits"`
}

// UnscheduledVisitsReport is the full report for a date range.
type UnscheduledVisitsReport struct {
	StartDate    time.Time                `json:"start_date"`
	EndDate      time.Time                `json:"end_date"`
	TotalMissing int                      `json:"total_missing"`
	Receivers    []ReceiverUnscheduledDTO `json:"receivers"`
}

// UnscheduledVisitsHandler handles the UnscheduledVisitsQuery.
type UnscheduledVisitsHandler struct {
	careGivers    directoryDomain.CareGiverRepository
	careReceivers directoryDomain.CareReceiverRepository
	appointments  domain.AppointmentRepository
	oracle        *services.FeasibilityOracle
	settings      services.SettingsSource
}

// NewUnscheduledVisitsHandler creates a new UnscheduledVisitsHandler.
func NewUnscheduledVisitsHandler(
	careGivers directoryDomain.CareGiverRepository,
	careReceivers directoryDomain.CareReceiverRepository,
	appointments domain.AppointmentRepository,
	oracle *services.FeasibilityOracle,
	settings services.SettingsSource,
) *UnscheduledVisitsHandler {
	return &UnscheduledVisitsHandler{
		careGivers:    careGivers,
		careReceivers: careReceivers,
		appointments:  appointments,
		oracle:        oracle,
		settings:      settings,
	}
}

// Handle executes the UnscheduledVisitsQuery. It expands every active
// receiver's templates over the range, drops expansions that already
// have an appointment, and probes the rest the way the engine would.
func (h *UnscheduledVisitsHandler) Handle(ctx context.Context, query UnscheduledVisitsQuery) (*UnscheduledVisitsReport, error) {
	from := sharedDomain.UTCDay(query.StartDate)
	to := sharedDomain.UTCDay(query.EndDate)
	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}

	settings, err := h.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	pool, err := h.careGivers.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	receivers, err := h.careReceivers.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	report := &UnscheduledVisitsReport{
		StartDate: from,
		EndDate:   to,
		Receivers: make([]ReceiverUnscheduledDTO, 0),
	}

	for _, receiver := range receivers {
		entry := ReceiverUnscheduledDTO{
			CareReceiverID:   receiver.ID(),
			CareReceiverName: receiver.FullName(),
		}

		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			for _, template := range receiver.TemplatesDueOn(day) {
				existing, err := h.appointments.FindForVisit(ctx, receiver.ID(), day, template.VisitNumber())
				if err != nil {
					return nil, err
				}
				if existing != nil {
					continue
				}

				reason, schedulable, err := h.probeVisit(ctx, settings, pool, receiver, template, day)
				if err != nil {
					return nil, err
				}

				entry.Visits = append(entry.Visits, UnscheduledVisitDTO{
					Date:            day,
					VisitNumber:     template.VisitNumber(),
					StartTime:       template.PreferredTime().String(),
					DurationMinutes: template.DurationMinutes(),
					Requirements:    sharedDomain.SkillStrings(template.Requirements()),
					DoubleHanded:    template.DoubleHanded(),
					Priority:        template.Priority(),
					Reason:          reason,
					Schedulable:     schedulable,
				})
			}
		}

		if len(entry.Visits) > 0 {
			report.Receivers = append(report.Receivers, entry)
			report.TotalMissing += len(entry.Visits)
		}
	}

	return report, nil
}

// probeVisit dry-runs the engine's selection for one visit. It applies
// the same filters and ranking as a real run but books nothing.
func (h *UnscheduledVisitsHandler) probeVisit(
	ctx context.Context,
	settings *settingsDomain.SystemSettings,
	pool []*directoryDomain.CareGiver,
	receiver *directoryDomain.CareReceiver,
	template *directoryDomain.VisitTemplate,
	day time.Time,
) (string, bool, error) {
	end, err := template.EndTime()
	if err != nil {
		return "visit would run past midnight", false, nil
	}
	window, err := sharedDomain.NewTimeRange(template.PreferredTime(), end)
	if err != nil {
		return err.Error(), false, nil
	}

	primary, reason, err := h.firstFeasible(ctx, settings, pool, receiver, template, day, window, nil)
	if err != nil {
		return "", false, err
	}
	if primary == nil {
		return reason, false, nil
	}

	if template.DoubleHanded() {
		primaryID := primary.ID()
		secondary, _, err := h.firstFeasible(ctx, settings, pool, receiver, template, day, window, &primaryID)
		if err != nil {
			return "", false, err
		}
		if secondary == nil {
			return "no secondary care giver available for the double-handed visit", false, nil
		}
	}

	return "schedulable; awaiting generation", true, nil
}

func (h *UnscheduledVisitsHandler) firstFeasible(
	ctx context.Context,
	settings *settingsDomain.SystemSettings,
	pool []*directoryDomain.CareGiver,
	receiver *directoryDomain.CareReceiver,
	template *directoryDomain.VisitTemplate,
	day time.Time,
	window sharedDomain.TimeRange,
	exclude *uuid.UUID,
) (*directoryDomain.CareGiver, string, error) {
	candidates := services.FilterCandidates(pool, receiver, template.Requirements(), template.DoubleHanded(), settings.MaxDistanceKm(), exclude)
	if len(candidates) == 0 {
		return nil, "no care givers match the visit requirements", nil
	}

	for _, candidate := range services.RankCandidates(candidates, receiver) {
		verdict, err := h.oracle.IsAvailableFor(ctx, candidate, day, window, receiver.Location(), nil)
		if err != nil {
			return nil, "", err
		}
		if verdict.Available {
			return candidate, "", nil
		}
	}

	return nil, "no care giver is available for this visit", nil
}
