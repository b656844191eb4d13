package queries

import (
	"context"
	"time"

	directoryDomain "github.com/domicare/rota/internal/directory/domain"
	"github.com/domicare/rota/internal/scheduling/application/services"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/pkg/geo"
	"github.com/google/uuid"
)

// FindAvailableQuery lists the care givers who could take a visit in
// the given window, for manual booking. Times are HH:MM strings.
type FindAvailableQuery struct {
	CareReceiverID uuid.UUID
	Date           time.Time
	StartTime      string
	EndTime        string
	Requirements   []string
	DoubleHanded   bool
}

// AvailableCareGiverDTO is one feasible candidate, in selection order.
type AvailableCareGiverDTO struct {
	CareGiverID   uuid.UUID `json:"care_giver_id"`
	Name          string    `json:"name"`
	DistanceKm    *float64  `json:"distance_km,omitempty"`
	TravelMinutes *int      `json:"travel_minutes,omitempty"`
	Preferred     bool      `json:"preferred"`
}

// AvailableCareGiversDTO is the result of a FindAvailableQuery.
type AvailableCareGiversDTO struct {
	Date       time.Time               `json:"date"`
	StartTime  string                  `json:"start_time"`
	EndTime    string                  `json:"end_time"`
	CareGivers []AvailableCareGiverDTO `json:"care_givers"`
}

// FindAvailableHandler handles the FindAvailableQuery.
type FindAvailableHandler struct {
	careGivers    directoryDomain.CareGiverRepository
	careReceivers directoryDomain.CareReceiverRepository
	oracle        *services.FeasibilityOracle
	settings      services.SettingsSource
	travel        services.TravelPlanner
}

// NewFindAvailableHandler creates a new FindAvailableHandler.
func NewFindAvailableHandler(
	careGivers directoryDomain.CareGiverRepository,
	careReceivers directoryDomain.CareReceiverRepository,
	oracle *services.FeasibilityOracle,
	settings services.SettingsSource,
	travel services.TravelPlanner,
) *FindAvailableHandler {
	return &FindAvailableHandler{
		careGivers:    careGivers,
		careReceivers: careReceivers,
		oracle:        oracle,
		settings:      settings,
		travel:        travel,
	}
}

// Handle executes the FindAvailableQuery. Candidates pass the same
// filters and ranking as engine selection, then each is checked by the
// oracle; only available care givers are returned.
func (h *FindAvailableHandler) Handle(ctx context.Context, query FindAvailableQuery) (*AvailableCareGiversDTO, error) {
	receiver, err := h.careReceivers.FindByID(ctx, query.CareReceiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, ErrCareReceiverNotFound
	}

	start, err := sharedDomain.ParseClockTime(query.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := sharedDomain.ParseClockTime(query.EndTime)
	if err != nil {
		return nil, err
	}
	window, err := sharedDomain.NewTimeRange(start, end)
	if err != nil {
		return nil, err
	}

	requirements, err := sharedDomain.ParseSkills(query.Requirements)
	if err != nil {
		return nil, err
	}

	settings, err := h.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	pool, err := h.careGivers.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	day := sharedDomain.UTCDay(query.Date)
	candidates := services.FilterCandidates(pool, receiver, requirements, query.DoubleHanded, settings.MaxDistanceKm(), nil)

	result := &AvailableCareGiversDTO{
		Date:       day,
		StartTime:  window.Start.String(),
		EndTime:    window.End.String(),
		CareGivers: make([]AvailableCareGiverDTO, 0, len(candidates)),
	}

	for _, candidate := range services.RankCandidates(candidates, receiver) {
		verdict, err := h.oracle.IsAvailableFor(ctx, candidate, day, window, receiver.Location(), nil)
		if err != nil {
			return nil, err
		}
		if !verdict.Available {
			continue
		}

		dto := AvailableCareGiverDTO{
			CareGiverID: candidate.ID(),
			Name:        candidate.FullName(),
		}
		if preferred := receiver.PreferredCareGiverID(); preferred != nil && *preferred == candidate.ID() {
			dto.Preferred = true
		}
		if !candidate.Location().IsZero() && !receiver.Location().IsZero() {
			km := geo.Haversine(candidate.Location(), receiver.Location())
			minutes := h.travel.DriveMinutes(ctx, candidate.Location(), receiver.Location())
			dto.DistanceKm = &km
			dto.TravelMinutes = &minutes
		}

		result.CareGivers = append(result.CareGivers, dto)
	}

	return result, nil
}
